package checkout

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-client/internal/cart"
	"github.com/angelmondragon/storefront-client/internal/session"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/storefront"
)

type fakeAPI struct {
	order storefront.Order
	items []storefront.LineItem

	patchErrOn     int // 1-based patch call index that fails, 0 = never
	patchCalls     []storefront.OrderPatch
	calcErr        error
	getErr         error
	payments       []storefront.Payment
	paymentCreated int
	paymentDeleted int
	submitErr      error
	submitCalls    int
	totalCalls     int
	nextPaymentID  int
}

func (f *fakeAPI) GetOrder(context.Context, string) (*storefront.Order, error) {
	f.totalCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	order := f.order
	return &order, nil
}

func (f *fakeAPI) PatchOrder(_ context.Context, _ string, patch storefront.OrderPatch) (*storefront.Order, error) {
	f.totalCalls++
	f.patchCalls = append(f.patchCalls, patch)
	if f.patchErrOn != 0 && len(f.patchCalls) == f.patchErrOn {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Address not assigned to order")
	}
	if patch.ShippingAddressID != nil {
		f.order.ShippingAddressID = *patch.ShippingAddressID
	}
	if patch.BillingAddressID != nil {
		f.order.BillingAddressID = *patch.BillingAddressID
	}
	order := f.order
	return &order, nil
}

func (f *fakeAPI) CalculateOrder(context.Context, string) (*storefront.Order, error) {
	f.totalCalls++
	if f.calcErr != nil {
		return nil, f.calcErr
	}
	order := f.order
	return &order, nil
}

func (f *fakeAPI) SubmitOrder(context.Context, string) (*storefront.Order, error) {
	f.totalCalls++
	f.submitCalls++
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.order.IsSubmitted = true
	f.order.Status = storefront.OrderStatusOpen
	order := f.order
	return &order, nil
}

func (f *fakeAPI) ListLineItems(context.Context, string) ([]storefront.LineItem, error) {
	f.totalCalls++
	return f.items, nil
}

func (f *fakeAPI) CreatePayment(_ context.Context, _ string, input storefront.PaymentInput) (*storefront.Payment, error) {
	f.totalCalls++
	f.paymentCreated++
	f.nextPaymentID++
	payment := storefront.Payment{
		ID:       fmt.Sprintf("pay-%d", f.nextPaymentID),
		Type:     input.Type,
		Amount:   input.Amount,
		Accepted: input.Accepted,
	}
	f.payments = append(f.payments, payment)
	return &payment, nil
}

func (f *fakeAPI) ListPayments(context.Context, string) ([]storefront.Payment, error) {
	f.totalCalls++
	out := make([]storefront.Payment, len(f.payments))
	copy(out, f.payments)
	return out, nil
}

func (f *fakeAPI) DeletePayment(_ context.Context, _ string, paymentID string) error {
	f.totalCalls++
	f.paymentDeleted++
	for i := range f.payments {
		if f.payments[i].ID == paymentID {
			f.payments = append(f.payments[:i], f.payments[i+1:]...)
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "Payment not found")
}

type stubResolver struct {
	order *storefront.Order
	err   error
}

func (s *stubResolver) ResolveActiveOrder(context.Context) (*storefront.Order, error) {
	return s.order, s.err
}

type fixture struct {
	api        *fakeAPI
	store      session.Store
	projection *cart.Projection
	svc        *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	api := &fakeAPI{
		order: storefront.Order{
			ID:            "ord-1",
			Status:        storefront.OrderStatusUnsubmitted,
			Subtotal:      decimal.NewFromInt(40),
			Total:         decimal.NewFromInt(47),
			LineItemCount: 4,
		},
		items: []storefront.LineItem{
			{ID: "li-1", ProductID: "p-1", Quantity: 4, LineTotal: decimal.NewFromInt(40)},
		},
	}
	store := session.NewMemoryStore()
	require.NoError(t, store.SetActiveOrderID(context.Background(), "ord-1"))
	projection := cart.NewProjection()
	projection.Replace(cart.Snapshot{OrderID: "ord-1", TotalItems: 4})

	order := api.order
	svc, err := NewService(ServiceParams{
		API:        api,
		Resolver:   &stubResolver{order: &order},
		Store:      store,
		Projection: projection,
		Logger:     logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled}),
	})
	require.NoError(t, err)
	return &fixture{api: api, store: store, projection: projection, svc: svc}
}

func validInput() Input {
	return Input{ShippingAddressID: "addr-ship", BillingAddressID: "addr-bill"}
}

func TestSubmitHappyPath(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()

	result, err := fx.svc.Submit(ctx, validInput())
	require.NoError(t, err)

	assert.Equal(t, StateSubmitted, result.State)
	assert.True(t, result.Total.Equal(decimal.NewFromInt(47)), "total %s", result.Total)
	require.NotNil(t, result.Order)
	assert.True(t, result.Order.IsSubmitted)

	// Shipping patched before billing, in separate calls.
	require.Len(t, fx.api.patchCalls, 2)
	require.NotNil(t, fx.api.patchCalls[0].ShippingAddressID)
	assert.Nil(t, fx.api.patchCalls[0].BillingAddressID)
	assert.Equal(t, "addr-ship", *fx.api.patchCalls[0].ShippingAddressID)
	require.NotNil(t, fx.api.patchCalls[1].BillingAddressID)
	assert.Equal(t, "addr-bill", *fx.api.patchCalls[1].BillingAddressID)

	// One accepted purchase-order payment covering the total.
	require.Len(t, fx.api.payments, 1)
	assert.Equal(t, storefront.PaymentTypePurchaseOrder, fx.api.payments[0].Type)
	assert.True(t, fx.api.payments[0].Accepted)
	assert.True(t, fx.api.payments[0].Amount.Equal(decimal.NewFromInt(47)))

	// Session and projection no longer reference the submitted order.
	id, _ := fx.store.ActiveOrderID(ctx)
	assert.Empty(t, id)
	assert.Zero(t, fx.projection.Current().TotalItems)
}

func TestSubmitSameAsShipping(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	result, err := fx.svc.Submit(context.Background(), Input{
		ShippingAddressID: "addr-ship",
		SameAsShipping:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, result.State)
	require.Len(t, fx.api.patchCalls, 2)
	assert.Equal(t, "addr-ship", *fx.api.patchCalls[1].BillingAddressID)
}

func TestSubmitValidatesBeforeNetwork(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input Input
	}{
		{"missing shipping", Input{BillingAddressID: "addr-bill"}},
		{"missing billing", Input{ShippingAddressID: "addr-ship"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fx := newFixture(t)
			result, err := fx.svc.Submit(context.Background(), tc.input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
			assert.Equal(t, StateIdle, result.State)
			assert.Zero(t, fx.api.totalCalls)
		})
	}
}

func TestSubmitRejectsEmptyCart(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.api.order.LineItemCount = 0
	empty := fx.api.order
	fx.svc.resolver = &stubResolver{order: &empty}

	result, err := fx.svc.Submit(context.Background(), validInput())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodePrecondition, pkgerrors.CodeOf(err))
	assert.Equal(t, StateAddressValidated, result.State)
	assert.Empty(t, fx.api.patchCalls)
}

func TestSubmitRecalcFailureFallsBackToStoredTotal(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.api.calcErr = pkgerrors.New(pkgerrors.CodeDependency, "calculation service down")

	result, err := fx.svc.Submit(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, result.State)
	assert.True(t, result.Total.Equal(decimal.NewFromInt(47)))
	assert.Equal(t, 1, fx.api.submitCalls)
}

func TestSubmitRecalcAndFetchFailureFallsBackToSubtotal(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.api.calcErr = pkgerrors.New(pkgerrors.CodeDependency, "calculation service down")
	fx.api.getErr = pkgerrors.New(pkgerrors.CodeDependency, "platform down")

	result, err := fx.svc.Submit(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, result.State)
	// Summed from line items.
	assert.True(t, result.Total.Equal(decimal.NewFromInt(40)), "total %s", result.Total)
	require.Len(t, fx.api.payments, 1)
	assert.True(t, fx.api.payments[0].Amount.Equal(decimal.NewFromInt(40)))
}

func TestSubmitBillingPatchFailureStopsAttempt(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.api.patchErrOn = 2

	result, err := fx.svc.Submit(context.Background(), validInput())
	require.Error(t, err)
	assert.Equal(t, "Address not assigned to order", pkgerrors.UserMessage(err, "fallback"))
	assert.Equal(t, StateAddressValidated, result.State)
	assert.Zero(t, fx.api.submitCalls)
	assert.Zero(t, fx.api.paymentCreated)

	// Session state survives a failed attempt.
	id, _ := fx.store.ActiveOrderID(context.Background())
	assert.Equal(t, "ord-1", id)
}

func TestSubmitRetryReusesExistingPayment(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.api.submitErr = pkgerrors.New(pkgerrors.CodeDependency, "platform down")

	result, err := fx.svc.Submit(context.Background(), validInput())
	require.Error(t, err)
	assert.Equal(t, StatePaymentCreated, result.State)
	require.Len(t, fx.api.payments, 1)

	fx.api.submitErr = nil
	result, err = fx.svc.Submit(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, result.State)

	// The payment from the first attempt was reused, not duplicated.
	assert.Equal(t, 1, fx.api.paymentCreated)
	assert.Zero(t, fx.api.paymentDeleted)
}

func TestSubmitReplacesStaleAmountPayment(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.api.payments = []storefront.Payment{{
		ID:       "pay-old",
		Type:     storefront.PaymentTypePurchaseOrder,
		Amount:   decimal.NewFromInt(12),
		Accepted: true,
	}}

	result, err := fx.svc.Submit(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, result.State)
	assert.Equal(t, 1, fx.api.paymentDeleted)
	require.Len(t, fx.api.payments, 1)
	assert.True(t, fx.api.payments[0].Amount.Equal(decimal.NewFromInt(47)))
}
