// Package checkout drives the active order through address commitment,
// recalculation, payment and submission.
package checkout

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-client/internal/cart"
	"github.com/angelmondragon/storefront-client/internal/session"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/metrics"
	"github.com/angelmondragon/storefront-client/pkg/storefront"
)

// State names the checkpoints of a checkout attempt.
type State string

const (
	StateIdle               State = "Idle"
	StateAddressValidated   State = "AddressValidated"
	StateAddressesCommitted State = "AddressesCommitted"
	StateRecalculated       State = "Recalculated"
	StatePaymentCreated     State = "PaymentCreated"
	StateSubmitted          State = "Submitted"
)

// Step labels for failure accounting.
const (
	stepValidate    = "validate"
	stepAddresses   = "addresses"
	stepRecalculate = "recalculate"
	stepPayment     = "payment"
	stepSubmit      = "submit"
)

// API is the slice of the platform client checkout consumes.
type API interface {
	GetOrder(ctx context.Context, orderID string) (*storefront.Order, error)
	PatchOrder(ctx context.Context, orderID string, patch storefront.OrderPatch) (*storefront.Order, error)
	CalculateOrder(ctx context.Context, orderID string) (*storefront.Order, error)
	SubmitOrder(ctx context.Context, orderID string) (*storefront.Order, error)
	ListLineItems(ctx context.Context, orderID string) ([]storefront.LineItem, error)
	CreatePayment(ctx context.Context, orderID string, input storefront.PaymentInput) (*storefront.Payment, error)
	ListPayments(ctx context.Context, orderID string) ([]storefront.Payment, error)
	DeletePayment(ctx context.Context, orderID, paymentID string) error
}

// Resolver supplies the active order the attempt operates on.
type Resolver interface {
	ResolveActiveOrder(ctx context.Context) (*storefront.Order, error)
}

// Input is everything a checkout attempt needs from the caller.
type Input struct {
	ShippingAddressID string
	BillingAddressID  string
	// SameAsShipping reuses the shipping address for billing.
	SameAsShipping bool
}

// Result reports how far the attempt got. On success Order is the submitted
// order and Total the amount charged; on failure State marks the last
// checkpoint reached before the error.
type Result struct {
	Order *storefront.Order
	State State
	Total decimal.Decimal
}

// Service runs one checkout attempt at a time over the active order.
type Service struct {
	api        API
	resolver   Resolver
	store      session.Store
	projection *cart.Projection
	logger     *logger.Logger
	metrics    *metrics.StorefrontMetrics
	busy       atomic.Bool
}

type ServiceParams struct {
	API        API
	Resolver   Resolver
	Store      session.Store
	Projection *cart.Projection
	Logger     *logger.Logger
	Metrics    *metrics.StorefrontMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.API == nil {
		return nil, fmt.Errorf("platform api required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("order resolver required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if params.Projection == nil {
		return nil, fmt.Errorf("projection required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		api:        params.API,
		resolver:   params.Resolver,
		store:      params.Store,
		projection: params.Projection,
		logger:     params.Logger,
		metrics:    params.Metrics,
	}, nil
}

// Submit runs the full checkout sequence against the active order. Every step
// is idempotent for the same inputs, so a failed attempt can simply be rerun;
// committed addresses and an existing matching payment are reused rather than
// redone.
func (s *Service) Submit(ctx context.Context, input Input) (Result, error) {
	result := Result{State: StateIdle}

	if !s.busy.CompareAndSwap(false, true) {
		return result, pkgerrors.New(pkgerrors.CodeConflict, "a checkout attempt is already in progress")
	}
	defer s.busy.Store(false)

	billingID := input.BillingAddressID
	if input.SameAsShipping {
		billingID = input.ShippingAddressID
	}
	if input.ShippingAddressID == "" {
		return s.fail(ctx, result, stepValidate,
			pkgerrors.New(pkgerrors.CodeValidation, "a shipping address must be selected"))
	}
	if billingID == "" {
		return s.fail(ctx, result, stepValidate,
			pkgerrors.New(pkgerrors.CodeValidation, "a billing address must be selected"))
	}
	result.State = StateAddressValidated

	order, err := s.resolver.ResolveActiveOrder(ctx)
	if err != nil {
		return s.fail(ctx, result, stepValidate, err)
	}
	ctx = s.logger.WithOrderID(ctx, order.ID)

	if order.LineItemCount == 0 {
		return s.fail(ctx, result, stepValidate,
			pkgerrors.New(pkgerrors.CodePrecondition, "cart is empty, add items before checking out"))
	}

	if err := s.commitAddresses(ctx, order.ID, input.ShippingAddressID, billingID); err != nil {
		return s.fail(ctx, result, stepAddresses, err)
	}
	result.State = StateAddressesCommitted

	total, err := s.determineTotal(ctx, order.ID)
	if err != nil {
		return s.fail(ctx, result, stepRecalculate, err)
	}
	result.State = StateRecalculated
	result.Total = total

	if err := s.ensurePayment(ctx, order.ID, total); err != nil {
		return s.fail(ctx, result, stepPayment, err)
	}
	result.State = StatePaymentCreated

	submitted, err := s.api.SubmitOrder(ctx, order.ID)
	if err != nil {
		return s.fail(ctx, result, stepSubmit, err)
	}
	result.State = StateSubmitted
	result.Order = submitted

	// The submitted order must never be picked up as a cart again.
	if err := s.store.ClearActiveOrderID(ctx); err != nil {
		s.logger.Warn(ctx, "clearing order id after submit failed")
	}
	s.projection.Clear()
	s.metrics.IncSubmitted()
	s.logger.Info(ctx, "order submitted")
	return result, nil
}

func (s *Service) fail(ctx context.Context, result Result, step string, err error) (Result, error) {
	s.metrics.IncCheckoutFailed(step)
	s.logger.Error(ctx, "checkout step failed", err)
	return result, err
}

// commitAddresses patches shipping then billing in two calls. A billing
// failure leaves the committed shipping address in place; rerunning the
// attempt re-patches both, which the platform treats as a no-op.
func (s *Service) commitAddresses(ctx context.Context, orderID, shippingID, billingID string) error {
	if _, err := s.api.PatchOrder(ctx, orderID, storefront.OrderPatch{ShippingAddressID: &shippingID}); err != nil {
		return err
	}
	if _, err := s.api.PatchOrder(ctx, orderID, storefront.OrderPatch{BillingAddressID: &billingID}); err != nil {
		return err
	}
	return nil
}

// determineTotal asks the platform to recalculate. Recalculation is the one
// soft step: when it fails the stored total is re-fetched, and when even that
// fails the subtotal is summed locally from line items. Checkout proceeds
// with the best figure available.
func (s *Service) determineTotal(ctx context.Context, orderID string) (decimal.Decimal, error) {
	order, err := s.api.CalculateOrder(ctx, orderID)
	if err == nil {
		return order.Total, nil
	}
	s.logger.Warn(ctx, "recalculation failed, falling back to stored total")

	order, err = s.api.GetOrder(ctx, orderID)
	if err == nil {
		return order.Total, nil
	}
	s.logger.Warn(ctx, "order re-fetch failed, falling back to local subtotal")

	items, err := s.api.ListLineItems(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	return subtotal, nil
}

// ensurePayment attaches a purchase-order payment covering the total. A
// matching payment left by a previous attempt is reused; one with a stale
// amount is replaced.
func (s *Service) ensurePayment(ctx context.Context, orderID string, total decimal.Decimal) error {
	payments, err := s.api.ListPayments(ctx, orderID)
	if err != nil {
		return err
	}
	for _, payment := range payments {
		if payment.Type != storefront.PaymentTypePurchaseOrder {
			continue
		}
		if payment.Amount.Equal(total) && payment.Accepted {
			s.logger.Info(ctx, "reusing payment from previous attempt")
			return nil
		}
		if err := s.api.DeletePayment(ctx, orderID, payment.ID); err != nil {
			return err
		}
	}
	_, err = s.api.CreatePayment(ctx, orderID, storefront.PaymentInput{
		Type:     storefront.PaymentTypePurchaseOrder,
		Amount:   total,
		Accepted: true,
	})
	return err
}
