package promotions

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/storefront"
)

type stubAPI struct {
	applied     map[string]*storefront.Promotion
	applyErr    error
	removeErr   error
	removedCode string
	listErr     error
	promos      []storefront.Promotion
}

func (s *stubAPI) ApplyPromotion(_ context.Context, _ string, code string) (*storefront.Promotion, error) {
	if s.applyErr != nil {
		return nil, s.applyErr
	}
	if promo, ok := s.applied[code]; ok {
		return promo, nil
	}
	return &storefront.Promotion{Code: code}, nil
}

func (s *stubAPI) RemovePromotion(_ context.Context, _ string, code string) error {
	s.removedCode = code
	return s.removeErr
}

func (s *stubAPI) ListOrderPromotions(context.Context, string) ([]storefront.Promotion, error) {
	return s.promos, s.listErr
}

type stubResolver struct {
	order *storefront.Order
	err   error
}

func (s *stubResolver) ResolveActiveOrder(context.Context) (*storefront.Order, error) {
	return s.order, s.err
}

func newTestService(t *testing.T, api API, resolver Resolver) *Service {
	t.Helper()
	svc, err := NewService(api, resolver, logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled}))
	require.NoError(t, err)
	return svc
}

func activeOrder() *storefront.Order {
	return &storefront.Order{ID: "ord-1", Status: storefront.OrderStatusUnsubmitted}
}

func TestApplyReturnsPromotion(t *testing.T) {
	t.Parallel()

	api := &stubAPI{applied: map[string]*storefront.Promotion{
		"SAVE10": {Code: "SAVE10", Amount: decimal.NewFromInt(10)},
	}}
	svc := newTestService(t, api, &stubResolver{order: activeOrder()})

	promo, err := svc.Apply(context.Background(), "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", promo.Code)
	assert.True(t, promo.Amount.Equal(decimal.NewFromInt(10)))
}

func TestApplySurfacesServerReason(t *testing.T) {
	t.Parallel()

	api := &stubAPI{applyErr: pkgerrors.New(pkgerrors.CodeValidation, "Promotion has expired")}
	svc := newTestService(t, api, &stubResolver{order: activeOrder()})

	_, err := svc.Apply(context.Background(), "OLDCODE")
	require.Error(t, err)
	assert.Equal(t, "Promotion has expired", pkgerrors.UserMessage(err, "fallback"))
}

func TestApplyRejectsEmptyCode(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubAPI{}, &stubResolver{order: activeOrder()})
	_, err := svc.Apply(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestRemoveIsIdempotent(t *testing.T) {
	t.Parallel()

	api := &stubAPI{removeErr: pkgerrors.New(pkgerrors.CodeNotFound, "Promotion not found")}
	svc := newTestService(t, api, &stubResolver{order: activeOrder()})

	require.NoError(t, svc.Remove(context.Background(), "SAVE10"))
	assert.Equal(t, "SAVE10", api.removedCode)
}

func TestRemovePropagatesOtherErrors(t *testing.T) {
	t.Parallel()

	api := &stubAPI{removeErr: pkgerrors.New(pkgerrors.CodeDependency, "platform down")}
	svc := newTestService(t, api, &stubResolver{order: activeOrder()})

	err := svc.Remove(context.Background(), "SAVE10")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
}

func TestListDegradesToEmpty(t *testing.T) {
	t.Parallel()

	api := &stubAPI{listErr: pkgerrors.New(pkgerrors.CodeDependency, "platform down")}
	svc := newTestService(t, api, &stubResolver{order: activeOrder()})
	assert.Empty(t, svc.List(context.Background()))

	svc = newTestService(t, &stubAPI{}, &stubResolver{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "no token")})
	assert.Empty(t, svc.List(context.Background()))
}

func TestListReturnsAttachedCodes(t *testing.T) {
	t.Parallel()

	api := &stubAPI{promos: []storefront.Promotion{{Code: "SAVE10"}, {Code: "FREESHIP"}}}
	svc := newTestService(t, api, &stubResolver{order: activeOrder()})

	promos := svc.List(context.Background())
	require.Len(t, promos, 2)
	assert.Equal(t, "SAVE10", promos[0].Code)
}
