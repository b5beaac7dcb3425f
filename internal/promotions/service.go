// Package promotions applies and removes discount codes on the active order.
package promotions

import (
	"context"
	"fmt"

	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/storefront"
)

// API is the slice of the platform client this service consumes.
type API interface {
	ApplyPromotion(ctx context.Context, orderID, code string) (*storefront.Promotion, error)
	RemovePromotion(ctx context.Context, orderID, code string) error
	ListOrderPromotions(ctx context.Context, orderID string) ([]storefront.Promotion, error)
}

// Resolver supplies the active order promotion operations target.
type Resolver interface {
	ResolveActiveOrder(ctx context.Context) (*storefront.Order, error)
}

type Service struct {
	api      API
	resolver Resolver
	logger   *logger.Logger
}

func NewService(api API, resolver Resolver, logg *logger.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("platform api required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("order resolver required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{api: api, resolver: resolver, logger: logg}, nil
}

// Apply submits a discount code. Rejections come back with the platform's own
// reason (expired, not yet valid, already applied) so the caller can show it
// verbatim.
func (s *Service) Apply(ctx context.Context, code string) (*storefront.Promotion, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion code is required")
	}
	order, err := s.resolver.ResolveActiveOrder(ctx)
	if err != nil {
		return nil, err
	}
	ctx = s.logger.WithOrderID(ctx, order.ID)

	promo, err := s.api.ApplyPromotion(ctx, order.ID, code)
	if err != nil {
		s.logger.Warn(ctx, "promotion rejected")
		return nil, err
	}
	s.logger.Info(ctx, "promotion applied")
	return promo, nil
}

// Remove detaches a code from the active order. Removing a code that is not
// attached succeeds: the end state is the same either way.
func (s *Service) Remove(ctx context.Context, code string) error {
	if code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "promotion code is required")
	}
	order, err := s.resolver.ResolveActiveOrder(ctx)
	if err != nil {
		return err
	}
	ctx = s.logger.WithOrderID(ctx, order.ID)

	if err := s.api.RemovePromotion(ctx, order.ID, code); err != nil {
		if storefront.IsNotFound(err) {
			return nil
		}
		return err
	}
	s.logger.Info(ctx, "promotion removed")
	return nil
}

// List returns the codes attached to the active order. The listing is
// decorative, so any failure degrades to an empty list rather than blocking
// the page that wanted it.
func (s *Service) List(ctx context.Context) []storefront.Promotion {
	order, err := s.resolver.ResolveActiveOrder(ctx)
	if err != nil {
		s.logger.Warn(ctx, "promotion listing skipped, no active order")
		return nil
	}
	ctx = s.logger.WithOrderID(ctx, order.ID)

	promos, err := s.api.ListOrderPromotions(ctx, order.ID)
	if err != nil {
		s.logger.Warn(ctx, "promotion listing failed, returning none")
		return nil
	}
	return promos
}
