// Package orders resolves the single active order a session operates on and
// serves the submitted-order history.
package orders

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-client/internal/session"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/storefront"
)

// API is the slice of the platform client the resolver consumes.
type API interface {
	GetOrder(ctx context.Context, orderID string) (*storefront.Order, error)
	CreateOrder(ctx context.Context, input storefront.CreateOrderInput) (*storefront.Order, error)
	Me(ctx context.Context) (*storefront.MeUser, error)
	ListMyOrders(ctx context.Context) ([]storefront.Order, error)
	ListLineItems(ctx context.Context, orderID string) ([]storefront.LineItem, error)
}

// Service produces exactly one valid, non-submitted order per resolve call.
type Service struct {
	api    API
	store  session.Store
	logger *logger.Logger
}

func NewService(api API, store session.Store, logg *logger.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("platform api required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{api: api, store: store, logger: logg}, nil
}

// ResolveActiveOrder returns the persisted order when it is still usable, and
// otherwise creates a fresh one scoped to the current identity. A submitted
// or completed order is never reused; a stored id the platform no longer
// knows, or one owned by a different login, is discarded silently.
func (s *Service) ResolveActiveOrder(ctx context.Context) (*storefront.Order, error) {
	id, err := s.store.ActiveOrderID(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading persisted order id")
	}

	var me *storefront.MeUser
	if id != "" {
		ctx := s.logger.WithOrderID(ctx, id)

		order, err := s.api.GetOrder(ctx, id)
		switch {
		case storefront.IsNotFound(err):
			s.logger.Info(ctx, "persisted order gone, discarding")
			if err := s.store.ClearActiveOrderID(ctx); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing stale order id")
			}
		case err != nil:
			// Anything but not-found is fatal for this call.
			return nil, err
		case !order.Active():
			s.logger.Info(ctx, "persisted order already submitted, discarding")
			if err := s.store.ClearActiveOrderID(ctx); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing submitted order id")
			}
		default:
			me, err = s.api.Me(ctx)
			if err != nil {
				return nil, err
			}
			if order.FromUserID != "" && order.FromUserID != me.ID {
				// A different login left this id behind on the shared
				// profile. Same treatment as not-found.
				s.logger.Warn(ctx, "persisted order belongs to another user, discarding")
				if err := s.store.ClearActiveOrderID(ctx); err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing foreign order id")
				}
				break
			}
			return order, nil
		}
	}

	return s.createOrder(ctx, me)
}

func (s *Service) createOrder(ctx context.Context, me *storefront.MeUser) (*storefront.Order, error) {
	if me == nil {
		var err error
		me, err = s.api.Me(ctx)
		if err != nil {
			return nil, err
		}
	}

	order, err := s.api.CreateOrder(ctx, storefront.CreateOrderInput{
		FromCompanyID: me.CompanyID,
		FromUserID:    me.ID,
	})
	if err != nil {
		return nil, err
	}

	if order.ID != "" {
		if err := s.store.SetActiveOrderID(ctx, order.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting new order id")
		}
	}

	s.logger.Info(s.logger.WithOrderID(ctx, order.ID), "created new active order")
	return order, nil
}

// History lists the current user's submitted orders.
func (s *Service) History(ctx context.Context) ([]storefront.Order, error) {
	return s.api.ListMyOrders(ctx)
}

// OrderDetail is one history entry with its line items.
type OrderDetail struct {
	Order     storefront.Order
	LineItems []storefront.LineItem
}

func (s *Service) Detail(ctx context.Context, orderID string) (*OrderDetail, error) {
	order, err := s.api.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	items, err := s.api.ListLineItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{Order: *order, LineItems: items}, nil
}
