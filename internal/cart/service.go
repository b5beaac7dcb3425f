// Package cart applies line-item mutations to the active order and keeps a
// read-side projection of the cart in sync with platform state.
package cart

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/angelmondragon/storefront-client/internal/session"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/storefront"
)

// API is the slice of the platform client the cart consumes.
type API interface {
	GetOrder(ctx context.Context, orderID string) (*storefront.Order, error)
	ListLineItems(ctx context.Context, orderID string) ([]storefront.LineItem, error)
	CreateLineItem(ctx context.Context, orderID string, input storefront.LineItemInput) (*storefront.LineItem, error)
	UpdateLineItem(ctx context.Context, orderID, lineItemID string, input storefront.LineItemInput) (*storefront.LineItem, error)
	DeleteLineItem(ctx context.Context, orderID, lineItemID string) error
}

// Resolver supplies the active order every mutation targets.
type Resolver interface {
	ResolveActiveOrder(ctx context.Context) (*storefront.Order, error)
}

// Service serializes cart mutations and republishes the projection after each
// one. Mutations are keyed by product: the caller never handles line-item ids.
type Service struct {
	api        API
	resolver   Resolver
	store      session.Store
	projection *Projection
	logger     *logger.Logger
	busy       atomic.Bool
}

func NewService(api API, resolver Resolver, store session.Store, projection *Projection, logg *logger.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("platform api required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("order resolver required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if projection == nil {
		return nil, fmt.Errorf("projection required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{api: api, resolver: resolver, store: store, projection: projection, logger: logg}, nil
}

// acquire claims the single mutation slot. Overlapping mutations are rejected
// rather than queued: the second caller gets a conflict and retries with
// fresh state.
func (s *Service) acquire() error {
	if !s.busy.CompareAndSwap(false, true) {
		return pkgerrors.New(pkgerrors.CodeConflict, "another cart operation is in progress")
	}
	return nil
}

func (s *Service) release() {
	s.busy.Store(false)
}

// AddItem adds quantity of a product to the cart, merging into an existing
// row for the same product rather than duplicating it.
func (s *Service) AddItem(ctx context.Context, productID string, quantity int) (Snapshot, error) {
	if productID == "" {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity < 1 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if err := s.acquire(); err != nil {
		return Snapshot{}, err
	}
	defer s.release()

	order, err := s.resolver.ResolveActiveOrder(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	ctx = s.logger.WithOrderID(ctx, order.ID)

	existing, err := s.findItem(ctx, order.ID, productID)
	if err != nil {
		return Snapshot{}, err
	}

	input := storefront.LineItemInput{ProductID: productID, Quantity: quantity}
	if existing != nil {
		input.Quantity += existing.Quantity
		_, err = s.api.UpdateLineItem(ctx, order.ID, existing.ID, input)
	} else {
		_, err = s.api.CreateLineItem(ctx, order.ID, input)
	}
	if err != nil {
		return Snapshot{}, err
	}

	s.logger.Info(ctx, "cart item added")
	return s.refresh(ctx, order.ID)
}

// SetQuantity pins a product's cart quantity. Zero or less removes the row;
// setting a quantity on a product not in the cart creates it. Unlike AddItem
// this never creates an order: quantity edits only make sense against an
// existing cart, so a missing session order is a precondition failure the
// user recovers from by reloading.
func (s *Service) SetQuantity(ctx context.Context, productID string, quantity int) (Snapshot, error) {
	if productID == "" {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := s.acquire(); err != nil {
		return Snapshot{}, err
	}
	defer s.release()

	persisted, err := s.store.ActiveOrderID(ctx)
	if err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading persisted order id")
	}
	if persisted == "" {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodePrecondition, "no active cart to edit")
	}

	order, err := s.resolver.ResolveActiveOrder(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	ctx = s.logger.WithOrderID(ctx, order.ID)

	existing, err := s.findItem(ctx, order.ID, productID)
	if err != nil {
		return Snapshot{}, err
	}

	switch {
	case quantity < 1 && existing == nil:
		// Already absent.
	case quantity < 1:
		err = s.api.DeleteLineItem(ctx, order.ID, existing.ID)
	case existing != nil:
		_, err = s.api.UpdateLineItem(ctx, order.ID, existing.ID, storefront.LineItemInput{
			ProductID: productID,
			Quantity:  quantity,
		})
	default:
		_, err = s.api.CreateLineItem(ctx, order.ID, storefront.LineItemInput{
			ProductID: productID,
			Quantity:  quantity,
		})
	}
	if err != nil {
		return Snapshot{}, err
	}

	s.logger.Info(ctx, "cart quantity set")
	return s.refresh(ctx, order.ID)
}

// RemoveItem deletes a product's row from the cart. Removing a product that
// is not in the cart is a no-op.
func (s *Service) RemoveItem(ctx context.Context, productID string) (Snapshot, error) {
	return s.SetQuantity(ctx, productID, 0)
}

// View re-reads platform state, republishes the projection and returns it.
func (s *Service) View(ctx context.Context) (Snapshot, error) {
	order, err := s.resolver.ResolveActiveOrder(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return s.refresh(s.logger.WithOrderID(ctx, order.ID), order.ID)
}

// Cached returns the last published snapshot without touching the network.
func (s *Service) Cached() Snapshot {
	return s.projection.Current()
}

// findItem locates the cart row for a product. Line-item ids are looked up
// fresh on every mutation so a row deleted by a previous call never leaves a
// stale id behind.
func (s *Service) findItem(ctx context.Context, orderID, productID string) (*storefront.LineItem, error) {
	items, err := s.api.ListLineItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ProductID == productID {
			return &items[i], nil
		}
	}
	return nil, nil
}

// refresh rebuilds the snapshot from a fresh order fetch plus line items and
// replaces the projection wholesale.
func (s *Service) refresh(ctx context.Context, orderID string) (Snapshot, error) {
	order, err := s.api.GetOrder(ctx, orderID)
	if err != nil {
		return Snapshot{}, err
	}
	items, err := s.api.ListLineItems(ctx, orderID)
	if err != nil {
		return Snapshot{}, err
	}
	snapshot := buildSnapshot(order, items)
	s.projection.Replace(snapshot)
	return snapshot, nil
}
