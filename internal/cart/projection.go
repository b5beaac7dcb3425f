package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-client/pkg/storefront"
)

// ItemView is one cart row as rendered to the user.
type ItemView struct {
	LineItemID  string
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// Snapshot is the full cart view at one point in time. It is rebuilt from
// platform state after every mutation and swapped in whole; rows are never
// patched in place.
type Snapshot struct {
	OrderID    string
	Items      []ItemView
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Shipping   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
	TotalItems int
}

// Projection holds the latest snapshot for cheap reads (badge counts, cart
// pages) between refreshes.
type Projection struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

func NewProjection() *Projection {
	return &Projection{}
}

// Replace installs a new snapshot, discarding the previous one entirely.
func (p *Projection) Replace(snapshot Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot = snapshot
}

// Clear resets the projection to an empty cart.
func (p *Projection) Clear() {
	p.Replace(Snapshot{})
}

func (p *Projection) Current() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// buildSnapshot derives the view from a fetched order and its line items. The
// order's server-computed totals win; only TotalItems is summed locally.
func buildSnapshot(order *storefront.Order, items []storefront.LineItem) Snapshot {
	snapshot := Snapshot{
		OrderID:  order.ID,
		Items:    make([]ItemView, 0, len(items)),
		Subtotal: order.Subtotal,
		Discount: order.PromotionDiscount,
		Shipping: order.ShippingCost,
		Tax:      order.TaxCost,
		Total:    order.Total,
	}
	for _, item := range items {
		name := item.Product.Name
		if name == "" {
			name = item.ProductID
		}
		snapshot.Items = append(snapshot.Items, ItemView{
			LineItemID:  item.ID,
			ProductID:   item.ProductID,
			ProductName: name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
		snapshot.TotalItems += item.Quantity
	}
	return snapshot
}
