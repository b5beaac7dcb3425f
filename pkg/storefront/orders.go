package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
)

// CreateOrderInput scopes a new order to the creating identity.
type CreateOrderInput struct {
	FromCompanyID string `json:"FromCompanyID,omitempty"`
	FromUserID    string `json:"FromUserID,omitempty"`
}

// OrderPatch carries the mutable order fields; nil fields are left untouched
// by the platform, which makes re-patching the same address a no-op.
type OrderPatch struct {
	ShippingAddressID *string `json:"ShippingAddressID,omitempty"`
	BillingAddressID  *string `json:"BillingAddressID,omitempty"`
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	if err := requireID("order id", orderID); err != nil {
		return nil, err
	}
	var order Order
	if err := c.do(ctx, "order.get", http.MethodGet, "/v1/orders/outgoing/"+orderID, nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	var order Order
	if err := c.do(ctx, "order.create", http.MethodPost, "/v1/orders/outgoing", nil, input, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) PatchOrder(ctx context.Context, orderID string, patch OrderPatch) (*Order, error) {
	if err := requireID("order id", orderID); err != nil {
		return nil, err
	}
	var order Order
	if err := c.do(ctx, "order.patch", http.MethodPatch, "/v1/orders/outgoing/"+orderID, nil, patch, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CalculateOrder triggers server-side recalculation of totals. Callers treat
// its failure as soft; the method itself reports errors normally.
func (c *Client) CalculateOrder(ctx context.Context, orderID string) (*Order, error) {
	if err := requireID("order id", orderID); err != nil {
		return nil, err
	}
	var order Order
	if err := c.do(ctx, "order.calculate", http.MethodPost, "/v1/orders/outgoing/"+orderID+"/calculate", nil, struct{}{}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) SubmitOrder(ctx context.Context, orderID string) (*Order, error) {
	if err := requireID("order id", orderID); err != nil {
		return nil, err
	}
	var order Order
	if err := c.do(ctx, "order.submit", http.MethodPost, "/v1/orders/outgoing/"+orderID+"/submit", nil, struct{}{}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListMyOrders returns the current user's submitted orders.
func (c *Client) ListMyOrders(ctx context.Context) ([]Order, error) {
	statuses := make([]string, len(SubmittedStatuses))
	for i, s := range SubmittedStatuses {
		statuses[i] = string(s)
	}
	query := url.Values{}
	query.Set("filters", "Status="+strings.Join(statuses, "|"))

	var envelope listEnvelope[Order]
	if err := c.do(ctx, "order.list_mine", http.MethodGet, "/v1/me/orders", query, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Items, nil
}

func requireID(label, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is required", label))
	}
	return nil
}
