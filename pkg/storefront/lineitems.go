package storefront

import (
	"context"
	"net/http"

	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
)

// LineItemInput is the create/update payload. ProductID is mandatory on
// update as well: the platform requires the full resource identity, not just
// the mutated quantity.
type LineItemInput struct {
	ProductID string `json:"ProductID"`
	Quantity  int    `json:"Quantity"`
}

func (c *Client) ListLineItems(ctx context.Context, orderID string) ([]LineItem, error) {
	if err := requireID("order id", orderID); err != nil {
		return nil, err
	}
	var envelope listEnvelope[LineItem]
	if err := c.do(ctx, "lineitem.list", http.MethodGet, "/v1/orders/outgoing/"+orderID+"/lineitems", nil, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Items, nil
}

func (c *Client) CreateLineItem(ctx context.Context, orderID string, input LineItemInput) (*LineItem, error) {
	if err := requireID("order id", orderID); err != nil {
		return nil, err
	}
	if err := validateLineItemInput(input); err != nil {
		return nil, err
	}
	var item LineItem
	if err := c.do(ctx, "lineitem.create", http.MethodPost, "/v1/orders/outgoing/"+orderID+"/lineitems", nil, input, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) UpdateLineItem(ctx context.Context, orderID, lineItemID string, input LineItemInput) (*LineItem, error) {
	if err := requireID("order id", orderID); err != nil {
		return nil, err
	}
	if err := requireID("line item id", lineItemID); err != nil {
		return nil, err
	}
	if err := validateLineItemInput(input); err != nil {
		return nil, err
	}
	var item LineItem
	if err := c.do(ctx, "lineitem.update", http.MethodPut, "/v1/orders/outgoing/"+orderID+"/lineitems/"+lineItemID, nil, input, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) DeleteLineItem(ctx context.Context, orderID, lineItemID string) error {
	if err := requireID("order id", orderID); err != nil {
		return err
	}
	if err := requireID("line item id", lineItemID); err != nil {
		return err
	}
	return c.do(ctx, "lineitem.delete", http.MethodDelete, "/v1/orders/outgoing/"+orderID+"/lineitems/"+lineItemID, nil, nil, nil)
}

func validateLineItemInput(input LineItemInput) error {
	if input.ProductID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required on line item writes")
	}
	if input.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "line item quantity must be at least 1")
	}
	return nil
}
