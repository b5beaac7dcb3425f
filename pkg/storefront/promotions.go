package storefront

import (
	"context"
	"net/http"
	"net/url"
)

// ApplyPromotion submits a discount code; the code travels in the path.
func (c *Client) ApplyPromotion(ctx context.Context, orderID, code string) (*Promotion, error) {
	if err := requireID("order id", orderID); err != nil {
		return nil, err
	}
	if err := requireID("promotion code", code); err != nil {
		return nil, err
	}
	var promo Promotion
	path := "/v1/orders/outgoing/" + orderID + "/promotions/" + url.PathEscape(code)
	if err := c.do(ctx, "promotion.apply", http.MethodPost, path, nil, struct{}{}, &promo); err != nil {
		return nil, err
	}
	return &promo, nil
}

func (c *Client) ListOrderPromotions(ctx context.Context, orderID string) ([]Promotion, error) {
	if err := requireID("order id", orderID); err != nil {
		return nil, err
	}
	var envelope listEnvelope[Promotion]
	if err := c.do(ctx, "promotion.list", http.MethodGet, "/v1/orders/outgoing/"+orderID+"/promotions", nil, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Items, nil
}

func (c *Client) RemovePromotion(ctx context.Context, orderID, code string) error {
	if err := requireID("order id", orderID); err != nil {
		return err
	}
	if err := requireID("promotion code", code); err != nil {
		return err
	}
	path := "/v1/orders/outgoing/" + orderID + "/promotions/" + url.PathEscape(code)
	return c.do(ctx, "promotion.remove", http.MethodDelete, path, nil, nil, nil)
}
