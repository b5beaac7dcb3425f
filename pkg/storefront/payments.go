package storefront

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
)

// PaymentTypePurchaseOrder is the only payment type this storefront issues.
const PaymentTypePurchaseOrder = "PurchaseOrder"

type PaymentInput struct {
	Type     string          `json:"Type"`
	Amount   decimal.Decimal `json:"Amount"`
	Accepted bool            `json:"Accepted"`
}

func (c *Client) CreatePayment(ctx context.Context, orderID string, input PaymentInput) (*Payment, error) {
	if err := requireID("order id", orderID); err != nil {
		return nil, err
	}
	if input.Type == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment type is required")
	}
	if input.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must not be negative")
	}
	var payment Payment
	if err := c.do(ctx, "payment.create", http.MethodPost, "/v1/orders/outgoing/"+orderID+"/payments", nil, input, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (c *Client) ListPayments(ctx context.Context, orderID string) ([]Payment, error) {
	if err := requireID("order id", orderID); err != nil {
		return nil, err
	}
	var envelope listEnvelope[Payment]
	if err := c.do(ctx, "payment.list", http.MethodGet, "/v1/orders/outgoing/"+orderID+"/payments", nil, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Items, nil
}

func (c *Client) DeletePayment(ctx context.Context, orderID, paymentID string) error {
	if err := requireID("order id", orderID); err != nil {
		return err
	}
	if err := requireID("payment id", paymentID); err != nil {
		return err
	}
	return c.do(ctx, "payment.delete", http.MethodDelete, "/v1/orders/outgoing/"+orderID+"/payments/"+paymentID, nil, nil, nil)
}
