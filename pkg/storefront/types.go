package storefront

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus mirrors the platform's order lifecycle states.
type OrderStatus string

const (
	OrderStatusUnsubmitted      OrderStatus = "Unsubmitted"
	OrderStatusOpen             OrderStatus = "Open"
	OrderStatusAwaitingApproval OrderStatus = "AwaitingApproval"
	OrderStatusCompleted        OrderStatus = "Completed"
)

// SubmittedStatuses is the filter set for order-history listings.
var SubmittedStatuses = []OrderStatus{
	OrderStatusOpen,
	OrderStatusAwaitingApproval,
	OrderStatusCompleted,
}

// Order is one shopping session on the platform. It doubles as the checkout
// vehicle and, once submitted, as the order-history record.
type Order struct {
	ID                string          `json:"ID"`
	FromCompanyID     string          `json:"FromCompanyID"`
	FromUserID        string          `json:"FromUserID"`
	Status            OrderStatus     `json:"Status"`
	IsSubmitted       bool            `json:"IsSubmitted"`
	Subtotal          decimal.Decimal `json:"Subtotal"`
	ShippingCost      decimal.Decimal `json:"ShippingCost"`
	TaxCost           decimal.Decimal `json:"TaxCost"`
	PromotionDiscount decimal.Decimal `json:"PromotionDiscount"`
	Total             decimal.Decimal `json:"Total"`
	ShippingAddressID string          `json:"ShippingAddressID"`
	BillingAddressID  string          `json:"BillingAddressID"`
	LineItemCount     int             `json:"LineItemCount"`
	DateCreated       *time.Time      `json:"DateCreated,omitempty"`
	DateSubmitted     *time.Time      `json:"DateSubmitted,omitempty"`
}

// Active reports whether the order can still be mutated by this client.
func (o *Order) Active() bool {
	if o == nil {
		return false
	}
	return !o.IsSubmitted && o.Status != OrderStatusCompleted
}

// ProductRef is the subset of product data the platform embeds on line items.
type ProductRef struct {
	ID          string `json:"ID"`
	Name        string `json:"Name"`
	Description string `json:"Description,omitempty"`
}

type LineItem struct {
	ID        string          `json:"ID"`
	ProductID string          `json:"ProductID"`
	Product   ProductRef      `json:"Product"`
	Quantity  int             `json:"Quantity"`
	UnitPrice decimal.Decimal `json:"UnitPrice"`
	LineTotal decimal.Decimal `json:"LineTotal"`
}

// Address belongs to the authenticated user, independent of any order. The
// Shipping/Billing flags gate which checkout roles it may take.
type Address struct {
	ID          string `json:"ID,omitempty"`
	AddressName string `json:"AddressName"`
	CompanyName string `json:"CompanyName,omitempty"`
	Street1     string `json:"Street1"`
	Street2     string `json:"Street2,omitempty"`
	City        string `json:"City"`
	State       string `json:"State"`
	Zip         string `json:"Zip"`
	Country     string `json:"Country"`
	Phone       string `json:"Phone,omitempty"`
	Shipping    bool   `json:"Shipping"`
	Billing     bool   `json:"Billing"`
}

type Promotion struct {
	ID          string          `json:"ID"`
	Code        string          `json:"Code"`
	Name        string          `json:"Name,omitempty"`
	Description string          `json:"Description,omitempty"`
	Amount      decimal.Decimal `json:"Amount"`
}

type Payment struct {
	ID          string          `json:"ID"`
	Type        string          `json:"Type"`
	Amount      decimal.Decimal `json:"Amount"`
	Accepted    bool            `json:"Accepted"`
	DateCreated *time.Time      `json:"DateCreated,omitempty"`
}

type Product struct {
	ID          string `json:"ID"`
	Name        string `json:"Name"`
	Description string `json:"Description,omitempty"`
}

type MeUser struct {
	ID        string `json:"ID"`
	Username  string `json:"Username"`
	FirstName string `json:"FirstName,omitempty"`
	LastName  string `json:"LastName,omitempty"`
	Email     string `json:"Email,omitempty"`
	Phone     string `json:"Phone,omitempty"`
	CompanyID string `json:"CompanyID,omitempty"`
}

// Token is the oauth grant response.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// listEnvelope is the platform's list response shape.
type listEnvelope[T any] struct {
	Items []T      `json:"Items"`
	Meta  ListMeta `json:"Meta"`
}

type ListMeta struct {
	Page       int `json:"Page,omitempty"`
	PageSize   int `json:"PageSize,omitempty"`
	TotalCount int `json:"TotalCount,omitempty"`
}

// apiErrorEnvelope is the platform's error response shape; the first entry's
// Message is the preferred human-readable text.
type apiErrorEnvelope struct {
	Errors []apiError `json:"Errors"`
}

type apiError struct {
	ErrorCode string `json:"ErrorCode,omitempty"`
	Message   string `json:"Message,omitempty"`
}

func (e apiErrorEnvelope) firstMessage() string {
	for _, entry := range e.Errors {
		if entry.Message != "" {
			return entry.Message
		}
	}
	return ""
}
