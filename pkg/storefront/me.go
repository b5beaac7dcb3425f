package storefront

import (
	"context"
	"net/http"
)

// MeUserPatch carries profile fields the user may edit.
type MeUserPatch struct {
	FirstName *string `json:"FirstName,omitempty"`
	LastName  *string `json:"LastName,omitempty"`
	Email     *string `json:"Email,omitempty"`
	Phone     *string `json:"Phone,omitempty"`
}

func (c *Client) Me(ctx context.Context) (*MeUser, error) {
	var user MeUser
	if err := c.do(ctx, "me.get", http.MethodGet, "/v1/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateMe(ctx context.Context, patch MeUserPatch) (*MeUser, error) {
	var user MeUser
	if err := c.do(ctx, "me.update", http.MethodPatch, "/v1/me", nil, patch, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListMyAddresses(ctx context.Context) ([]Address, error) {
	var envelope listEnvelope[Address]
	if err := c.do(ctx, "address.list", http.MethodGet, "/v1/me/addresses", nil, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Items, nil
}

func (c *Client) CreateMyAddress(ctx context.Context, address Address) (*Address, error) {
	var created Address
	if err := c.do(ctx, "address.create", http.MethodPost, "/v1/me/addresses", nil, address, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateMyAddress(ctx context.Context, addressID string, address Address) (*Address, error) {
	if err := requireID("address id", addressID); err != nil {
		return nil, err
	}
	var updated Address
	if err := c.do(ctx, "address.update", http.MethodPatch, "/v1/me/addresses/"+addressID, nil, address, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteMyAddress(ctx context.Context, addressID string) error {
	if err := requireID("address id", addressID); err != nil {
		return err
	}
	return c.do(ctx, "address.delete", http.MethodDelete, "/v1/me/addresses/"+addressID, nil, nil, nil)
}

func (c *Client) ListMyProducts(ctx context.Context) ([]Product, error) {
	var envelope listEnvelope[Product]
	if err := c.do(ctx, "product.list", http.MethodGet, "/v1/me/products", nil, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Items, nil
}

func (c *Client) GetMyProduct(ctx context.Context, productID string) (*Product, error) {
	if err := requireID("product id", productID); err != nil {
		return nil, err
	}
	var product Product
	if err := c.do(ctx, "product.get", http.MethodGet, "/v1/me/products/"+productID, nil, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}
