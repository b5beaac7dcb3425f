package storefront

import (
	"context"
	"net/http"

	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
)

// BuyerUserInput creates a user under the configured buyer organization.
// Development/testing only: the call rides a client-credentials token, never
// a user session.
type BuyerUserInput struct {
	Username  string `json:"Username"`
	Password  string `json:"Password"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
	Email     string `json:"Email"`
	Active    bool   `json:"Active"`
}

func (c *Client) CreateBuyerUser(ctx context.Context, input BuyerUserInput) (*MeUser, error) {
	if c.buyerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id not configured, signup unavailable")
	}
	if input.Username == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}
	var user MeUser
	if err := c.do(ctx, "buyer_user.create", http.MethodPost, "/v1/buyers/"+c.buyerID+"/users", nil, input, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
