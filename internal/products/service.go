// Package products serves the catalog, with or without a logged-in session.
package products

import (
	"context"
	"fmt"

	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/storefront"
)

// API is the slice of the platform client this service consumes.
type API interface {
	ListMyProducts(ctx context.Context) ([]storefront.Product, error)
	GetMyProduct(ctx context.Context, productID string) (*storefront.Product, error)
}

// TokenMinter issues short-lived anonymous tokens for unauthenticated
// browsing.
type TokenMinter interface {
	AnonymousToken(ctx context.Context) (string, error)
}

// AnonymousFactory builds a catalog client pinned to the given token.
type AnonymousFactory func(token string) API

// Service reads the catalog with the stored session token, and falls back to
// an anonymous token when no session exists so browsing works before login.
type Service struct {
	api       API
	minter    TokenMinter
	anonymous AnonymousFactory
	logger    *logger.Logger
}

func NewService(api API, minter TokenMinter, anonymous AnonymousFactory, logg *logger.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("platform api required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{api: api, minter: minter, anonymous: anonymous, logger: logg}, nil
}

func (s *Service) List(ctx context.Context) ([]storefront.Product, error) {
	products, err := s.api.ListMyProducts(ctx)
	if err == nil {
		return products, nil
	}
	api, ferr := s.fallback(ctx, err)
	if ferr != nil {
		return nil, ferr
	}
	return api.ListMyProducts(ctx)
}

func (s *Service) Get(ctx context.Context, productID string) (*storefront.Product, error) {
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.api.GetMyProduct(ctx, productID)
	if err == nil {
		return product, nil
	}
	api, ferr := s.fallback(ctx, err)
	if ferr != nil {
		return nil, ferr
	}
	return api.GetMyProduct(ctx, productID)
}

// fallback trades an unauthorized session read for an anonymous client. Any
// other failure, or a missing minter, returns the original error.
func (s *Service) fallback(ctx context.Context, err error) (API, error) {
	if pkgerrors.CodeOf(err) != pkgerrors.CodeUnauthorized || s.minter == nil || s.anonymous == nil {
		return nil, err
	}
	token, mintErr := s.minter.AnonymousToken(ctx)
	if mintErr != nil {
		return nil, mintErr
	}
	s.logger.Info(ctx, "browsing catalog anonymously")
	return s.anonymous(token), nil
}
