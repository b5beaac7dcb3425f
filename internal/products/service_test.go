package products

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/storefront"
)

type stubAPI struct {
	products []storefront.Product
	err      error
	calls    int
}

func (s *stubAPI) ListMyProducts(context.Context) ([]storefront.Product, error) {
	s.calls++
	return s.products, s.err
}

func (s *stubAPI) GetMyProduct(_ context.Context, productID string) (*storefront.Product, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.products {
		if p.ID == productID {
			return &p, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
}

type stubMinter struct {
	token string
	err   error
	calls int
}

func (s *stubMinter) AnonymousToken(context.Context) (string, error) {
	s.calls++
	return s.token, s.err
}

func catalog() []storefront.Product {
	return []storefront.Product{
		{ID: "p-1", Name: "Widget"},
		{ID: "p-2", Name: "Gadget"},
	}
}

func newTestService(t *testing.T, api API, minter TokenMinter, anonymous AnonymousFactory) *Service {
	t.Helper()
	svc, err := NewService(api, minter, anonymous, logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled}))
	require.NoError(t, err)
	return svc
}

func TestListWithSessionToken(t *testing.T) {
	t.Parallel()

	api := &stubAPI{products: catalog()}
	minter := &stubMinter{token: "anon"}
	svc := newTestService(t, api, minter, func(string) API { return api })

	products, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Zero(t, minter.calls)
}

func TestListFallsBackToAnonymous(t *testing.T) {
	t.Parallel()

	session := &stubAPI{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "no bearer token stored")}
	anonymous := &stubAPI{products: catalog()}
	minter := &stubMinter{token: "anon-tok"}

	var gotToken string
	svc := newTestService(t, session, minter, func(token string) API {
		gotToken = token
		return anonymous
	})

	products, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, "anon-tok", gotToken)
	assert.Equal(t, 1, minter.calls)
}

func TestListDoesNotFallBackOnOtherErrors(t *testing.T) {
	t.Parallel()

	session := &stubAPI{err: pkgerrors.New(pkgerrors.CodeDependency, "platform down")}
	minter := &stubMinter{token: "anon"}
	svc := newTestService(t, session, minter, func(string) API { return &stubAPI{} })

	_, err := svc.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
	assert.Zero(t, minter.calls)
}

func TestGetAnonymousFallback(t *testing.T) {
	t.Parallel()

	session := &stubAPI{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "no bearer token stored")}
	anonymous := &stubAPI{products: catalog()}
	svc := newTestService(t, session, &stubMinter{token: "anon"}, func(string) API { return anonymous })

	product, err := svc.Get(context.Background(), "p-2")
	require.NoError(t, err)
	assert.Equal(t, "Gadget", product.Name)

	_, err = svc.Get(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
