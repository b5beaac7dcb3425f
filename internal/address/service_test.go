package address

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
	created   *storefront.Address
	calls     int
	deletedID string
}

func (s *stubAPI) ListMyAddresses(context.Context) ([]storefront.Address, error) {
	s.calls++
	return nil, nil
}

func (s *stubAPI) CreateMyAddress(_ context.Context, address storefront.Address) (*storefront.Address, error) {
	s.calls++
	address.ID = "addr-1"
	s.created = &address
	return &address, nil
}

func (s *stubAPI) UpdateMyAddress(_ context.Context, addressID string, address storefront.Address) (*storefront.Address, error) {
	s.calls++
	address.ID = addressID
	return &address, nil
}

func (s *stubAPI) DeleteMyAddress(_ context.Context, addressID string) error {
	s.calls++
	s.deletedID = addressID
	return nil
}

func newTestService(t *testing.T, api API) *Service {
	t.Helper()
	svc, err := NewService(api, logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled}))
	require.NoError(t, err)
	return svc
}

func validInput() Input {
	return Input{
		AddressName: "Home",
		Street1:     "1 Main St",
		City:        "Springfield",
		State:       "IL",
		Zip:         "62701",
		Country:     "US",
		Shipping:    true,
		Billing:     true,
	}
}

func TestCreateValidAddress(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	svc := newTestService(t, api)

	address, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "addr-1", address.ID)
	assert.True(t, api.created.Shipping)
	assert.True(t, api.created.Billing)
}

func TestCreateRejectsMissingFieldsBeforeNetwork(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	svc := newTestService(t, api)

	input := validInput()
	input.Street1 = ""

	_, err := svc.Create(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "Street1")
	assert.Zero(t, api.calls)
}

func TestCreateRejectsBadCountryCode(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	svc := newTestService(t, api)

	input := validInput()
	input.Country = "USA"

	_, err := svc.Create(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Zero(t, api.calls)
}

func TestCreateRequiresCapability(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	svc := newTestService(t, api)

	input := validInput()
	input.Shipping = false
	input.Billing = false

	_, err := svc.Create(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "shipping, billing")
	assert.Zero(t, api.calls)
}

func TestUpdateRequiresID(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	svc := newTestService(t, api)

	_, err := svc.Update(context.Background(), "", validInput())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Zero(t, api.calls)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	svc := newTestService(t, api)

	require.NoError(t, svc.Delete(context.Background(), "addr-1"))
	assert.Equal(t, "addr-1", api.deletedID)

	err := svc.Delete(context.Background(), "")
	require.Error(t, err)
}
