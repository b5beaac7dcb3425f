// Package address manages the user's saved addresses and enforces the
// capability rules checkout depends on.
package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/storefront"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// API is the slice of the platform client this service consumes.
type API interface {
	ListMyAddresses(ctx context.Context) ([]storefront.Address, error)
	CreateMyAddress(ctx context.Context, address storefront.Address) (*storefront.Address, error)
	UpdateMyAddress(ctx context.Context, addressID string, address storefront.Address) (*storefront.Address, error)
	DeleteMyAddress(ctx context.Context, addressID string) error
}

// Input is the address form. Every field the platform requires is validated
// locally so a bad form never costs a network round trip.
type Input struct {
	AddressName string `validate:"required,max=100"`
	CompanyName string `validate:"max=100"`
	Street1     string `validate:"required,max=100"`
	Street2     string `validate:"max=100"`
	City        string `validate:"required,max=100"`
	State       string `validate:"required,max=100"`
	Zip         string `validate:"required,max=20"`
	Country     string `validate:"required,len=2"`
	Phone       string `validate:"max=20"`
	Shipping    bool
	Billing     bool
}

type Service struct {
	api    API
	logger *logger.Logger
}

func NewService(api API, logg *logger.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("platform api required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{api: api, logger: logg}, nil
}

func (s *Service) List(ctx context.Context) ([]storefront.Address, error) {
	return s.api.ListMyAddresses(ctx)
}

// Create saves a new address after local validation.
func (s *Service) Create(ctx context.Context, input Input) (*storefront.Address, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	address, err := s.api.CreateMyAddress(ctx, toAddress(input))
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "address created")
	return address, nil
}

// Update replaces an existing address's fields.
func (s *Service) Update(ctx context.Context, addressID string, input Input) (*storefront.Address, error) {
	if addressID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	address, err := s.api.UpdateMyAddress(ctx, addressID, toAddress(input))
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "address updated")
	return address, nil
}

func (s *Service) Delete(ctx context.Context, addressID string) error {
	if addressID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	return s.api.DeleteMyAddress(ctx, addressID)
}

// validateInput runs field validation plus the capability rule: an address
// that can serve neither shipping nor billing is useless and the platform
// accepts it silently, so it is rejected here instead.
func validateInput(input Input) error {
	if err := validate.Struct(input); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			first := fields[0]
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("address field %s failed %s validation", first.Field(), first.Tag()))
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "address validation")
	}
	if !input.Shipping && !input.Billing {
		return pkgerrors.New(pkgerrors.CodeValidation, "address must allow shipping, billing, or both")
	}
	return nil
}

func toAddress(input Input) storefront.Address {
	return storefront.Address{
		AddressName: input.AddressName,
		CompanyName: input.CompanyName,
		Street1:     input.Street1,
		Street2:     input.Street2,
		City:        input.City,
		State:       input.State,
		Zip:         input.Zip,
		Country:     input.Country,
		Phone:       input.Phone,
		Shipping:    input.Shipping,
		Billing:     input.Billing,
	}
}
