// Package auth exchanges user credentials for bearer tokens and manages the
// stored session identity.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-client/internal/session"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/storefront"
)

// API is the slice of the platform client this service consumes.
type API interface {
	PasswordGrant(ctx context.Context, username, password string) (*storefront.Token, error)
	ClientCredentialsGrant(ctx context.Context) (*storefront.Token, error)
	Me(ctx context.Context) (*storefront.MeUser, error)
	UpdateMe(ctx context.Context, patch storefront.MeUserPatch) (*storefront.MeUser, error)
}

// SignupAPI creates buyer users; it runs under a client-credentials token,
// never the stored session.
type SignupAPI interface {
	CreateBuyerUser(ctx context.Context, input storefront.BuyerUserInput) (*storefront.MeUser, error)
}

// SignupClientFactory builds a signup-capable client pinned to the given token.
type SignupClientFactory func(token string) SignupAPI

// Service owns login, logout, profile and the dev-only signup flow.
type Service struct {
	api          API
	store        session.Store
	logger       *logger.Logger
	signupClient SignupClientFactory
}

type ServiceParams struct {
	API          API
	Store        session.Store
	Logger       *logger.Logger
	SignupClient SignupClientFactory
}

func NewService(params ServiceParams) (*Service, error) {
	if params.API == nil {
		return nil, fmt.Errorf("platform api required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		api:          params.API,
		store:        params.Store,
		logger:       params.Logger,
		signupClient: params.SignupClient,
	}, nil
}

// Login performs the password grant and stores the resulting token.
func (s *Service) Login(ctx context.Context, username, password string) error {
	token, err := s.api.PasswordGrant(ctx, username, password)
	if err != nil {
		return err
	}
	if err := s.store.SetToken(ctx, token.AccessToken); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing bearer token")
	}
	s.logger.Info(s.logger.WithUserID(ctx, username), "login successful")
	return nil
}

// Logout clears the stored credential and the active-order pointer. Both
// clears are attempted even when one fails.
func (s *Service) Logout(ctx context.Context) error {
	err := multierr.Combine(
		s.store.ClearToken(ctx),
		s.store.ClearActiveOrderID(ctx),
	)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing session state")
	}
	s.logger.Info(ctx, "session cleared")
	return nil
}

// CurrentUser fetches the authenticated identity.
func (s *Service) CurrentUser(ctx context.Context) (*storefront.MeUser, error) {
	return s.api.Me(ctx)
}

// UpdateProfile patches the current user's profile fields.
func (s *Service) UpdateProfile(ctx context.Context, patch storefront.MeUserPatch) (*storefront.MeUser, error) {
	return s.api.UpdateMe(ctx, patch)
}

// AnonymousToken obtains a client-credentials token for unauthenticated
// catalog browsing. The token is not stored.
func (s *Service) AnonymousToken(ctx context.Context) (string, error) {
	token, err := s.api.ClientCredentialsGrant(ctx)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// SignupInput captures the dev-only registration form.
type SignupInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
}

// Signup creates a buyer user with a client-credentials token. Development
// and testing only.
func (s *Service) Signup(ctx context.Context, input SignupInput) (*storefront.MeUser, error) {
	if s.signupClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "signup not configured")
	}
	token, err := s.api.ClientCredentialsGrant(ctx)
	if err != nil {
		return nil, err
	}
	return s.signupClient(token.AccessToken).CreateBuyerUser(ctx, storefront.BuyerUserInput{
		Username:  input.Username,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Active:    true,
	})
}

// TokenOwner extracts the username/subject claim from a bearer token without
// verifying its signature. The claim is advisory, used to name the session
// owner when the platform is unreachable. Authorization stays entirely
// server-side.
func TokenOwner(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "no bearer token stored")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "parsing bearer token")
	}
	if usr, ok := claims["usr"].(string); ok && usr != "" {
		return usr, nil
	}
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "bearer token carries no owner claim")
}
