package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
)

// oauthErrorEnvelope is the token endpoint's failure shape; it does not use
// the platform's regular Errors list.
type oauthErrorEnvelope struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// PasswordGrant exchanges user credentials for a bearer token. The client
// secret is appended only when configured, matching confidential clients.
func (c *Client) PasswordGrant(ctx context.Context, username, password string) (*Token, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", c.clientID)
	form.Set("username", username)
	form.Set("password", password)
	if c.clientSecret != "" {
		form.Set("client_secret", c.clientSecret)
	}

	return c.requestToken(ctx, "token.password", form)
}

// ClientCredentialsGrant obtains an application token. Used for anonymous
// catalog browsing and the development-only signup flow.
func (c *Client) ClientCredentialsGrant(ctx context.Context) (*Token, error) {
	if c.clientSecret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client secret not configured, client-credentials grant unavailable")
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	return c.requestToken(ctx, "token.client_credentials", form)
}

func (c *Client) requestToken(ctx context.Context, op string, form url.Values) (*Token, error) {
	endpoint := c.baseURL + "/oauth/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	c.log(ctx, "request", op, map[string]any{"grant_type": form.Get("grant_type")})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveRequest(op, time.Since(start))
	if err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "token request failed")
		c.countError(op, wrapped)
		return nil, wrapped
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading token response")
		c.countError(op, wrapped)
		return nil, wrapped
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		typed := mapOAuthError(resp.StatusCode, raw)
		c.countError(op, typed)
		c.log(ctx, "error", op, map[string]any{"status": resp.StatusCode, "error": typed.Error()})
		return nil, typed
	}

	var token Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding token response")
	}
	if token.AccessToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "token response missing access_token")
	}

	c.log(ctx, "response", op, map[string]any{"status": resp.StatusCode})
	return &token, nil
}

func mapOAuthError(status int, raw []byte) error {
	var envelope oauthErrorEnvelope
	message := ""
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.ErrorDescription != "" {
			message = envelope.ErrorDescription
		} else {
			message = envelope.Error
		}
	}
	if message == "" {
		message = fmt.Sprintf("token request failed with status %d", status)
	}
	code := pkgerrors.CodeUnauthorized
	if status >= 500 {
		code = pkgerrors.CodeDependency
	}
	return pkgerrors.New(code, message)
}
