package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-client/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/metrics"
)

var (
	errBaseURLRequired  = errors.New("storefront base url is required")
	errClientIDRequired = errors.New("storefront client id is required")
	errLoggerRequired   = errors.New("storefront logger is required")
)

// TokenSource supplies the bearer credential for authenticated calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource holding a fixed credential.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

// Client exposes the commerce platform's REST resources with centralized
// auth, logging, request ids, and error mapping.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	buyerID      string
	httpClient   *http.Client
	tokens       TokenSource
	logger       *logger.Logger
	metrics      *metrics.StorefrontMetrics
}

// NewClient initializes the platform client and validates the tenant config.
func NewClient(cfg config.APIConfig, tokens TokenSource, logg *logger.Logger, m *metrics.StorefrontMetrics) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := cfg.NormalizedBaseURL()
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil, errClientIDRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		buyerID:      strings.TrimSpace(cfg.BuyerID),
		httpClient:   &http.Client{Timeout: timeout},
		tokens:       tokens,
		logger:       logg,
		metrics:      m,
	}, nil
}

// WithBearer returns a copy of the client pinned to a fixed credential,
// bypassing the configured token source. Used for anonymous-catalog and
// dev-signup calls that run outside the stored session.
func (c *Client) WithBearer(token string) *Client {
	clone := *c
	clone.tokens = StaticToken(token)
	return &clone
}

// BuyerID reports the configured buyer organization for dev signup.
func (c *Client) BuyerID() string {
	if c == nil {
		return ""
	}
	return c.buyerID
}

func (c *Client) bearer(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "no credential source configured")
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "loading bearer token")
	}
	if strings.TrimSpace(token) == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "no bearer token stored")
	}
	return token, nil
}

// do executes one JSON round trip against the platform. out may be nil for
// operations whose response body is discarded.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	token, err := c.bearer(ctx)
	if err != nil {
		c.countError(op, err)
		return err
	}

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("encoding %s request", op))
		}
		payload = bytes.NewReader(raw)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("building %s request", op))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log(ctx, "request", op, map[string]any{"method": method, "path": path})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveRequest(op, time.Since(start))
	if err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("platform %s failed", op))
		c.countError(op, wrapped)
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		return wrapped
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("reading %s response", op))
		c.countError(op, wrapped)
		return wrapped
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := c.mapAPIError(op, resp.StatusCode, raw)
		c.countError(op, apiErr)
		c.log(ctx, "error", op, map[string]any{"status": resp.StatusCode, "error": apiErr.Error()})
		return apiErr
	}

	c.log(ctx, "response", op, map[string]any{"status": resp.StatusCode})

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decoding %s response", op))
	}
	return nil
}

// mapAPIError folds the platform's error envelope into the domain taxonomy,
// preferring the first server-provided message.
func (c *Client) mapAPIError(op string, status int, raw []byte) error {
	code := domainCodeForStatus(status)

	var envelope apiErrorEnvelope
	message := ""
	if err := json.Unmarshal(raw, &envelope); err == nil {
		message = envelope.firstMessage()
	}
	if message == "" {
		message = fmt.Sprintf("platform %s failed with status %d", op, status)
	}

	typed := pkgerrors.New(code, message)
	if len(envelope.Errors) > 0 {
		typed = typed.WithDetails(envelope.Errors)
	}
	return typed
}

func (c *Client) countError(op string, err error) {
	c.metrics.IncRequestError(op, string(pkgerrors.CodeOf(err)))
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Warn(ctx, fmt.Sprintf("platform %s", op))
	default:
		c.logger.Debug(ctx, fmt.Sprintf("platform %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"password", "token", "secret", "authorization", "email", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

// IsNotFound reports whether the error is the platform's not-found condition.
func IsNotFound(err error) bool {
	return pkgerrors.CodeOf(err) == pkgerrors.CodeNotFound
}
