// Package portal is the client SDK for the Shifa hospital administration
// dashboard API. It wires the security layer — encrypted token storage,
// CSRF token lifecycle, attempt rate limiting, input sanitization — into an
// HTTP client with typed errors, per-request timeouts, and forced
// re-authentication on 401 responses.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/shifahealth/portal-go/instrumentation"
	"github.com/shifahealth/portal-go/security"
	"github.com/shifahealth/portal-go/session"
	"github.com/shifahealth/portal-go/storage/memory"
	"github.com/shifahealth/portal-go/storage/sqlitestore"
)

// maxErrorBodyBytes caps how much of an error response body is read when
// looking for a JSON error payload.
const maxErrorBodyBytes = 1 << 20

// mutatingMethods are the state-changing HTTP methods that must carry the
// CSRF token.
var mutatingMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Client is the dashboard API client. Construct it once at application
// start with New and share it; all methods are safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger

	tokens *session.Manager
	csrf   *security.CSRFGuard

	loginLimiter        *security.AttemptLimiter
	registrationLimiter *security.AttemptLimiter
	resetLimiter        *security.AttemptLimiter

	pacer   *rate.Limiter
	auditor *security.Auditor
	inst    *instrumentation.Instrumentation

	mu                      sync.Mutex
	sessionExpiredListeners []func()
}

// reqOptions tweaks how one request is issued.
type reqOptions struct {
	// noSessionTeardown leaves the stored token alone on a 401. Used by
	// the auth endpoints themselves, where 401 means bad credentials
	// rather than an expired session.
	noSessionTeardown bool

	// contentType overrides the Content-Type header (multipart uploads).
	contentType string

	// rawBody is sent as-is instead of JSON-marshaling a payload.
	rawBody io.Reader
}

// New creates a client from config.
//
// A missing encryption key is a hard error unless
// Security.AllowInsecureDevKey is set, in which case an insecure
// development key is derived and a warning is logged.
func New(cfg Config) (*Client, error) {
	if cfg.API.BaseURL == "" {
		return nil, errors.New("portal: API.BaseURL is required")
	}
	baseURL, err := url.Parse(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("portal: invalid API.BaseURL: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	key, warning, err := cfg.Security.encryptionKey()
	if err != nil {
		return nil, err
	}
	if warning != "" {
		logger.Warn(warning)
	}
	encryptor, err := security.NewEncryptor(key)
	if err != nil {
		return nil, err
	}

	sessionScope := cfg.SessionStore
	if sessionScope == nil {
		sessionScope = memory.New()
	}
	persistentScope := cfg.PersistentStore
	if persistentScope == nil {
		if cfg.Storage.Path != "" {
			store, err := sqlitestore.Open(cfg.Storage.Path)
			if err != nil {
				return nil, err
			}
			persistentScope = store
		} else {
			logger.Debug("No persistent storage path configured, remember-me will not survive restarts")
			persistentScope = memory.New()
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	timeout := cfg.API.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	inst := cfg.Instrumentation
	if inst == nil {
		inst = instrumentation.Disabled()
	}

	var pacer *rate.Limiter
	if cfg.API.RequestsPerSecond > 0 {
		burst := cfg.API.Burst
		if burst <= 0 {
			burst = 1
		}
		pacer = rate.NewLimiter(rate.Limit(cfg.API.RequestsPerSecond), burst)
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		timeout:    timeout,
		logger:     logger,
		tokens:     session.NewManager(sessionScope, persistentScope, encryptor, logger),
		csrf:       security.NewCSRFGuard(),
		loginLimiter: limiterOrDefault(cfg.RateLimit.LoginMaxAttempts, cfg.RateLimit.LoginWindow,
			security.DefaultLoginMaxAttempts, security.DefaultLoginWindow, logger),
		registrationLimiter: limiterOrDefault(cfg.RateLimit.RegistrationMaxAttempts, cfg.RateLimit.RegistrationWindow,
			security.DefaultRegistrationMaxAttempts, security.DefaultRegistrationWindow, logger),
		resetLimiter: limiterOrDefault(cfg.RateLimit.PasswordResetMaxAttempts, cfg.RateLimit.PasswordResetWindow,
			security.DefaultPasswordResetMaxAttempts, security.DefaultPasswordResetWindow, logger),
		pacer:   pacer,
		auditor: security.NewAuditor(logger, cfg.Security.EnableAuditLogging),
		inst:    inst,
	}

	c.tokens.OnTokenDiscarded = func(reason string) {
		c.auditor.LogTokenDiscarded(reason)
		c.inst.Metrics().DecryptionFailures.Add(context.Background(), 1)
	}

	if cfg.OnSessionExpired != nil {
		c.sessionExpiredListeners = append(c.sessionExpiredListeners, cfg.OnSessionExpired)
	}

	return c, nil
}

// limiterOrDefault builds an attempt limiter from config values, falling
// back to the policy defaults when unset.
func limiterOrDefault(max int, window time.Duration, defMax int, defWindow time.Duration, logger *slog.Logger) *security.AttemptLimiter {
	if max <= 0 {
		max = defMax
	}
	if window <= 0 {
		window = defWindow
	}
	return security.NewAttemptLimiter(max, window, logger)
}

// Tokens exposes the session manager (token, profile cache, theme).
func (c *Client) Tokens() *session.Manager {
	return c.tokens
}

// CSRF exposes the CSRF guard, mainly for inspection in tests and for
// embedding the token in non-API form posts.
func (c *Client) CSRF() *security.CSRFGuard {
	return c.csrf
}

// IsAuthenticated reports whether a valid token is stored.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	return c.tokens.HasToken(ctx)
}

// OnSessionExpired registers a listener invoked after a 401 response has
// torn down the local session.
func (c *Client) OnSessionExpired(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionExpiredListeners = append(c.sessionExpiredListeners, fn)
}

// do issues one JSON API request: marshals payload (when non-nil), attaches
// auth and CSRF headers, enforces the request timeout, maps failures to the
// typed error taxonomy, and decodes a 2xx body into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	return c.doWithOptions(ctx, method, path, payload, out, reqOptions{})
}

func (c *Client) doWithOptions(ctx context.Context, method, path string, payload, out any, opts reqOptions) error {
	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			return err
		}
	}

	start := time.Now()
	ctx, span := c.inst.Tracer().Start(ctx, "portal.request",
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("portal.path", path),
		))
	defer span.End()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	contentType := ""
	switch {
	case opts.rawBody != nil:
		body = opts.rawBody
		contentType = opts.contentType
	case payload != nil:
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(reqCtx, method, c.endpoint(path), body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		c.inst.Metrics().EncryptionOperations.Add(ctx, 1) // token decrypt
	}
	if mutatingMethods[method] {
		req.Header.Set("X-CSRF-Token", c.csrf.Token())
	}

	resp, err := c.httpClient.Do(req)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.Int("http.status_code", status),
	)
	c.inst.Metrics().RequestsTotal.Add(ctx, 1, attrs)
	c.inst.Metrics().RequestDuration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)

	if err != nil {
		mapped := c.mapTransportError(ctx, err)
		span.SetStatus(codes.Error, mapped.Error())
		return mapped
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusUnauthorized && !opts.noSessionTeardown {
		c.expireSession(ctx, path)
		span.SetStatus(codes.Error, "session expired")
		return &SessionExpiredError{}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := c.decodeError(resp)
		span.SetStatus(codes.Error, apiErr.Error())
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	} else {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))
	}
	return nil
}

// mapTransportError converts a transport-level failure into the typed
// taxonomy: deadline overruns become TimeoutError, caller cancellation is
// passed through, everything else is a NetworkError.
func (c *Client) mapTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Timeout: c.timeout}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &NetworkError{Err: err}
}

// decodeError builds an APIError from a non-2xx response, preferring the
// JSON {message, code} payload and falling back to a status-keyed message.
// Server-supplied messages pass through SanitizeText before anyone can
// render them.
func (c *Client) decodeError(resp *http.Response) *APIError {
	fallbackCode, fallbackMessage := statusMessage(resp.StatusCode)
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Code:    fallbackCode,
		Message: fallbackMessage,
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return apiErr
	}

	var payload apiErrorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apiErr
	}
	if payload.Message != "" {
		apiErr.Message = security.SanitizeText(payload.Message)
	}
	if payload.Code != "" {
		apiErr.Code = payload.Code
	}
	return apiErr
}

// expireSession tears down all local session state after a 401 and
// notifies the registered listeners.
func (c *Client) expireSession(ctx context.Context, path string) {
	if err := c.tokens.RemoveToken(ctx); err != nil {
		c.logger.Error("Failed to remove token after 401", "error", err)
	}
	if err := c.tokens.ClearProfile(ctx); err != nil {
		c.logger.Error("Failed to clear cached profile after 401", "error", err)
	}
	c.csrf.Clear()

	c.auditor.LogSessionExpired(path)
	c.inst.Metrics().SessionExpiries.Add(ctx, 1)

	c.mu.Lock()
	listeners := make([]func(), len(c.sessionExpiredListeners))
	copy(listeners, c.sessionExpiredListeners)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// endpoint joins the base URL with an API path.
func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.baseURL.String(), "/") + path
}

// isNetworkFailure reports whether err is a connectivity failure or
// timeout, the two conditions the soft-fail listing helpers absorb.
func isNetworkFailure(err error) bool {
	var netErr *NetworkError
	var timeoutErr *TimeoutError
	return errors.As(err, &netErr) || errors.As(err, &timeoutErr)
}
