package portal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/shifahealth/portal-go/security"
	"github.com/shifahealth/portal-go/session"
	"github.com/shifahealth/portal-go/storage"
)

// Login authenticates the hospital account. The email is sanitized and
// used as the rate-limit key; a blocked attempt fails with RateLimitError
// before any network I/O. On success the attempt history is reset, the
// token is stored encrypted in the scope chosen by remember, a fresh CSRF
// token marks the new session boundary, and the profile blob is cached.
func (c *Client) Login(ctx context.Context, email, password string, remember bool) (*LoginResponse, error) {
	key := security.SanitizeEmail(email)

	if !c.loginLimiter.Allow(key) {
		retry := c.loginLimiter.RetryAfter(key)
		c.auditor.LogRateLimitExceeded("login", key, retry)
		c.inst.Metrics().RateLimitBlocks.Add(ctx, 1)
		return nil, &RateLimitError{Operation: "login", RetryAfter: retry}
	}
	c.inst.Metrics().LoginAttempts.Add(ctx, 1)

	var resp LoginResponse
	err := c.doWithOptions(ctx, http.MethodPost, "/auth/login",
		LoginRequest{Email: key, Password: password, Remember: remember},
		&resp, reqOptions{noSessionTeardown: true})
	if err != nil {
		c.auditor.LogLogin(key, false, remember)
		return nil, err
	}
	if resp.Token == "" {
		return nil, &APIError{
			Status:  http.StatusOK,
			Code:    ErrorCodeServerError,
			Message: "Login response carried no token",
		}
	}

	c.loginLimiter.Reset(key)

	if err := c.tokens.SetToken(ctx, resp.Token, remember); err != nil {
		return nil, err
	}
	c.inst.Metrics().EncryptionOperations.Add(ctx, 1) // token encrypt
	c.csrf.Generate()

	if err := c.tokens.SaveProfile(ctx, &session.Profile{
		AccountID:    resp.Account.ID,
		Email:        resp.Account.Email,
		Name:         resp.Account.Name,
		HospitalID:   resp.Hospital.ID,
		HospitalName: resp.Hospital.Name,
	}); err != nil {
		c.logger.Warn("Failed to cache profile after login", "error", err)
	}

	c.auditor.LogLogin(key, true, remember)
	return &resp, nil
}

// Register creates a new hospital account. Rate limited per sanitized
// email (3 attempts / 5 minutes by default). Phone and email are sanitized
// before leaving the client.
func (c *Client) Register(ctx context.Context, req RegistrationRequest) error {
	req.Email = security.SanitizeEmail(req.Email)
	req.Phone = security.SanitizePhone(req.Phone)

	if !c.registrationLimiter.Allow(req.Email) {
		retry := c.registrationLimiter.RetryAfter(req.Email)
		c.auditor.LogRateLimitExceeded("registration", req.Email, retry)
		c.inst.Metrics().RateLimitBlocks.Add(ctx, 1)
		return &RateLimitError{Operation: "registration", RetryAfter: retry}
	}

	err := c.doWithOptions(ctx, http.MethodPost, "/auth/register", req, nil,
		reqOptions{noSessionTeardown: true})
	if err != nil {
		return err
	}

	c.registrationLimiter.Reset(req.Email)
	return nil
}

// Logout posts the logout and unconditionally tears down local session
// state: token removed from both scopes, cached profile dropped, CSRF
// token cleared. A server-side 401 (session already gone) is not an error.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)

	if rmErr := c.tokens.RemoveToken(ctx); rmErr != nil {
		return rmErr
	}
	if clErr := c.tokens.ClearProfile(ctx); clErr != nil {
		return clErr
	}
	c.csrf.Clear()
	c.auditor.LogEvent(security.Event{Type: security.EventLogout})

	var expired *SessionExpiredError
	if errors.As(err, &expired) {
		return nil
	}
	return err
}

// RequestPasswordReset asks the server to send a reset link. Rate limited
// per sanitized email (3 attempts / 5 minutes by default).
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	key := security.SanitizeEmail(email)

	if !c.resetLimiter.Allow(key) {
		retry := c.resetLimiter.RetryAfter(key)
		c.auditor.LogRateLimitExceeded("password_reset", key, retry)
		c.inst.Metrics().RateLimitBlocks.Add(ctx, 1)
		return &RateLimitError{Operation: "password_reset", RetryAfter: retry}
	}

	return c.doWithOptions(ctx, http.MethodPost, "/auth/password-reset",
		map[string]string{"email": key}, nil, reqOptions{noSessionTeardown: true})
}

// Profile fetches the account+hospital profile and refreshes the cached
// copy used as a fallback identity source.
func (c *Client) Profile(ctx context.Context) (*ProfileResponse, error) {
	var resp ProfileResponse
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &resp); err != nil {
		return nil, err
	}

	if err := c.tokens.SaveProfile(ctx, &session.Profile{
		AccountID:    resp.Account.ID,
		Email:        resp.Account.Email,
		Name:         resp.Account.Name,
		HospitalID:   resp.Hospital.ID,
		HospitalName: resp.Hospital.Name,
	}); err != nil {
		c.logger.Warn("Failed to cache profile", "error", err)
	}
	return &resp, nil
}

// UpdateProfile updates the hospital profile.
func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*ProfileResponse, error) {
	var resp ProfileResponse
	if err := c.do(ctx, http.MethodPatch, "/profile", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListServices returns the hospital's services.
func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	var services []Service
	if err := c.do(ctx, http.MethodGet, "/services", nil, &services); err != nil {
		return nil, err
	}
	return services, nil
}

// ListServicesOr returns the hospital's services, or fallback when the
// network fails (connection error or timeout). Non-network failures still
// propagate. This soft-fail policy exists for non-critical dashboard
// widgets only; mutating operations never get a fallback.
func (c *Client) ListServicesOr(ctx context.Context, fallback []Service) ([]Service, error) {
	services, err := c.ListServices(ctx)
	if err != nil {
		if isNetworkFailure(err) {
			c.logger.Warn("Service listing unavailable, using fallback", "error", err)
			return fallback, nil
		}
		return nil, err
	}
	return services, nil
}

// CreateService creates a service.
func (c *Client) CreateService(ctx context.Context, req ServiceRequest) (*Service, error) {
	var service Service
	if err := c.do(ctx, http.MethodPost, "/services", req, &service); err != nil {
		return nil, err
	}
	return &service, nil
}

// UpdateService updates a service.
func (c *Client) UpdateService(ctx context.Context, id string, req ServiceRequest) (*Service, error) {
	var service Service
	if err := c.do(ctx, http.MethodPut, "/services/"+url.PathEscape(id), req, &service); err != nil {
		return nil, err
	}
	return &service, nil
}

// DeleteService deletes a service.
func (c *Client) DeleteService(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/services/"+url.PathEscape(id), nil, nil)
}

// ListSchedules returns the weekly opening schedule.
func (c *Client) ListSchedules(ctx context.Context) ([]Schedule, error) {
	var schedules []Schedule
	if err := c.do(ctx, http.MethodGet, "/schedules", nil, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

// ListSchedulesOr returns the weekly schedule, or fallback on network
// failure.
func (c *Client) ListSchedulesOr(ctx context.Context, fallback []Schedule) ([]Schedule, error) {
	schedules, err := c.ListSchedules(ctx)
	if err != nil {
		if isNetworkFailure(err) {
			c.logger.Warn("Schedule listing unavailable, using fallback", "error", err)
			return fallback, nil
		}
		return nil, err
	}
	return schedules, nil
}

// SetSchedule replaces the schedule for one weekday.
func (c *Client) SetSchedule(ctx context.Context, schedule Schedule) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/schedules/%d", schedule.DayOfWeek), schedule, nil)
}

// ListReservations returns reservations, optionally filtered by status.
func (c *Client) ListReservations(ctx context.Context, status string) ([]Reservation, error) {
	path := "/reservations"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var reservations []Reservation
	if err := c.do(ctx, http.MethodGet, path, nil, &reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

// ListReservationsOr returns reservations, or fallback on network failure.
func (c *Client) ListReservationsOr(ctx context.Context, status string, fallback []Reservation) ([]Reservation, error) {
	reservations, err := c.ListReservations(ctx, status)
	if err != nil {
		if isNetworkFailure(err) {
			c.logger.Warn("Reservation listing unavailable, using fallback", "error", err)
			return fallback, nil
		}
		return nil, err
	}
	return reservations, nil
}

// UpdateReservationStatus moves a reservation to a new status (pending,
// confirmed, completed, cancelled).
func (c *Client) UpdateReservationStatus(ctx context.Context, id, status string) (*Reservation, error) {
	var reservation Reservation
	err := c.do(ctx, http.MethodPatch, "/reservations/"+url.PathEscape(id)+"/status",
		map[string]string{"status": status}, &reservation)
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// DashboardStats returns the dashboard summary for the hospital. The
// hospital identity comes from the cached profile when available, saving a
// profile round-trip; a cache miss falls back to fetching the profile.
func (c *Client) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	hospitalID, err := c.hospitalID(ctx)
	if err != nil {
		return nil, err
	}

	var stats DashboardStats
	if err := c.do(ctx, http.MethodGet, "/hospitals/"+url.PathEscape(hospitalID)+"/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// DashboardStatsOr returns the dashboard summary, or fallback on network
// failure.
func (c *Client) DashboardStatsOr(ctx context.Context, fallback DashboardStats) (DashboardStats, error) {
	stats, err := c.DashboardStats(ctx)
	if err != nil {
		if isNetworkFailure(err) {
			c.logger.Warn("Dashboard stats unavailable, using fallback", "error", err)
			return fallback, nil
		}
		return fallback, err
	}
	return *stats, nil
}

// hospitalID resolves the hospital identity, preferring the cached profile
// blob over a network fetch.
func (c *Client) hospitalID(ctx context.Context) (string, error) {
	cached, err := c.tokens.Profile(ctx)
	if err == nil && cached.HospitalID != "" {
		return cached.HospitalID, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", err
	}

	profile, err := c.Profile(ctx)
	if err != nil {
		return "", err
	}
	return profile.Hospital.ID, nil
}

// UploadDocument uploads a hospital document (license, certificate) as
// multipart form data. The Content-Type is taken from the multipart
// writer, not forced to application/json.
func (c *Client) UploadDocument(ctx context.Context, field, filename string, r io.Reader) (*Document, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart field: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to copy upload payload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	var doc Document
	err = c.doWithOptions(ctx, http.MethodPost, "/documents", nil, &doc, reqOptions{
		rawBody:     &buf,
		contentType: w.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
