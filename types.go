package portal

import "time"

// AccountInfo identifies the authenticated hospital administrator account.
type AccountInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// HospitalInfo describes the hospital the account administers.
type HospitalInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// LoginRequest is the login payload. Email is sanitized before sending.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// LoginResponse is returned on successful authentication.
type LoginResponse struct {
	Token    string       `json:"token"`
	Account  AccountInfo  `json:"account"`
	Hospital HospitalInfo `json:"hospital"`
}

// RegistrationRequest registers a new hospital.
type RegistrationRequest struct {
	HospitalName string `json:"hospital_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	City         string `json:"city"`
	Address      string `json:"address"`
	Password     string `json:"password"`
}

// ProfileResponse is the account+hospital profile.
type ProfileResponse struct {
	Account  AccountInfo  `json:"account"`
	Hospital HospitalInfo `json:"hospital"`
}

// UpdateProfileRequest updates the hospital profile. Zero-valued fields are
// left unchanged by the server.
type UpdateProfileRequest struct {
	Name    string `json:"name,omitempty"`
	City    string `json:"city,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Service is a bookable hospital service.
type Service struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	PriceCents      int64  `json:"price_cents"`
	DurationMinutes int    `json:"duration_minutes"`
	Active          bool   `json:"active"`
}

// ServiceRequest creates or updates a service.
type ServiceRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	PriceCents      int64  `json:"price_cents"`
	DurationMinutes int    `json:"duration_minutes"`
	Active          bool   `json:"active"`
}

// Schedule is the opening schedule for one weekday.
type Schedule struct {
	DayOfWeek   int    `json:"day_of_week"` // 0 = Sunday
	Opens       string `json:"opens"`       // "08:00"
	Closes      string `json:"closes"`      // "17:00"
	SlotMinutes int    `json:"slot_minutes"`
	Closed      bool   `json:"closed"`
}

// Reservation status values.
const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationCompleted = "completed"
	ReservationCancelled = "cancelled"
)

// Reservation is a patient booking.
type Reservation struct {
	ID           string    `json:"id"`
	PatientName  string    `json:"patient_name"`
	PatientPhone string    `json:"patient_phone"`
	ServiceID    string    `json:"service_id"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
}

// DashboardStats summarizes activity for the dashboard widgets.
type DashboardStats struct {
	HospitalID          string `json:"hospital_id"`
	TotalReservations   int    `json:"total_reservations"`
	PendingReservations int    `json:"pending_reservations"`
	CompletedToday      int    `json:"completed_today"`
	ActiveServices      int    `json:"active_services"`
}

// Document is an uploaded hospital document (license, certificate).
type Document struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// apiErrorPayload is the error body contract consumed from non-2xx JSON
// responses.
type apiErrorPayload struct {
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}
