// Package store persists conversation, diagnostic, and appointment records.
// The pipeline treats the sink as fire-and-forget: save failures are logged,
// never propagated.
package store

import (
	"context"
	"time"
)

// Message is one conversation entry for a vehicle.
type Message struct {
	ID        int64          `json:"id"`
	VehicleID string         `json:"vehicle_id"`
	Role      string         `json:"role"`
	Body      string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"timestamp"`
}

// DiagnosticRecord is one persisted diagnosis. ReportJSON carries the full
// report; the store does not interpret it.
type DiagnosticRecord struct {
	ID         int64     `json:"id"`
	VehicleID  string    `json:"vehicle_id"`
	Severity   string    `json:"severity"`
	Issues     []string  `json:"issues"`
	ReportJSON []byte    `json:"diagnosis_report,omitempty"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"timestamp"`
}

// Appointment is one scheduled service visit.
type Appointment struct {
	ID          int64     `json:"id"`
	VehicleID   string    `json:"vehicle_id"`
	OwnerEmail  string    `json:"owner_email"`
	Date        string    `json:"appointment_date"`
	ServiceType string    `json:"service_type"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Stats summarizes the sink contents.
type Stats struct {
	TotalMessages       int `json:"total_messages"`
	TotalDiagnostics    int `json:"total_diagnostics"`
	TotalAppointments   int `json:"total_appointments"`
	CriticalDiagnostics int `json:"critical_diagnostics"`
}

// Sink is the persistence surface the pipeline and HTTP handlers write to.
type Sink interface {
	SaveMessage(ctx context.Context, m Message) error
	SaveDiagnostic(ctx context.Context, d DiagnosticRecord) error
	SaveAppointment(ctx context.Context, a Appointment) (int64, error)
	UpdateAppointmentStatus(ctx context.Context, id int64, status string) error

	ConversationHistory(ctx context.Context, vehicleID string, limit int) ([]Message, error)
	DiagnosticHistory(ctx context.Context, vehicleID string, limit int) ([]DiagnosticRecord, error)
	Appointments(ctx context.Context, vehicleID string) ([]Appointment, error)
	Statistics(ctx context.Context) (Stats, error)
}
