package store

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Sink used in tests and when no database is
// configured.
type Memory struct {
	mu           sync.Mutex
	messages     []Message
	diagnostics  []DiagnosticRecord
	appointments []Appointment
	nextID       int64
}

// NewMemory constructs an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{nextID: 1}
}

func (m *Memory) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *Memory) SaveMessage(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = m.id()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *Memory) SaveDiagnostic(_ context.Context, d DiagnosticRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = m.id()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	m.diagnostics = append(m.diagnostics, d)
	return nil
}

func (m *Memory) SaveAppointment(_ context.Context, a Appointment) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.id()
	if a.Status == "" {
		a.Status = "scheduled"
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	m.appointments = append(m.appointments, a)
	return a.ID, nil
}

func (m *Memory) UpdateAppointmentStatus(_ context.Context, id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.appointments {
		if m.appointments[i].ID == id {
			m.appointments[i].Status = status
			return nil
		}
	}
	return nil
}

func (m *Memory) ConversationHistory(_ context.Context, vehicleID string, limit int) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Message
	for _, msg := range m.messages {
		if msg.VehicleID == vehicleID {
			out = append(out, msg)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *Memory) DiagnosticHistory(_ context.Context, vehicleID string, limit int) ([]DiagnosticRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []DiagnosticRecord
	for _, d := range m.diagnostics {
		if d.VehicleID == vehicleID {
			out = append(out, d)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *Memory) Appointments(_ context.Context, vehicleID string) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.appointments {
		if vehicleID == "" || a.VehicleID == vehicleID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *Memory) Statistics(_ context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Stats{
		TotalMessages:     len(m.messages),
		TotalDiagnostics:  len(m.diagnostics),
		TotalAppointments: len(m.appointments),
	}
	for _, d := range m.diagnostics {
		if d.Severity == "Critical" {
			s.CriticalDiagnostics++
		}
	}
	return s, nil
}
