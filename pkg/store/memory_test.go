package store

import (
	"context"
	"testing"
)

func TestMemoryConversationHistory(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := m.SaveMessage(ctx, Message{VehicleID: "V1", Role: "user", Body: "hi"}); err != nil {
			t.Fatal(err)
		}
	}
	_ = m.SaveMessage(ctx, Message{VehicleID: "V2", Role: "user", Body: "other vehicle"})

	all, err := m.ConversationHistory(ctx, "V1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 {
		t.Fatalf("got %d messages, want 5", len(all))
	}
	if all[0].ID == 0 || all[1].ID != all[0].ID+1 {
		t.Errorf("ids not sequential: %d, %d", all[0].ID, all[1].ID)
	}
	if all[0].CreatedAt.IsZero() {
		t.Error("created_at not stamped")
	}

	last, _ := m.ConversationHistory(ctx, "V1", 2)
	if len(last) != 2 || last[1].ID != all[4].ID {
		t.Errorf("limit must keep the most recent messages, got %+v", last)
	}
}

func TestMemoryAppointments(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.SaveAppointment(ctx, Appointment{VehicleID: "V1", Date: "2026-09-01", ServiceType: "brakes"})
	if err != nil {
		t.Fatal(err)
	}
	appts, _ := m.Appointments(ctx, "V1")
	if len(appts) != 1 || appts[0].Status != "scheduled" {
		t.Fatalf("default status missing: %+v", appts)
	}

	if err := m.UpdateAppointmentStatus(ctx, id, "completed"); err != nil {
		t.Fatal(err)
	}
	appts, _ = m.Appointments(ctx, "V1")
	if appts[0].Status != "completed" {
		t.Errorf("status = %q, want completed", appts[0].Status)
	}

	// Unknown id is a no-op, not an error.
	if err := m.UpdateAppointmentStatus(ctx, 999, "cancelled"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMemoryStatistics(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_ = m.SaveMessage(ctx, Message{VehicleID: "V1"})
	_ = m.SaveDiagnostic(ctx, DiagnosticRecord{VehicleID: "V1", Severity: "Critical"})
	_ = m.SaveDiagnostic(ctx, DiagnosticRecord{VehicleID: "V1", Severity: "Normal"})
	_, _ = m.SaveAppointment(ctx, Appointment{VehicleID: "V1", Date: "2026-09-01"})

	s, err := m.Statistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.TotalMessages != 1 || s.TotalDiagnostics != 2 || s.TotalAppointments != 1 {
		t.Errorf("stats = %+v", s)
	}
	if s.CriticalDiagnostics != 1 {
		t.Errorf("critical = %d, want 1", s.CriticalDiagnostics)
	}
}
