package telemetry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testSource(t *testing.T) *FileSource {
	t.Helper()
	s, err := NewFileSource(filepath.Join("testdata", "fleet.json"), 8)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestFileSourceGetTelemetry(t *testing.T) {
	s := testSource(t)
	ctx := context.Background()

	snap, hist, err := s.GetTelemetry(ctx, "VIN-001")
	if err != nil {
		t.Fatal(err)
	}
	if snap.BrakePadThicknessMM == nil || *snap.BrakePadThicknessMM != 2.5 {
		t.Errorf("brake pad = %v", snap.BrakePadThicknessMM)
	}
	if hist.KMSinceLastService != 8200 || hist.NumRepairsLast12M != 1 {
		t.Errorf("history = %+v", hist)
	}

	// Partial telematics: absent fields stay nil.
	snap, _, err = s.GetTelemetry(ctx, "VIN-002")
	if err != nil {
		t.Fatal(err)
	}
	if snap.BrakePadThicknessMM != nil || snap.BatteryVoltageV != nil {
		t.Errorf("absent fields must stay nil: %+v", snap)
	}
	if snap.CoolantTempC == nil || *snap.CoolantTempC != 110.0 {
		t.Errorf("coolant = %v", snap.CoolantTempC)
	}
}

func TestFileSourceUnknownVehicle(t *testing.T) {
	s := testSource(t)
	ctx := context.Background()

	_, _, err := s.GetTelemetry(ctx, "VIN-404")
	if !errors.Is(err, ErrVehicleNotFound) {
		t.Fatalf("err = %v, want ErrVehicleNotFound", err)
	}

	owner, err := s.GetOwner(ctx, "VIN-404")
	if err != nil || owner != nil {
		t.Errorf("unknown owner lookup = (%+v, %v), want (nil, nil)", owner, err)
	}
	vehicle, err := s.GetVehicle(ctx, "VIN-404")
	if err != nil || vehicle != nil {
		t.Errorf("unknown vehicle lookup = (%+v, %v), want (nil, nil)", vehicle, err)
	}
}

func TestFileSourceOwnerAndVehicle(t *testing.T) {
	s := testSource(t)
	ctx := context.Background()

	owner, err := s.GetOwner(ctx, "VIN-001")
	if err != nil {
		t.Fatal(err)
	}
	if owner.Name != "Alice Nguyen" || owner.Email != "alice@example.com" || owner.Make != "Toyonda" {
		t.Errorf("owner = %+v", owner)
	}

	vehicle, err := s.GetVehicle(ctx, "VIN-002")
	if err != nil {
		t.Fatal(err)
	}
	if vehicle.Make != "Nissota" || vehicle.Model != "Hauler" || vehicle.Year != 2019 {
		t.Errorf("vehicle = %+v", vehicle)
	}
}

func TestFileSourceCachesRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fleet.json")
	src, err := os.ReadFile(filepath.Join("testdata", "fleet.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, src, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileSource(path, 8)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, _, err := s.GetTelemetry(ctx, "VIN-001"); err != nil {
		t.Fatal(err)
	}

	// Remove the file; cached vehicles keep resolving, including ones loaded
	// as a side effect of the first read.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.GetTelemetry(ctx, "VIN-001"); err != nil {
		t.Errorf("cached lookup failed: %v", err)
	}
	if _, _, err := s.GetTelemetry(ctx, "VIN-003"); err != nil {
		t.Errorf("sibling record not cached: %v", err)
	}
}

func TestFileSourceContextCancelled(t *testing.T) {
	s := testSource(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := s.GetTelemetry(ctx, "VIN-001"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
