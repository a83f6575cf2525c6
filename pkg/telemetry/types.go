// Package telemetry defines the vehicle telemetry model and the sources the
// pipeline reads it from.
package telemetry

import (
	"context"
	"errors"
)

// ErrVehicleNotFound is returned when a vehicle identifier is unknown.
var ErrVehicleNotFound = errors.New("vehicle not found")

// Snapshot is one per-vehicle telemetry reading. Pointer fields distinguish an
// absent reading from a zero reading; the evaluator applies documented
// defaults for absent fields.
type Snapshot struct {
	BrakePadThicknessMM *float64 `json:"brake_pad_thickness_mm,omitempty"`
	CoolantTempC        *float64 `json:"coolant_temp_c,omitempty"`
	EngineLoadPct       *float64 `json:"engine_load_pct,omitempty"`
	BatteryVoltageV     *float64 `json:"battery_voltage_v,omitempty"`
}

// MaintenanceHistory summarizes a vehicle's recent service record.
type MaintenanceHistory struct {
	KMSinceLastService int `json:"km_since_last_service"`
	NumRepairsLast12M  int `json:"num_repairs_last_12m"`
}

// Owner is the contact record for a vehicle.
type Owner struct {
	ID    string `json:"owner_id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
}

// VehicleInfo identifies a vehicle and its manufacturer.
type VehicleInfo struct {
	VehicleID string `json:"vehicle_id"`
	Make      string `json:"make"`
	Model     string `json:"model"`
	Year      int    `json:"year"`
}

// Source provides a vehicle's current readings and maintenance history.
type Source interface {
	GetTelemetry(ctx context.Context, vehicleID string) (Snapshot, MaintenanceHistory, error)
}

// Directory resolves vehicle identifiers to owner and manufacturer records.
// GetOwner returns (nil, nil) when the vehicle is unknown.
type Directory interface {
	GetOwner(ctx context.Context, vehicleID string) (*Owner, error)
	GetVehicle(ctx context.Context, vehicleID string) (*VehicleInfo, error)
}

// Float returns a pointer to v, for building snapshots in fixtures and tests.
func Float(v float64) *float64 { return &v }
