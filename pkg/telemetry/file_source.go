package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Record is one entry in the fleet data file. The file stands in for the
// telematics API and the CRM owner directory.
type Record struct {
	VehicleID  string `json:"vehicle_id"`
	OwnerID    string `json:"owner_id"`
	OwnerName  string `json:"owner_name"`
	OwnerPhone string `json:"owner_phone"`
	OwnerEmail string `json:"owner_email,omitempty"`
	Metadata   struct {
		Make  string `json:"make"`
		Model string `json:"model"`
		Year  int    `json:"year"`
	} `json:"metadata"`
	Telematics         Snapshot           `json:"telematics"`
	MaintenanceHistory MaintenanceHistory `json:"maintenance_history"`
}

// FileSource serves telemetry and owner lookups from a JSON fleet file.
// Parsed records are kept in an LRU cache so repeated runs for the same
// vehicle skip the file read.
type FileSource struct {
	path  string
	mu    sync.Mutex
	cache *lru.Cache[string, *Record]
}

// NewFileSource opens a fleet file source. cacheSize bounds the number of
// cached vehicle records.
func NewFileSource(path string, cacheSize int) (*FileSource, error) {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	cache, err := lru.New[string, *Record](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create record cache: %w", err)
	}
	return &FileSource{path: path, cache: cache}, nil
}

// GetTelemetry implements Source.
func (s *FileSource) GetTelemetry(ctx context.Context, vehicleID string) (Snapshot, MaintenanceHistory, error) {
	rec, err := s.lookup(ctx, vehicleID)
	if err != nil {
		return Snapshot{}, MaintenanceHistory{}, err
	}
	return rec.Telematics, rec.MaintenanceHistory, nil
}

// GetOwner implements Directory. Unknown vehicles yield (nil, nil).
func (s *FileSource) GetOwner(ctx context.Context, vehicleID string) (*Owner, error) {
	rec, err := s.lookup(ctx, vehicleID)
	if err != nil {
		if err == ErrVehicleNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &Owner{
		ID:    rec.OwnerID,
		Name:  rec.OwnerName,
		Phone: rec.OwnerPhone,
		Email: rec.OwnerEmail,
		Make:  rec.Metadata.Make,
		Model: rec.Metadata.Model,
		Year:  rec.Metadata.Year,
	}, nil
}

// GetVehicle implements Directory.
func (s *FileSource) GetVehicle(ctx context.Context, vehicleID string) (*VehicleInfo, error) {
	rec, err := s.lookup(ctx, vehicleID)
	if err != nil {
		if err == ErrVehicleNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &VehicleInfo{
		VehicleID: rec.VehicleID,
		Make:      rec.Metadata.Make,
		Model:     rec.Metadata.Model,
		Year:      rec.Metadata.Year,
	}, nil
}

func (s *FileSource) lookup(ctx context.Context, vehicleID string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rec, ok := s.cache.Get(vehicleID); ok {
		return rec, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-check after acquiring the lock; another goroutine may have loaded it.
	if rec, ok := s.cache.Get(vehicleID); ok {
		return rec, nil
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read fleet file: %w", err)
	}
	var records []*Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse fleet file: %w", err)
	}

	var found *Record
	for _, rec := range records {
		s.cache.Add(rec.VehicleID, rec)
		if rec.VehicleID == vehicleID {
			found = rec
		}
	}
	if found == nil {
		return nil, ErrVehicleNotFound
	}
	return found, nil
}
