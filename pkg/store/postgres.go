package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresConfig configures the Postgres sink connection.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// Postgres is the production Sink.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens the connection pool and verifies it with a ping.
func NewPostgres(cfg PostgresConfig) (*Postgres, error) {
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
		int(cfg.ConnectTimeout.Seconds()))

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{db: db}, nil
}

// DB exposes the underlying pool for migrations.
func (p *Postgres) DB() *sql.DB { return p.db }

// Close shuts down the pool.
func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) SaveMessage(ctx context.Context, m Message) error {
	var metadata []byte
	if m.Metadata != nil {
		var err error
		metadata, err = json.Marshal(m.Metadata)
		if err != nil {
			return fmt.Errorf("marshal message metadata: %w", err)
		}
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO conversations (vehicle_id, role, message, metadata) VALUES ($1, $2, $3, $4)`,
		m.VehicleID, m.Role, m.Body, metadata)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (p *Postgres) SaveDiagnostic(ctx context.Context, d DiagnosticRecord) error {
	issues, err := json.Marshal(d.Issues)
	if err != nil {
		return fmt.Errorf("marshal issues: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO diagnostics (vehicle_id, severity, issues, diagnosis_report, user_id) VALUES ($1, $2, $3, $4, $5)`,
		d.VehicleID, d.Severity, issues, d.ReportJSON, nullable(d.UserID))
	if err != nil {
		return fmt.Errorf("insert diagnostic: %w", err)
	}
	return nil
}

func (p *Postgres) SaveAppointment(ctx context.Context, a Appointment) (int64, error) {
	if a.Status == "" {
		a.Status = "scheduled"
	}
	var id int64
	err := p.db.QueryRowContext(ctx,
		`INSERT INTO appointments (vehicle_id, owner_email, appointment_date, service_type, status)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		a.VehicleID, a.OwnerEmail, a.Date, a.ServiceType, a.Status).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert appointment: %w", err)
	}
	return id, nil
}

func (p *Postgres) UpdateAppointmentStatus(ctx context.Context, id int64, status string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE appointments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	return nil
}

func (p *Postgres) ConversationHistory(ctx context.Context, vehicleID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, role, message, metadata, created_at
		 FROM conversations WHERE vehicle_id = $1
		 ORDER BY created_at DESC LIMIT $2`, vehicleID, limit)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		m := Message{VehicleID: vehicleID}
		var metadata []byte
		if err := rows.Scan(&m.ID, &m.Role, &m.Body, &metadata, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &m.Metadata); err != nil {
				return nil, fmt.Errorf("decode message metadata: %w", err)
			}
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// chronological order
	reverse(out)
	return out, nil
}

func (p *Postgres) DiagnosticHistory(ctx context.Context, vehicleID string, limit int) ([]DiagnosticRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, severity, issues, diagnosis_report, COALESCE(user_id, ''), created_at
		 FROM diagnostics WHERE vehicle_id = $1
		 ORDER BY created_at DESC LIMIT $2`, vehicleID, limit)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	var out []DiagnosticRecord
	for rows.Next() {
		d := DiagnosticRecord{VehicleID: vehicleID}
		var issues []byte
		if err := rows.Scan(&d.ID, &d.Severity, &issues, &d.ReportJSON, &d.UserID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		if len(issues) > 0 {
			if err := json.Unmarshal(issues, &d.Issues); err != nil {
				return nil, fmt.Errorf("decode issues: %w", err)
			}
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) Appointments(ctx context.Context, vehicleID string) ([]Appointment, error) {
	query := `SELECT id, vehicle_id, owner_email, appointment_date, service_type, status, created_at
		 FROM appointments ORDER BY appointment_date DESC`
	args := []any{}
	if vehicleID != "" {
		query = `SELECT id, vehicle_id, owner_email, appointment_date, service_type, status, created_at
		 FROM appointments WHERE vehicle_id = $1 ORDER BY appointment_date DESC`
		args = append(args, vehicleID)
	}
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.VehicleID, &a.OwnerEmail, &a.Date, &a.ServiceType, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *Postgres) Statistics(ctx context.Context) (Stats, error) {
	var s Stats
	row := p.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM conversations),
			(SELECT COUNT(*) FROM diagnostics),
			(SELECT COUNT(*) FROM appointments),
			(SELECT COUNT(*) FROM diagnostics WHERE severity = 'Critical')`)
	if err := row.Scan(&s.TotalMessages, &s.TotalDiagnostics, &s.TotalAppointments, &s.CriticalDiagnostics); err != nil {
		return Stats{}, fmt.Errorf("query statistics: %w", err)
	}
	return s, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func reverse(m []Message) {
	for i, j := 0, len(m)-1; i < j; i, j = i+1, j-1 {
		m[i], m[j] = m[j], m[i]
	}
}
