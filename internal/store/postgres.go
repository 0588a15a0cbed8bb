// Package store provides storage backends for IntakePipe.
//
// This file implements the PostgreSQL-backed store for multi-node deployments.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/advocata/intakepipe/internal/models"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists sessions, leads, and the flow definition in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("PostgresStore failed to open connection", "error", err)
		return nil, err
	}

	// Configure connection pool for better performance
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("PostgresStore ping failed", "error", err)
		return nil, err
	}

	slog.Debug("PostgresStore running migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("PostgresStore failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("PostgresStore migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// GetSession retrieves a session by id, or (nil, nil) when absent.
func (s *PostgresStore) GetSession(id string) (*models.Session, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM sessions WHERE id = $1`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore.GetSession query failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to query session %s: %w", id, err)
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		slog.Error("PostgresStore.GetSession unmarshal failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &sess, nil
}

// SaveSession upserts a session as a JSONB document.
func (s *PostgresStore) SaveSession(sess models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", sess.ID, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO sessions (id, data, created_at, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		sess.ID, data, sess.CreatedAt, sess.LastUpdated,
	)
	if err != nil {
		slog.Error("PostgresStore.SaveSession failed", "error", err, "sessionID", sess.ID)
		return fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}
	slog.Debug("PostgresStore.SaveSession succeeded", "sessionID", sess.ID, "mode", sess.Mode)
	return nil
}

// DeleteSession removes a session.
func (s *PostgresStore) DeleteSession(id string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = $1`, id); err != nil {
		slog.Error("PostgresStore.DeleteSession failed", "error", err, "sessionID", id)
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// CreateLead persists a new lead, assigning an id when the record has none.
func (s *PostgresStore) CreateLead(lead models.LeadRecord) (string, error) {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	_, err := s.db.Exec(
		`INSERT INTO leads (id, name, area_of_law, situation, wants_meeting, phone_number,
		 phone_formatted, platform, session_id, status, source, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		lead.ID, lead.Name, lead.AreaOfLaw, lead.Situation, lead.WantsMeeting,
		nilIfEmpty(lead.PhoneNumber), nilIfEmpty(lead.PhoneFormatted),
		string(lead.Platform), lead.SessionID, string(lead.Status), lead.Source,
		lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		slog.Error("PostgresStore.CreateLead failed", "error", err, "sessionID", lead.SessionID)
		return "", fmt.Errorf("failed to insert lead for session %s: %w", lead.SessionID, err)
	}
	slog.Debug("PostgresStore.CreateLead succeeded", "leadID", lead.ID, "sessionID", lead.SessionID)
	return lead.ID, nil
}

// UpdateLead applies a partial update to an existing lead.
func (s *PostgresStore) UpdateLead(id string, upd LeadUpdate) error {
	_, err := s.db.Exec(
		`UPDATE leads SET
		phone_number = COALESCE(NULLIF($1, ''), phone_number),
		phone_formatted = COALESCE(NULLIF($2, ''), phone_formatted),
		status = COALESCE(NULLIF($3, ''), status),
		updated_at = $4
		WHERE id = $5`,
		upd.PhoneNumber, upd.PhoneFormatted, string(upd.Status), time.Now(), id,
	)
	if err != nil {
		slog.Error("PostgresStore.UpdateLead failed", "error", err, "leadID", id)
		return fmt.Errorf("failed to update lead %s: %w", id, err)
	}
	return nil
}

// GetLead retrieves a lead by id, or (nil, nil) when absent.
func (s *PostgresStore) GetLead(id string) (*models.LeadRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, name, area_of_law, situation, wants_meeting, phone_number,
		 phone_formatted, platform, session_id, status, source, created_at, updated_at
		 FROM leads WHERE id = $1`, id)
	lead, err := scanLeadRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore.GetLead failed", "error", err, "leadID", id)
		return nil, fmt.Errorf("failed to query lead %s: %w", id, err)
	}
	return lead, nil
}

// GetFlow retrieves the intake flow definition, or (nil, nil) when absent.
func (s *PostgresStore) GetFlow() (*models.FlowDefinition, error) {
	var definition []byte
	err := s.db.QueryRow(`SELECT definition FROM flows WHERE name = $1`, FlowName).Scan(&definition)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore.GetFlow query failed", "error", err)
		return nil, fmt.Errorf("failed to query flow definition: %w", err)
	}
	var flow models.FlowDefinition
	if err := json.Unmarshal(definition, &flow); err != nil {
		slog.Error("PostgresStore.GetFlow unmarshal failed", "error", err)
		return nil, fmt.Errorf("failed to decode flow definition: %w", err)
	}
	return &flow, nil
}

// SaveFlow upserts the intake flow definition.
func (s *PostgresStore) SaveFlow(flow models.FlowDefinition) error {
	definition, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to encode flow definition: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO flows (name, definition, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE SET definition = EXCLUDED.definition, updated_at = EXCLUDED.updated_at`,
		FlowName, definition, time.Now(),
	)
	if err != nil {
		slog.Error("PostgresStore.SaveFlow failed", "error", err)
		return fmt.Errorf("failed to save flow definition: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
