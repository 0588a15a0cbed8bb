// Package store provides storage backends for IntakePipe.
//
// This file implements the SQLite-backed store, the default for single-node
// deployments. Sessions are stored as JSON documents; leads as columns.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/advocata/intakepipe/internal/models"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists sessions, leads, and the flow definition in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("SQLiteStore.NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("SQLiteStore failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("SQLiteStore failed to open connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLiteStore ping failed", "error", err)
		return nil, err
	}

	slog.Debug("SQLiteStore running migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("SQLiteStore failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLiteStore migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// GetSession retrieves a session by id, or (nil, nil) when absent.
func (s *SQLiteStore) GetSession(id string) (*models.Session, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM sessions WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore.GetSession query failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to query session %s: %w", id, err)
	}
	var sess models.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		slog.Error("SQLiteStore.GetSession unmarshal failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &sess, nil
}

// SaveSession upserts a session as a JSON document.
func (s *SQLiteStore) SaveSession(sess models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", sess.ID, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO sessions (id, data, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		sess.ID, string(data), sess.CreatedAt, sess.LastUpdated,
	)
	if err != nil {
		slog.Error("SQLiteStore.SaveSession failed", "error", err, "sessionID", sess.ID)
		return fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}
	slog.Debug("SQLiteStore.SaveSession succeeded", "sessionID", sess.ID, "mode", sess.Mode)
	return nil
}

// DeleteSession removes a session.
func (s *SQLiteStore) DeleteSession(id string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		slog.Error("SQLiteStore.DeleteSession failed", "error", err, "sessionID", id)
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// CreateLead persists a new lead, assigning an id when the record has none.
func (s *SQLiteStore) CreateLead(lead models.LeadRecord) (string, error) {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	_, err := s.db.Exec(
		`INSERT INTO leads (id, name, area_of_law, situation, wants_meeting, phone_number,
		 phone_formatted, platform, session_id, status, source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.Name, lead.AreaOfLaw, lead.Situation, lead.WantsMeeting,
		nilIfEmpty(lead.PhoneNumber), nilIfEmpty(lead.PhoneFormatted),
		string(lead.Platform), lead.SessionID, string(lead.Status), lead.Source,
		lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		slog.Error("SQLiteStore.CreateLead failed", "error", err, "sessionID", lead.SessionID)
		return "", fmt.Errorf("failed to insert lead for session %s: %w", lead.SessionID, err)
	}
	slog.Debug("SQLiteStore.CreateLead succeeded", "leadID", lead.ID, "sessionID", lead.SessionID)
	return lead.ID, nil
}

// UpdateLead applies a partial update to an existing lead.
func (s *SQLiteStore) UpdateLead(id string, upd LeadUpdate) error {
	_, err := s.db.Exec(
		`UPDATE leads SET
		phone_number = COALESCE(NULLIF(?, ''), phone_number),
		phone_formatted = COALESCE(NULLIF(?, ''), phone_formatted),
		status = COALESCE(NULLIF(?, ''), status),
		updated_at = ?
		WHERE id = ?`,
		upd.PhoneNumber, upd.PhoneFormatted, string(upd.Status), time.Now(), id,
	)
	if err != nil {
		slog.Error("SQLiteStore.UpdateLead failed", "error", err, "leadID", id)
		return fmt.Errorf("failed to update lead %s: %w", id, err)
	}
	return nil
}

// GetLead retrieves a lead by id, or (nil, nil) when absent.
func (s *SQLiteStore) GetLead(id string) (*models.LeadRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, name, area_of_law, situation, wants_meeting, phone_number,
		 phone_formatted, platform, session_id, status, source, created_at, updated_at
		 FROM leads WHERE id = ?`, id)
	lead, err := scanLeadRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore.GetLead failed", "error", err, "leadID", id)
		return nil, fmt.Errorf("failed to query lead %s: %w", id, err)
	}
	return lead, nil
}

// GetFlow retrieves the intake flow definition, or (nil, nil) when absent.
func (s *SQLiteStore) GetFlow() (*models.FlowDefinition, error) {
	var definition string
	err := s.db.QueryRow(`SELECT definition FROM flows WHERE name = ?`, FlowName).Scan(&definition)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore.GetFlow query failed", "error", err)
		return nil, fmt.Errorf("failed to query flow definition: %w", err)
	}
	var flow models.FlowDefinition
	if err := json.Unmarshal([]byte(definition), &flow); err != nil {
		slog.Error("SQLiteStore.GetFlow unmarshal failed", "error", err)
		return nil, fmt.Errorf("failed to decode flow definition: %w", err)
	}
	return &flow, nil
}

// SaveFlow upserts the intake flow definition.
func (s *SQLiteStore) SaveFlow(flow models.FlowDefinition) error {
	definition, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to encode flow definition: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO flows (name, definition, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET definition = excluded.definition, updated_at = excluded.updated_at`,
		FlowName, string(definition), time.Now(),
	)
	if err != nil {
		slog.Error("SQLiteStore.SaveFlow failed", "error", err)
		return fmt.Errorf("failed to save flow definition: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
