// Package store provides storage backends for IntakePipe.
//
// It persists conversation sessions, compiled leads, and the editable intake
// flow definition behind one Store interface, with SQLite, PostgreSQL, Redis,
// and in-memory implementations.
package store

import (
	"strings"

	"github.com/advocata/intakepipe/internal/models"
)

// FlowName is the key under which the intake flow definition is stored.
const FlowName = "law_firm_intake"

// LeadUpdate carries the lead fields that may change after creation. Empty
// fields are left untouched (merge semantics).
type LeadUpdate struct {
	PhoneNumber    string
	PhoneFormatted string
	Status         models.LeadStatus
}

// Store is the persistence contract consumed by the orchestration layer.
// Get methods return (nil, nil) when the entity does not exist.
type Store interface {
	// GetSession retrieves a session by id.
	GetSession(id string) (*models.Session, error)
	// SaveSession upserts a session. The orchestrator always loads before
	// saving, so writing the full object preserves merge semantics.
	SaveSession(s models.Session) error
	// DeleteSession removes a session.
	DeleteSession(id string) error

	// CreateLead persists a new lead and returns its id. When the record has
	// no id yet, the store assigns one.
	CreateLead(lead models.LeadRecord) (string, error)
	// UpdateLead applies a partial update to an existing lead.
	UpdateLead(id string, upd LeadUpdate) error
	// GetLead retrieves a lead by id.
	GetLead(id string) (*models.LeadRecord, error)

	// GetFlow retrieves the intake flow definition.
	GetFlow() (*models.FlowDefinition, error)
	// SaveFlow upserts the intake flow definition.
	SaveFlow(flow models.FlowDefinition) error

	// Close releases any underlying resources.
	Close() error
}

// DetectDSNType inspects a DSN and reports the database driver it belongs to:
// "postgres" for PostgreSQL URLs or key=value connection strings, "redis" for
// Redis URLs, and "sqlite3" for anything else (treated as a file path).
func DetectDSNType(dsn string) string {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return "redis"
	case strings.Contains(dsn, "host=") && strings.Contains(dsn, "dbname="):
		return "postgres"
	default:
		return "sqlite3"
	}
}
