package store

import (
	"database/sql"

	"github.com/advocata/intakepipe/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// scanLeadRow scans a LeadRecord from a single sql.Row.
func scanLeadRow(row *sql.Row) (*models.LeadRecord, error) {
	var lead models.LeadRecord
	var areaOfLaw, situation, wantsMeeting, phoneNumber, phoneFormatted, platform, sessionID, source sql.NullString
	err := row.Scan(
		&lead.ID, &lead.Name, &areaOfLaw, &situation, &wantsMeeting,
		&phoneNumber, &phoneFormatted, &platform, &sessionID, &lead.Status,
		&source, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	lead.AreaOfLaw = areaOfLaw.String
	lead.Situation = situation.String
	lead.WantsMeeting = wantsMeeting.String
	lead.PhoneNumber = phoneNumber.String
	lead.PhoneFormatted = phoneFormatted.String
	lead.Platform = models.Platform(platform.String)
	lead.SessionID = sessionID.String
	lead.Source = source.String
	return &lead, nil
}
