package postgres

import (
	"encoding/json"
	"fmt"

	v1 "github.com/kesher-crm/kesher/internal/api/v1"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEventRow scans a database row into an Event struct.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanEventRow(row scanner) (*v1.Event, error) {
	var evt v1.Event

	err := row.Scan(
		&evt.ID,
		&evt.OwnerID,
		&evt.Kind,
		&evt.SubjectLabel,
		&evt.Description,
		&evt.StartTime,
		&evt.AdvanceNoticeMinutes,
		&evt.IsActive,
		&evt.Notified,
		&evt.CreatedAt,
		&evt.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event row: %w", err)
	}

	return &evt, nil
}

// marshalNotificationMetadata marshals a notification's metadata to JSON.
// Nil or empty metadata produces nil (SQL NULL) rather than a JSON "null"
// string.
func marshalNotificationMetadata(n *v1.Notification) ([]byte, error) {
	if len(n.Metadata) == 0 {
		return nil, nil
	}
	metadataJSON, err := json.Marshal(n.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return metadataJSON, nil
}

// scanNotificationRow scans a database row into a Notification struct.
func scanNotificationRow(row scanner) (*v1.Notification, error) {
	var n v1.Notification
	var metadataJSON []byte

	err := row.Scan(
		&n.ID,
		&n.EventID,
		&n.OwnerID,
		&n.Title,
		&n.Message,
		&metadataJSON,
		&n.FiredAt,
		&n.Read,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan notification row: %w", err)
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &n.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &n, nil
}
