package postgres

// SQL queries for event and notification storage.

const (
	// queryInsertEvent persists a new event. created_at/updated_at come
	// from the database clock so all rows share one time source.
	queryInsertEvent = `
		INSERT INTO events (
			id, owner_id, kind, subject_label, description,
			start_time, advance_notice_minutes, is_active, notified
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	// queryListEvents fetches all of an owner's events in start order.
	// The engine filters due candidates in memory; the store stays dumb.
	queryListEvents = `
		SELECT
			id, owner_id, kind, subject_label, description,
			start_time, advance_notice_minutes, is_active, notified,
			created_at, updated_at
		FROM events
		WHERE owner_id = $1
		ORDER BY start_time ASC, id ASC
	`

	queryGetEvent = `
		SELECT
			id, owner_id, kind, subject_label, description,
			start_time, advance_notice_minutes, is_active, notified,
			created_at, updated_at
		FROM events
		WHERE owner_id = $1 AND id = $2
	`

	// queryGetEventForUpdate locks the row for the read-modify-write
	// patch cycle in UpdateEvent.
	queryGetEventForUpdate = `
		SELECT
			id, owner_id, kind, subject_label, description,
			start_time, advance_notice_minutes, is_active, notified,
			created_at, updated_at
		FROM events
		WHERE owner_id = $1 AND id = $2
		FOR UPDATE
	`

	queryUpdateEvent = `
		UPDATE events
		SET kind = $3,
		    subject_label = $4,
		    description = $5,
		    start_time = $6,
		    advance_notice_minutes = $7,
		    is_active = $8,
		    notified = $9,
		    updated_at = now()
		WHERE owner_id = $1 AND id = $2
		RETURNING updated_at
	`

	queryDeleteEvent = `
		DELETE FROM events
		WHERE owner_id = $1 AND id = $2
	`

	// queryMarkNotified flips the notified flag. Deliberately not owner
	// scoped: the engine calls it with IDs it listed for the session
	// owner one tick earlier.
	queryMarkNotified = `
		UPDATE events
		SET notified = TRUE, updated_at = now()
		WHERE id = $1
	`

	queryInsertNotification = `
		INSERT INTO notifications (
			id, event_id, owner_id, title, message, metadata, fired_at, read
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	queryListNotifications = `
		SELECT id, event_id, owner_id, title, message, metadata, fired_at, read
		FROM notifications
		WHERE owner_id = $1
		ORDER BY fired_at DESC, id ASC
	`

	queryMarkNotificationRead = `
		UPDATE notifications
		SET read = TRUE
		WHERE owner_id = $1 AND id = $2
	`

	queryMarkAllNotificationsRead = `
		UPDATE notifications
		SET read = TRUE
		WHERE owner_id = $1 AND read = FALSE
	`
)
