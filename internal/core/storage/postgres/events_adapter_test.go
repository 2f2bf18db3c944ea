package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	v1 "github.com/kesher-crm/kesher/internal/api/v1"
	"github.com/kesher-crm/kesher/internal/core/storage"
)

var eventColumns = []string{
	"id", "owner_id", "kind", "subject_label", "description",
	"start_time", "advance_notice_minutes", "is_active", "notified",
	"created_at", "updated_at",
}

// newMockAdapter builds an Adapter over sqlmock, preparing the same
// statements the real constructor does.
func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	adapter := &Adapter{db: db}
	prepared := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&adapter.stmtInsertEvent, queryInsertEvent},
		{&adapter.stmtListEvents, queryListEvents},
		{&adapter.stmtGetEvent, queryGetEvent},
		{&adapter.stmtDeleteEvent, queryDeleteEvent},
		{&adapter.stmtMarkNotified, queryMarkNotified},
	}
	for _, p := range prepared {
		mock.ExpectPrepare(regexp.QuoteMeta(p.query))
		stmt, err := db.Prepare(p.query)
		require.NoError(t, err)
		*p.dst = stmt
	}

	return adapter, mock, db
}

func eventRow(evt *v1.Event) *sqlmock.Rows {
	return sqlmock.NewRows(eventColumns).AddRow(
		evt.ID, evt.OwnerID, string(evt.Kind), evt.SubjectLabel, evt.Description,
		evt.StartTime, evt.AdvanceNoticeMinutes, evt.IsActive, evt.Notified,
		evt.CreatedAt, evt.UpdatedAt,
	)
}

func testStoredEvent() *v1.Event {
	start := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	return &v1.Event{
		ID:                   "evt-1",
		OwnerID:              "user-1",
		Kind:                 v1.KindReminder,
		SubjectLabel:         "שיחת מעקב",
		Description:          "לקוח חוזר",
		StartTime:            start,
		AdvanceNoticeMinutes: 30,
		IsActive:             true,
		Notified:             false,
		CreatedAt:            start.Add(-24 * time.Hour),
		UpdatedAt:            start.Add(-24 * time.Hour),
	}
}

func TestAdapter_CreateEvent(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	evt := testStoredEvent()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(queryInsertEvent)).
		WithArgs(
			evt.ID, evt.OwnerID, string(evt.Kind), evt.SubjectLabel, evt.Description,
			evt.StartTime, evt.AdvanceNoticeMinutes, evt.IsActive, evt.Notified,
		).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	require.NoError(t, adapter.CreateEvent(context.Background(), evt))
	require.Equal(t, now, evt.CreatedAt)
	require.Equal(t, now, evt.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_CreateEvent_InvalidShortCircuits(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	evt := testStoredEvent()
	evt.OwnerID = ""

	err := adapter.CreateEvent(context.Background(), evt)
	require.Error(t, err)
	require.ErrorContains(t, err, "owner_id is required")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ListEvents(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	first := testStoredEvent()
	second := testStoredEvent()
	second.ID = "evt-2"
	second.StartTime = first.StartTime.Add(time.Hour)

	rows := eventRow(first).AddRow(
		second.ID, second.OwnerID, string(second.Kind), second.SubjectLabel, second.Description,
		second.StartTime, second.AdvanceNoticeMinutes, second.IsActive, second.Notified,
		second.CreatedAt, second.UpdatedAt,
	)

	mock.ExpectQuery(regexp.QuoteMeta(queryListEvents)).
		WithArgs("user-1").
		WillReturnRows(rows)

	events, err := adapter.ListEvents(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "evt-1", events[0].ID)
	require.Equal(t, "evt-2", events[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_GetEvent_NotFound(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryGetEvent)).
		WithArgs("user-1", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := adapter.GetEvent(context.Background(), "user-1", "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_MarkNotified(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(queryMarkNotified)).
		WithArgs("evt-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, adapter.MarkNotified(context.Background(), "evt-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_MarkNotified_MissingRowIsNotFound(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(queryMarkNotified)).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := adapter.MarkNotified(context.Background(), "gone")
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_DeleteEvent(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(queryDeleteEvent)).
		WithArgs("user-1", "evt-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, adapter.DeleteEvent(context.Background(), "user-1", "evt-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_UpdateEvent_StartTimeChangeResetsNotified(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	current := testStoredEvent()
	current.Notified = true // already fired for the old time

	newStart := current.StartTime.Add(2 * time.Hour)
	updatedAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(queryGetEventForUpdate)).
		WithArgs("user-1", "evt-1").
		WillReturnRows(eventRow(current))
	mock.ExpectQuery(regexp.QuoteMeta(queryUpdateEvent)).
		WithArgs(
			"user-1", "evt-1", string(current.Kind), current.SubjectLabel, current.Description,
			newStart, current.AdvanceNoticeMinutes, current.IsActive,
			false, // notified reset by the start-time change
		).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(updatedAt))
	mock.ExpectCommit()

	updated, err := adapter.UpdateEvent(context.Background(), "user-1", "evt-1", v1.EventPatch{
		StartTime: &newStart,
	})
	require.NoError(t, err)
	require.False(t, updated.Notified)
	require.Equal(t, newStart, updated.StartTime)
	require.Equal(t, updatedAt, updated.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_UpdateEvent_SameStartTimeKeepsNotified(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	current := testStoredEvent()
	current.Notified = true
	newLabel := "עדכון נושא"
	updatedAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(queryGetEventForUpdate)).
		WithArgs("user-1", "evt-1").
		WillReturnRows(eventRow(current))
	mock.ExpectQuery(regexp.QuoteMeta(queryUpdateEvent)).
		WithArgs(
			"user-1", "evt-1", string(current.Kind), newLabel, current.Description,
			current.StartTime, current.AdvanceNoticeMinutes, current.IsActive,
			true, // label edit does not re-arm the notification
		).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(updatedAt))
	mock.ExpectCommit()

	updated, err := adapter.UpdateEvent(context.Background(), "user-1", "evt-1", v1.EventPatch{
		SubjectLabel: &newLabel,
	})
	require.NoError(t, err)
	require.True(t, updated.Notified)
	require.Equal(t, newLabel, updated.SubjectLabel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_UpdateEvent_NotFound(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(queryGetEventForUpdate)).
		WithArgs("user-1", "missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	active := true
	_, err := adapter.UpdateEvent(context.Background(), "user-1", "missing", v1.EventPatch{
		IsActive: &active,
	})
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
