package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	v1 "github.com/kesher-crm/kesher/internal/api/v1"
	"github.com/kesher-crm/kesher/internal/core/storage"
)

func testNotification() *v1.Notification {
	return &v1.Notification{
		ID:       "ntf-1",
		EventID:  "evt-1",
		OwnerID:  "user-1",
		Title:    "תזכורת: שיחת מעקב",
		Message:  "שיחת מעקב בתאריך 2026-03-15 בשעה 11:00",
		Metadata: map[string]string{"kind": "reminder"},
		FiredAt:  time.Date(2026, 3, 15, 8, 30, 0, 0, time.UTC),
	}
}

func TestNotificationsAdapter_SaveNotification(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewNotificationsAdapter(db)
	n := testNotification()

	mock.ExpectExec(regexp.QuoteMeta(queryInsertNotification)).
		WithArgs(
			n.ID, n.EventID, n.OwnerID, n.Title, n.Message,
			sqlmock.AnyArg(), // metadata JSON
			n.FiredAt, n.Read,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, adapter.SaveNotification(context.Background(), n))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationsAdapter_SaveNotification_InvalidShortCircuits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewNotificationsAdapter(db)
	n := testNotification()
	n.OwnerID = ""

	saveErr := adapter.SaveNotification(context.Background(), n)
	require.Error(t, saveErr)
	require.ErrorContains(t, saveErr, "owner_id is required")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationsAdapter_ListNotifications(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewNotificationsAdapter(db)
	n := testNotification()

	rows := sqlmock.NewRows([]string{
		"id", "event_id", "owner_id", "title", "message", "metadata", "fired_at", "read",
	}).
		AddRow(n.ID, n.EventID, n.OwnerID, n.Title, n.Message, []byte(`{"kind":"reminder"}`), n.FiredAt, false).
		AddRow("ntf-2", "evt-2", n.OwnerID, "t", "m", nil, n.FiredAt.Add(-time.Hour), true)

	mock.ExpectQuery(regexp.QuoteMeta(queryListNotifications)).
		WithArgs("user-1").
		WillReturnRows(rows)

	notifications, err := adapter.ListNotifications(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	require.Equal(t, map[string]string{"kind": "reminder"}, notifications[0].Metadata)
	require.Nil(t, notifications[1].Metadata)
	require.True(t, notifications[1].Read)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationsAdapter_MarkRead_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewNotificationsAdapter(db)

	mock.ExpectExec(regexp.QuoteMeta(queryMarkNotificationRead)).
		WithArgs("user-1", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	markErr := adapter.MarkRead(context.Background(), "user-1", "missing")
	require.ErrorIs(t, markErr, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationsAdapter_MarkAllRead_ZeroRowsIsFine(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewNotificationsAdapter(db)

	mock.ExpectExec(regexp.QuoteMeta(queryMarkAllNotificationsRead)).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, adapter.MarkAllRead(context.Background(), "user-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
