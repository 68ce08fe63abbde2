package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-events/internal/model"
)

func newEventRepo(t *testing.T) (*EventRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewEventRepo(db), mock
}

var eventColumnNames = []string{"id", "name", "category", "description", "event_date", "start_time", "end_time", "venue",
	"capacity", "cover_image_url", "tags", "created_by", "is_published", "created_at", "updated_at"}

func TestEventLookup(t *testing.T) {
	repo, mock := newEventRepo(t)
	date := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(lookupEventQuery)).WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "event_date", "is_published", "capacity"}).AddRow("Hackathon", date, true, 50))
	mock.ExpectQuery(regexp.QuoteMeta(lookupEventQuery)).WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "event_date", "is_published", "capacity"}).AddRow("Open Mic", date, false, nil))
	mock.ExpectQuery(regexp.QuoteMeta(lookupEventQuery)).WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "event_date", "is_published", "capacity"}))

	info, found, err := repo.LookupEvent(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Hackathon", info.Name)
	assert.Equal(t, "2026-11-01", info.Date)
	assert.True(t, info.Published)
	require.NotNil(t, info.Capacity)
	assert.Equal(t, 50, *info.Capacity)

	info, found, err = repo.LookupEvent(context.Background(), 2)
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, info.Published)
	assert.Nil(t, info.Capacity)

	_, found, err = repo.LookupEvent(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventGetByIDDecodesRow(t *testing.T) {
	repo, mock := newEventRepo(t)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(selectEventQuery)).WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows(eventColumnNames).AddRow(
			4, "Robotics Expo", "Tech", nil, time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC), "10:00", nil, "Hall A",
			nil, nil, []byte(`["robots","expo"]`), 1, true, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(selectEventQuery)).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(eventColumnNames))

	ev, err := repo.GetByID(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-14", ev.Date)
	assert.Equal(t, []string{"robots", "expo"}, ev.Tags)
	require.NotNil(t, ev.Category)
	assert.Equal(t, "Tech", *ev.Category)
	assert.Nil(t, ev.Description)
	assert.Nil(t, ev.Capacity)

	_, err = repo.GetByID(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventDeleteMissing(t *testing.T) {
	repo, mock := newEventRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(deleteEventQuery)).WithArgs(uint64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(deleteEventQuery)).WithArgs(uint64(4)).WillReturnResult(sqlmock.NewResult(0, 1))

	assert.ErrorIs(t, repo.Delete(context.Background(), 9), ErrNotFound)
	assert.NoError(t, repo.Delete(context.Background(), 4))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventCounts(t *testing.T) {
	repo, mock := newEventRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(countEventsQuery)).WithArgs("2026-03-01", "2026-03-01").
		WillReturnRows(sqlmock.NewRows([]string{"total", "published", "upcoming", "past"}).AddRow(10, 7, 4, 6))

	c, err := repo.Counts(context.Background(), "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, model.EventCounts{Total: 10, Published: 7, Upcoming: 4, Past: 6}, c)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventUpdateClearsCapacity(t *testing.T) {
	repo, mock := newEventRepo(t)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET capacity = ? WHERE id = ?")).
		WithArgs(nil, uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectEventQuery)).WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows(eventColumnNames).AddRow(
			4, "Robotics Expo", nil, nil, time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC), nil, nil, nil,
			nil, nil, nil, 1, true, now, now))

	ev, err := repo.Update(context.Background(), 4, EventPatch{ClearCapacity: true})
	require.NoError(t, err)
	assert.Nil(t, ev.Capacity)
	require.NoError(t, mock.ExpectationsWereMet())
}
