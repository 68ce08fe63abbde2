package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackSummaryRoundsAverage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewFeedbackRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(summaryEventFeedbackQuery)).WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"avg", "count"}).AddRow(4.666666, 3))
	mock.ExpectQuery(regexp.QuoteMeta(summaryFeedbackQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"avg", "count"}).AddRow(nil, 0))

	ev := uint64(3)
	s, err := repo.Summary(context.Background(), &ev)
	require.NoError(t, err)
	require.NotNil(t, s.Average)
	assert.InDelta(t, 4.67, *s.Average, 1e-9)
	assert.Equal(t, 3, s.Count)

	s, err = repo.Summary(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, s.Average)
	assert.Equal(t, 0, s.Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackUpsertReturnsStoredRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewFeedbackRepo(db)

	note := "great talks"
	mock.ExpectExec(regexp.QuoteMeta(upsertFeedbackQuery)).WithArgs(uint64(3), uint64(8), 5, &note).
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectFeedbackQuery)).WithArgs(uint64(3), uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "user_id", "rating", "comments", "created_at", "updated_at"}).
			AddRow(12, 3, 8, 5, note, fixedNow, fixedNow))

	fb, err := repo.Upsert(context.Background(), 3, 8, 5, &note)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), fb.ID)
	assert.Equal(t, 5, fb.Rating)
	require.NotNil(t, fb.Comments)
	assert.Equal(t, note, *fb.Comments)
	require.NoError(t, mock.ExpectationsWereMet())
}
