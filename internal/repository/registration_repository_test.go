package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-events/internal/model"
	"github.com/iliyamo/campus-events/internal/registration"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newRegistrationRepo(t *testing.T) (*RegistrationRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := NewRegistrationRepo(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

func registrationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "event_id", "participant_id", "status", "code", "created_at", "updated_at"})
}

func eventLockRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"is_published", "capacity"})
}

func expectLocks(mock sqlmock.Sqlmock, eventID, participantID uint64, cur *sqlmock.Rows, admitted int) {
	expectLocksWithEvent(mock, eventID, participantID, eventLockRows().AddRow(true, 10), cur, admitted)
}

func expectLocksWithEvent(mock sqlmock.Sqlmock, eventID, participantID uint64, event, cur *sqlmock.Rows, admitted int) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockEventQuery)).WithArgs(eventID).
		WillReturnRows(event)
	mock.ExpectQuery(regexp.QuoteMeta(lockRegistrationQuery)).WithArgs(eventID, participantID).
		WillReturnRows(cur)
	mock.ExpectQuery(regexp.QuoteMeta(countAdmittedQuery)).WithArgs(eventID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(admitted))
}

func TestRegistrationUpsertInserts(t *testing.T) {
	repo, mock := newRegistrationRepo(t)
	expectLocks(mock, 5, 9, registrationRows(), 3)
	mock.ExpectExec(regexp.QuoteMeta(insertRegistrationQuery)).
		WithArgs(uint64(5), uint64(9), "registered", "ABCD1234", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(41, 1))
	mock.ExpectCommit()

	var seen registration.Snapshot
	reg, err := repo.Upsert(context.Background(), registration.Key{EventID: 5, ParticipantID: 9},
		func(cur *model.Registration, snap registration.Snapshot) (*model.Registration, error) {
			assert.Nil(t, cur)
			seen = snap
			return &model.Registration{Status: model.StatusRegistered, Code: "ABCD1234"}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 3, seen.Admitted)
	require.NotNil(t, seen.Event)
	assert.True(t, seen.Event.Published)
	require.NotNil(t, seen.Event.Capacity)
	assert.Equal(t, 10, *seen.Event.Capacity)
	assert.Equal(t, uint64(41), reg.ID)
	assert.Equal(t, uint64(5), reg.EventID)
	assert.Equal(t, fixedNow, reg.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationUpsertUpdatesExisting(t *testing.T) {
	repo, mock := newRegistrationRepo(t)
	created := fixedNow.Add(-time.Hour)
	expectLocks(mock, 5, 9, registrationRows().AddRow(7, 5, 9, "cancelled", "ZZZZ0000", created, created), 1)
	mock.ExpectExec(regexp.QuoteMeta(updateRegistrationQuery)).
		WithArgs("waitlisted", "ZZZZ0000", fixedNow, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	reg, err := repo.Upsert(context.Background(), registration.Key{EventID: 5, ParticipantID: 9},
		func(cur *model.Registration, _ registration.Snapshot) (*model.Registration, error) {
			require.NotNil(t, cur)
			next := *cur
			next.Status = model.StatusWaitlisted
			return &next, nil
		})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), reg.ID)
	assert.Equal(t, created, reg.CreatedAt)
	assert.Equal(t, model.StatusWaitlisted, reg.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationUpsertMutatorErrorRollsBack(t *testing.T) {
	repo, mock := newRegistrationRepo(t)
	expectLocks(mock, 5, 9, registrationRows().AddRow(7, 5, 9, "registered", "ZZZZ0000", fixedNow, fixedNow), 1)
	mock.ExpectRollback()

	_, err := repo.Upsert(context.Background(), registration.Key{EventID: 5, ParticipantID: 9},
		func(*model.Registration, registration.Snapshot) (*model.Registration, error) {
			return nil, registration.ErrAlreadyRegistered
		})
	assert.ErrorIs(t, err, registration.ErrAlreadyRegistered)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationUpsertNoopReturnsCurrent(t *testing.T) {
	repo, mock := newRegistrationRepo(t)
	expectLocks(mock, 5, 9, registrationRows().AddRow(7, 5, 9, "checked_in", "ZZZZ0000", fixedNow, fixedNow), 1)
	mock.ExpectRollback()

	reg, err := repo.Upsert(context.Background(), registration.Key{EventID: 5, ParticipantID: 9},
		func(*model.Registration, registration.Snapshot) (*model.Registration, error) { return nil, nil })
	require.NoError(t, err)
	assert.Equal(t, model.StatusCheckedIn, reg.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationUpsertSeesLockedEventState(t *testing.T) {
	repo, mock := newRegistrationRepo(t)
	expectLocksWithEvent(mock, 5, 9, eventLockRows().AddRow(false, nil), registrationRows(), 0)
	mock.ExpectRollback()

	_, err := repo.Upsert(context.Background(), registration.Key{EventID: 5, ParticipantID: 9},
		func(_ *model.Registration, snap registration.Snapshot) (*model.Registration, error) {
			require.NotNil(t, snap.Event)
			assert.False(t, snap.Event.Published)
			assert.Nil(t, snap.Event.Capacity)
			return nil, registration.ErrEventNotPublished
		})
	assert.ErrorIs(t, err, registration.ErrEventNotPublished)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationUpsertMissingEvent(t *testing.T) {
	repo, mock := newRegistrationRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockEventQuery)).WithArgs(uint64(5)).
		WillReturnRows(eventLockRows())
	mock.ExpectRollback()

	_, err := repo.Upsert(context.Background(), registration.Key{EventID: 5, ParticipantID: 9},
		func(*model.Registration, registration.Snapshot) (*model.Registration, error) {
			t.Fatal("mutator must not run for a missing event")
			return nil, nil
		})
	assert.ErrorIs(t, err, registration.ErrEventNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationUpsertLockTimeoutIsTransient(t *testing.T) {
	repo, mock := newRegistrationRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockEventQuery)).WithArgs(uint64(5)).
		WillReturnError(&mysql.MySQLError{Number: errLockWaitTimeout, Message: "Lock wait timeout exceeded"})
	mock.ExpectRollback()

	_, err := repo.Upsert(context.Background(), registration.Key{EventID: 5, ParticipantID: 9},
		func(*model.Registration, registration.Snapshot) (*model.Registration, error) { return nil, nil })
	assert.ErrorIs(t, err, registration.ErrTransient)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationUpsertCodeCollision(t *testing.T) {
	repo, mock := newRegistrationRepo(t)
	expectLocks(mock, 5, 9, registrationRows(), 0)
	mock.ExpectExec(regexp.QuoteMeta(insertRegistrationQuery)).
		WillReturnError(&mysql.MySQLError{Number: errDupEntry, Message: "Duplicate entry '5-ABCD1234' for key 'registrations.uq_registrations_code'"})
	mock.ExpectRollback()

	_, err := repo.Upsert(context.Background(), registration.Key{EventID: 5, ParticipantID: 9},
		func(*model.Registration, registration.Snapshot) (*model.Registration, error) {
			return &model.Registration{Status: model.StatusRegistered, Code: "ABCD1234"}, nil
		})
	assert.ErrorIs(t, err, registration.ErrTransient)
	assert.ErrorIs(t, err, registration.ErrCodeCollision)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationFindByCode(t *testing.T) {
	repo, mock := newRegistrationRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(findByCodeQuery)).WithArgs(uint64(5), "ABCD1234").
		WillReturnRows(registrationRows().AddRow(7, 5, 9, "waitlisted", "ABCD1234", fixedNow, fixedNow))
	mock.ExpectQuery(regexp.QuoteMeta(findByCodeQuery)).WithArgs(uint64(5), "abcd1234").
		WillReturnRows(registrationRows())

	reg, found, err := repo.FindByCode(context.Background(), 5, "ABCD1234")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(9), reg.ParticipantID)
	assert.Equal(t, model.StatusWaitlisted, reg.Status)

	_, found, err = repo.FindByCode(context.Background(), 5, "abcd1234")
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationListByEventIncludesParticipant(t *testing.T) {
	repo, mock := newRegistrationRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(listByEventQuery)).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "participant_id", "status", "code", "created_at", "updated_at", "name", "email"}).
			AddRow(1, 5, 9, "registered", "AAAA0001", fixedNow, fixedNow, "Asha", "asha@campus.edu").
			AddRow(2, 5, 10, "cancelled", "AAAA0002", fixedNow, fixedNow, nil, nil))

	regs, err := repo.ListByEvent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, regs, 2)
	assert.Equal(t, &model.ParticipantSummary{Name: "Asha", Email: "asha@campus.edu"}, regs[0].Participant)
	assert.Nil(t, regs[1].Participant)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationCountByStatus(t *testing.T) {
	repo, mock := newRegistrationRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(countByStatusEventQuery)).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("registered", 2).AddRow("cancelled", 1))
	mock.ExpectQuery(regexp.QuoteMeta(countByStatusQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("checked_in", 4))

	ev := uint64(5)
	counts, err := repo.CountByStatus(context.Background(), &ev)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[model.StatusRegistered])
	assert.Equal(t, 1, counts[model.StatusCancelled])
	assert.Equal(t, 0, counts[model.StatusWaitlisted])

	all, err := repo.CountByStatus(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, all[model.StatusCheckedIn])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassify(t *testing.T) {
	t.Parallel()

	assert.NoError(t, classify(nil))
	assert.ErrorIs(t, classify(context.DeadlineExceeded), registration.ErrTransient)
	assert.ErrorIs(t, classify(&mysql.MySQLError{Number: errDeadlock}), registration.ErrTransient)

	dup := classify(&mysql.MySQLError{Number: errDupEntry, Message: "Duplicate entry for key 'uq_registrations_event_participant'"})
	assert.ErrorIs(t, dup, registration.ErrTransient)
	assert.False(t, errors.Is(dup, registration.ErrCodeCollision))

	other := errors.New("syntax error")
	assert.Equal(t, other, classify(other))
}
