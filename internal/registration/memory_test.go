package registration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-events/internal/model"
)

func put(status model.RegistrationStatus, code string) Mutator {
	return func(cur *model.Registration, _ Snapshot) (*model.Registration, error) {
		return &model.Registration{Status: status, Code: code}, nil
	}
}

func TestMemoryStoreUpsertAndLookups(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()

	a, err := s.Upsert(ctx, Key{EventID: 1, ParticipantID: 10}, put(model.StatusRegistered, "AAAA0001"))
	require.NoError(t, err)
	b, err := s.Upsert(ctx, Key{EventID: 1, ParticipantID: 11}, put(model.StatusWaitlisted, "AAAA0002"))
	require.NoError(t, err)
	_, err = s.Upsert(ctx, Key{EventID: 2, ParticipantID: 10}, put(model.StatusCheckedIn, "AAAA0001"))
	require.NoError(t, err, "codes are scoped to the event")

	assert.Equal(t, uint64(1), a.ID)
	assert.Equal(t, uint64(2), b.ID)
	assert.Equal(t, uint64(1), a.EventID)
	assert.Equal(t, uint64(10), a.ParticipantID)
	assert.False(t, a.CreatedAt.IsZero())

	got, found, err := s.FindByCode(ctx, 1, "AAAA0002")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(11), got.ParticipantID)

	_, found, err = s.FindByCode(ctx, 1, "aaaa0002")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = s.FindByParticipant(ctx, 3, 10)
	require.NoError(t, err)
	assert.False(t, found)

	n, err := s.CountAdmitted(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	mine, err := s.ListByParticipant(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := s.CountByStatus(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, map[model.RegistrationStatus]int{
		model.StatusRegistered: 1,
		model.StatusWaitlisted: 1,
		model.StatusCheckedIn:  1,
	}, all)

	people, err := s.CountParticipants(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, people)
}

func TestMemoryStoreMutatorSeesCurrentState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()
	key := Key{EventID: 1, ParticipantID: 1}

	_, err := s.Upsert(ctx, Key{EventID: 1, ParticipantID: 2}, put(model.StatusRegistered, "C2"))
	require.NoError(t, err)
	first, err := s.Upsert(ctx, key, put(model.StatusRegistered, "C1"))
	require.NoError(t, err)

	var seen *model.Registration
	var admitted int
	updated, err := s.Upsert(ctx, key, func(cur *model.Registration, snap Snapshot) (*model.Registration, error) {
		assert.Nil(t, snap.Event)
		seen, admitted = cur, snap.Admitted
		next := *cur
		next.Status = model.StatusCancelled
		return &next, nil
	})
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, "C1", seen.Code)
	assert.Equal(t, 2, admitted)
	assert.Equal(t, first.ID, updated.ID)
	assert.Equal(t, first.CreatedAt, updated.CreatedAt)

	seen.Status = model.StatusCheckedIn
	stored, _, err := s.FindByParticipant(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, stored.Status, "mutator works on a copy")
}

func TestMemoryStoreErrorAndNoopLeaveStateAlone(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()
	key := Key{EventID: 1, ParticipantID: 1}

	boom := errors.New("boom")
	_, err := s.Upsert(ctx, key, func(*model.Registration, Snapshot) (*model.Registration, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	reg, err := s.Upsert(ctx, key, func(*model.Registration, Snapshot) (*model.Registration, error) { return nil, nil })
	require.NoError(t, err)
	assert.Nil(t, reg)

	regs, err := s.ListByEvent(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, regs)
}

func TestMemoryStoreRejectsCodeCollision(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Upsert(ctx, Key{EventID: 1, ParticipantID: 1}, put(model.StatusRegistered, "SAME"))
	require.NoError(t, err)
	_, err = s.Upsert(ctx, Key{EventID: 1, ParticipantID: 2}, put(model.StatusRegistered, "SAME"))
	assert.ErrorIs(t, err, ErrCodeCollision)
	assert.Equal(t, KindTransient, KindOf(err))

	_, found, err := s.FindByParticipant(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStoreHonoursContextWhileWaiting(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Upsert(context.Background(), Key{EventID: 1, ParticipantID: 1}, func(*model.Registration, Snapshot) (*model.Registration, error) {
			close(entered)
			<-release
			return nil, nil
		})
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := s.Upsert(ctx, Key{EventID: 1, ParticipantID: 2}, put(model.StatusRegistered, "X"))
	assert.ErrorIs(t, err, ErrTransient)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Other events are not blocked.
	_, err = s.Upsert(context.Background(), Key{EventID: 2, ParticipantID: 2}, put(model.StatusRegistered, "X"))
	require.NoError(t, err)

	close(release)
	<-done
}
