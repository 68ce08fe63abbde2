// Package mocks holds testify mocks for the interfaces consumed by the
// handler package.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/campus-events/internal/model"
	"github.com/iliyamo/campus-events/internal/registration"
	"github.com/iliyamo/campus-events/internal/repository"
	"github.com/iliyamo/campus-events/internal/stats"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

func expect(t testingT, m *mock.Mock) {
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
}

// get returns argument i as T, or T's zero value when it is nil.
func get[T any](args mock.Arguments, i int) T {
	var zero T
	if v, ok := args.Get(i).(T); ok {
		return v
	}
	return zero
}

// Lifecycle mocks handler.Lifecycle.
type Lifecycle struct{ mock.Mock }

func NewLifecycle(t testingT) *Lifecycle { m := &Lifecycle{}; expect(t, &m.Mock); return m }

func (m *Lifecycle) Register(ctx context.Context, eventID, participantID uint64) (*model.Registration, error) {
	ret := m.Called(ctx, eventID, participantID)
	return get[*model.Registration](ret, 0), ret.Error(1)
}

func (m *Lifecycle) Cancel(ctx context.Context, eventID, participantID uint64) (*model.Registration, error) {
	ret := m.Called(ctx, eventID, participantID)
	return get[*model.Registration](ret, 0), ret.Error(1)
}

func (m *Lifecycle) CheckIn(ctx context.Context, eventID uint64, sel registration.Selector) (*model.Registration, error) {
	ret := m.Called(ctx, eventID, sel)
	return get[*model.Registration](ret, 0), ret.Error(1)
}

func (m *Lifecycle) Get(ctx context.Context, eventID, participantID uint64) (*model.Registration, error) {
	ret := m.Called(ctx, eventID, participantID)
	return get[*model.Registration](ret, 0), ret.Error(1)
}

func (m *Lifecycle) List(ctx context.Context, eventID uint64) ([]model.Registration, error) {
	ret := m.Called(ctx, eventID)
	return get[[]model.Registration](ret, 0), ret.Error(1)
}

func (m *Lifecycle) ListMine(ctx context.Context, participantID uint64) ([]model.Registration, error) {
	ret := m.Called(ctx, participantID)
	return get[[]model.Registration](ret, 0), ret.Error(1)
}

func (m *Lifecycle) Availability(ctx context.Context, eventID uint64) (registration.Availability, error) {
	ret := m.Called(ctx, eventID)
	return get[registration.Availability](ret, 0), ret.Error(1)
}

// StatsReader mocks handler.StatsReader.
type StatsReader struct{ mock.Mock }

func NewStatsReader(t testingT) *StatsReader { m := &StatsReader{}; expect(t, &m.Mock); return m }

func (m *StatsReader) EventStats(ctx context.Context, eventID uint64) (stats.EventSummary, error) {
	ret := m.Called(ctx, eventID)
	return get[stats.EventSummary](ret, 0), ret.Error(1)
}

func (m *StatsReader) Global(ctx context.Context) (stats.Dashboard, error) {
	ret := m.Called(ctx)
	return get[stats.Dashboard](ret, 0), ret.Error(1)
}

func (m *StatsReader) Forget(ctx context.Context, eventID uint64) { m.Called(ctx, eventID) }

// EventStore mocks handler.EventStore.
type EventStore struct{ mock.Mock }

func NewEventStore(t testingT) *EventStore { m := &EventStore{}; expect(t, &m.Mock); return m }

func (m *EventStore) Create(ctx context.Context, ev *model.Event) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *EventStore) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	ret := m.Called(ctx, id)
	return get[*model.Event](ret, 0), ret.Error(1)
}

func (m *EventStore) ListPublished(ctx context.Context) ([]model.Event, error) {
	ret := m.Called(ctx)
	return get[[]model.Event](ret, 0), ret.Error(1)
}

func (m *EventStore) ListAll(ctx context.Context) ([]model.Event, error) {
	ret := m.Called(ctx)
	return get[[]model.Event](ret, 0), ret.Error(1)
}

func (m *EventStore) SearchPublished(ctx context.Context, q repository.EventSearchQuery) ([]model.Event, int64, error) {
	ret := m.Called(ctx, q)
	return get[[]model.Event](ret, 0), get[int64](ret, 1), ret.Error(2)
}

func (m *EventStore) Update(ctx context.Context, id uint64, p repository.EventPatch) (*model.Event, error) {
	ret := m.Called(ctx, id, p)
	return get[*model.Event](ret, 0), ret.Error(1)
}

func (m *EventStore) Delete(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

// EventLookup mocks registration.EventLookup.
type EventLookup struct{ mock.Mock }

func NewEventLookup(t testingT) *EventLookup { m := &EventLookup{}; expect(t, &m.Mock); return m }

func (m *EventLookup) LookupEvent(ctx context.Context, eventID uint64) (registration.EventInfo, bool, error) {
	ret := m.Called(ctx, eventID)
	return get[registration.EventInfo](ret, 0), ret.Bool(1), ret.Error(2)
}

// FeedbackStore mocks handler.FeedbackStore.
type FeedbackStore struct{ mock.Mock }

func NewFeedbackStore(t testingT) *FeedbackStore { m := &FeedbackStore{}; expect(t, &m.Mock); return m }

func (m *FeedbackStore) Upsert(ctx context.Context, eventID, userID uint64, rating int, comments *string) (*model.Feedback, error) {
	ret := m.Called(ctx, eventID, userID, rating, comments)
	return get[*model.Feedback](ret, 0), ret.Error(1)
}

func (m *FeedbackStore) ListByEvent(ctx context.Context, eventID uint64) ([]model.Feedback, error) {
	ret := m.Called(ctx, eventID)
	return get[[]model.Feedback](ret, 0), ret.Error(1)
}

// UserStore mocks handler.UserStore.
type UserStore struct{ mock.Mock }

func NewUserStore(t testingT) *UserStore { m := &UserStore{}; expect(t, &m.Mock); return m }

func (m *UserStore) Create(ctx context.Context, in repository.NewUser, cost int) (uint64, error) {
	ret := m.Called(ctx, in, cost)
	return get[uint64](ret, 0), ret.Error(1)
}

func (m *UserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	ret := m.Called(ctx, email)
	return get[model.User](ret, 0), ret.Error(1)
}

func (m *UserStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
	ret := m.Called(ctx, id)
	return get[model.User](ret, 0), ret.Error(1)
}

func (m *UserStore) UpdateProfile(ctx context.Context, id uint64, p repository.ProfileUpdate) (model.User, error) {
	ret := m.Called(ctx, id, p)
	return get[model.User](ret, 0), ret.Error(1)
}

// TokenStore mocks handler.TokenStore.
type TokenStore struct{ mock.Mock }

func NewTokenStore(t testingT) *TokenStore { m := &TokenStore{}; expect(t, &m.Mock); return m }

func (m *TokenStore) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	return m.Called(ctx, userID, tokenHash, exp).Error(0)
}

func (m *TokenStore) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	ret := m.Called(ctx, tokenHash)
	return get[uint64](ret, 0), ret.Error(1)
}

func (m *TokenStore) RevokeByHash(ctx context.Context, tokenHash string) error {
	return m.Called(ctx, tokenHash).Error(0)
}

func (m *TokenStore) RevokeAllForUser(ctx context.Context, userID uint64) error {
	return m.Called(ctx, userID).Error(0)
}
