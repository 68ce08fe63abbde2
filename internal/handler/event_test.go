package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-events/internal/handler/mocks"
	"github.com/iliyamo/campus-events/internal/logger"
	"github.com/iliyamo/campus-events/internal/model"
	"github.com/iliyamo/campus-events/internal/registration"
	"github.com/iliyamo/campus-events/internal/repository"
	"github.com/iliyamo/campus-events/internal/stats"
)

func TestCreateEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		setup      func(ev *mocks.EventStore, st *mocks.StatsReader)
		wantStatus int
		wantBody   string
	}{
		{
			name: "created",
			body: `{"name":"Robotics Expo","date":"2026-12-05","start_time":"10:00","capacity":120,"tags":["tech"],"is_published":true}`,
			setup: func(ev *mocks.EventStore, st *mocks.StatsReader) {
				ev.On("Create", mock.Anything, mock.MatchedBy(func(e *model.Event) bool {
					return e.Name == "Robotics Expo" && e.CreatedBy == 7 && e.IsPublished &&
						e.Capacity != nil && *e.Capacity == 120
				})).Run(func(args mock.Arguments) {
					args.Get(1).(*model.Event).ID = 11
				}).Return(nil)
				st.On("Forget", mock.Anything, uint64(11)).Return()
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "zero capacity",
			body:       `{"name":"Robotics Expo","date":"2026-12-05","capacity":0}`,
			setup:      func(*mocks.EventStore, *mocks.StatsReader) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"capacity must be a positive integer"}`,
		},
		{
			name:       "bad date",
			body:       `{"name":"Robotics Expo","date":"05/12/2026"}`,
			setup:      func(*mocks.EventStore, *mocks.StatsReader) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"date must match 2006-01-02"}`,
		},
		{
			name:       "missing name",
			body:       `{"date":"2026-12-05"}`,
			setup:      func(*mocks.EventStore, *mocks.StatsReader) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"name is required"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := mocks.NewEventStore(t)
			st := mocks.NewStatsReader(t)
			tt.setup(events, st)
			invalidated := 0
			h := NewEventHandler(events, st, func(context.Context) error { invalidated++; return nil }, logger.Discard())

			c, rec := newContext(request{method: http.MethodPost, body: tt.body, userID: 7})
			require.NoError(t, h.Create(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
			if tt.wantStatus == http.StatusCreated {
				assert.Equal(t, 1, invalidated)
				assert.Contains(t, rec.Body.String(), `"id":11`)
			} else {
				assert.Zero(t, invalidated)
			}
		})
	}
}

func TestGetEventWithMetrics(t *testing.T) {
	t.Parallel()

	events := mocks.NewEventStore(t)
	st := mocks.NewStatsReader(t)
	avg := 4.25
	events.On("GetByID", mock.Anything, uint64(1)).Return(&model.Event{ID: 1, Name: "Quiz", Date: "2026-11-01", IsPublished: true}, nil)
	events.On("GetByID", mock.Anything, uint64(2)).Return(&model.Event{ID: 2, Name: "Draft"}, nil)
	events.On("GetByID", mock.Anything, uint64(3)).Return(nil, repository.ErrNotFound)
	st.On("EventStats", mock.Anything, uint64(1)).Return(stats.EventSummary{
		EventID:  1,
		ByStatus: stats.StatusCounts{Registered: 3, Waitlisted: 2, Cancelled: 1, CheckedIn: 4},
		Admitted: 7,
		Feedback: model.FeedbackSummary{Average: &avg, Count: 4},
	}, nil)
	h := NewEventHandler(events, st, nil, logger.Discard())

	c, rec := newContext(request{id: "1"})
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(),
		`"metrics":{"registered":7,"waitlisted":2,"cancelled":1,"feedbackAvg":4.25,"feedbackCount":4}`)

	for _, id := range []string{"2", "3"} {
		c, rec := newContext(request{id: id})
		require.NoError(t, h.Get(c))
		assert.Equal(t, http.StatusNotFound, rec.Code, "event %s", id)
	}
}

func TestSearchEvents(t *testing.T) {
	t.Parallel()

	events := mocks.NewEventStore(t)
	st := mocks.NewStatsReader(t)
	events.On("SearchPublished", mock.Anything, repository.EventSearchQuery{
		Name: "hack", Category: "Tech", TimeFilter: "upcoming", Page: 2, PageSize: 100,
	}).Return([]model.Event{{ID: 4, Name: "Hackathon", Date: "2026-11-01", IsPublished: true}}, int64(101), nil)
	h := NewEventHandler(events, st, nil, logger.Discard())

	c, rec := newContext(request{query: "q=+hack+&category=Tech&page=2&page_size=500"})
	require.NoError(t, h.Search(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":101`)
	assert.Contains(t, rec.Body.String(), `"page":2`)
	assert.Contains(t, rec.Body.String(), `"page_size":100`)
	assert.Contains(t, rec.Body.String(), `"name":"Hackathon"`)

	c, rec = newContext(request{query: "time=tomorrow"})
	require.NoError(t, h.Search(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateEventClearsCapacity(t *testing.T) {
	t.Parallel()

	events := mocks.NewEventStore(t)
	st := mocks.NewStatsReader(t)
	events.On("Update", mock.Anything, uint64(1), repository.EventPatch{ClearCapacity: true}).
		Return(&model.Event{ID: 1, Name: "Quiz"}, nil)
	st.On("Forget", mock.Anything, uint64(1)).Return()
	h := NewEventHandler(events, st, nil, logger.Discard())

	c, rec := newContext(request{method: http.MethodPatch, id: "1", body: `{"clear_capacity":true}`})
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"capacity"`)

	c, rec = newContext(request{method: http.MethodPatch, id: "1", body: `{"clear_capacity":true,"capacity":10}`})
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteEvent(t *testing.T) {
	t.Parallel()

	events := mocks.NewEventStore(t)
	st := mocks.NewStatsReader(t)
	capacity := 50
	events.On("Update", mock.Anything, uint64(1), repository.EventPatch{Capacity: &capacity}).
		Return(&model.Event{ID: 1, Name: "Quiz", Capacity: &capacity}, nil)
	events.On("Delete", mock.Anything, uint64(1)).Return(nil)
	events.On("Delete", mock.Anything, uint64(2)).Return(repository.ErrNotFound)
	st.On("Forget", mock.Anything, uint64(1)).Return().Twice()
	h := NewEventHandler(events, st, nil, logger.Discard())

	c, rec := newContext(request{method: http.MethodPatch, id: "1", body: `{"capacity":50}`})
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newContext(request{method: http.MethodPatch, id: "1", body: `{"capacity":-3}`})
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newContext(request{method: http.MethodDelete, id: "1"})
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	c, rec = newContext(request{method: http.MethodDelete, id: "2"})
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsHandler(t *testing.T) {
	t.Parallel()

	st := mocks.NewStatsReader(t)
	st.On("EventStats", mock.Anything, uint64(5)).Return(stats.EventSummary{}, registration.ErrEventNotFound)
	var d stats.Dashboard
	d.Registrations.Total = 12
	st.On("Global", mock.Anything).Return(d, nil)
	h := NewStatsHandler(st, logger.Discard())

	c, rec := newContext(request{id: "5"})
	require.NoError(t, h.Event(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = newContext(request{})
	require.NoError(t, h.Global(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"registrations":{"total":12`)
}

func TestFeedbackHandler(t *testing.T) {
	t.Parallel()

	fb := mocks.NewFeedbackStore(t)
	events := mocks.NewEventLookup(t)
	st := mocks.NewStatsReader(t)
	comment := "great"
	events.On("LookupEvent", mock.Anything, uint64(1)).Return(registration.EventInfo{Name: "Quiz", Published: true}, true, nil)
	events.On("LookupEvent", mock.Anything, uint64(9)).Return(registration.EventInfo{}, false, nil)
	fb.On("Upsert", mock.Anything, uint64(1), uint64(42), 5, &comment).
		Return(&model.Feedback{ID: 1, EventID: 1, UserID: 42, Rating: 5, Comments: &comment}, nil)
	fb.On("ListByEvent", mock.Anything, uint64(1)).Return([]model.Feedback{{ID: 1, Rating: 5}}, nil)
	st.On("Forget", mock.Anything, uint64(1)).Return()
	h := NewFeedbackHandler(fb, events, st, logger.Discard())

	c, rec := newContext(request{method: http.MethodPost, id: "1", userID: 42, body: `{"rating":5,"comments":"great"}`})
	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	c, rec = newContext(request{method: http.MethodPost, id: "1", userID: 42, body: `{"rating":6}`})
	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"rating must satisfy max=5"}`, rec.Body.String())

	c, rec = newContext(request{method: http.MethodPost, id: "9", userID: 42, body: `{"rating":3}`})
	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = newContext(request{id: "1", userID: 7})
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
