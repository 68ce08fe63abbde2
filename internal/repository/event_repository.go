package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/campus-events/internal/model"
	"github.com/iliyamo/campus-events/internal/registration"
)

// EventRepo provides CRUD operations for events and answers the
// registration engine's event lookups.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle.
func (r *EventRepo) DB() *sql.DB { return r.db }

// EventPatch lists the event fields an update may change.  Nil fields are
// left untouched.
type EventPatch struct {
	Name          *string
	Category      *string
	Description   *string
	Date          *string
	StartTime     *string
	EndTime       *string
	Venue         *string
	Capacity      *int
	ClearCapacity bool // sets capacity to NULL; ignored when Capacity is set
	CoverImageURL *string
	Tags          *[]string
	IsPublished   *bool
}

const eventColumns = `id, name, category, description, event_date, start_time, end_time, venue,
	capacity, cover_image_url, tags, created_by, is_published, created_at, updated_at`

const insertEventQuery = `INSERT INTO events (name, category, description, event_date, start_time, end_time, venue,
	capacity, cover_image_url, tags, created_by, is_published) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const (
	selectEventQuery   = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	listPublishedQuery = `SELECT ` + eventColumns + ` FROM events WHERE is_published = 1 ORDER BY event_date ASC, id ASC`
	listAllEventsQuery = `SELECT ` + eventColumns + ` FROM events ORDER BY event_date DESC, id DESC`
	deleteEventQuery   = `DELETE FROM events WHERE id = ?`
	lookupEventQuery   = `SELECT name, event_date, is_published, capacity FROM events WHERE id = ?`
)

const countEventsQuery = `SELECT COUNT(*), COALESCE(SUM(is_published), 0),
	COALESCE(SUM(event_date >= ?), 0), COALESCE(SUM(event_date < ?), 0) FROM events`

const dateLayout = "2006-01-02"

// Create inserts ev and fills in its generated ID and timestamps.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
	tags, err := encodeTags(ev.Tags)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, insertEventQuery,
		ev.Name, ev.Category, ev.Description, ev.Date, ev.StartTime, ev.EndTime, ev.Venue,
		ev.Capacity, ev.CoverImageURL, tags, ev.CreatedBy, ev.IsPublished)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*ev = *stored
	return nil
}

// GetByID returns the event or ErrNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	ev, err := scanEvent(r.db.QueryRowContext(ctx, selectEventQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ev, err
}

// ListPublished returns published events, soonest first.
func (r *EventRepo) ListPublished(ctx context.Context) ([]model.Event, error) {
	return r.list(ctx, listPublishedQuery)
}

// ListAll returns every event, latest first, for staff views.
func (r *EventRepo) ListAll(ctx context.Context) ([]model.Event, error) {
	return r.list(ctx, listAllEventsQuery)
}

func (r *EventRepo) list(ctx context.Context, q string) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Event, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ev)
	}
	return out, rows.Err()
}

// Update applies p to the event and returns the stored row.
func (r *EventRepo) Update(ctx context.Context, id uint64, p EventPatch) (*model.Event, error) {
	sets := make([]string, 0, 11)
	args := make([]interface{}, 0, 12)
	add := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Category != nil {
		add("category", *p.Category)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Date != nil {
		add("event_date", *p.Date)
	}
	if p.StartTime != nil {
		add("start_time", *p.StartTime)
	}
	if p.EndTime != nil {
		add("end_time", *p.EndTime)
	}
	if p.Venue != nil {
		add("venue", *p.Venue)
	}
	if p.Capacity != nil {
		add("capacity", *p.Capacity)
	} else if p.ClearCapacity {
		add("capacity", nil)
	}
	if p.CoverImageURL != nil {
		add("cover_image_url", *p.CoverImageURL)
	}
	if p.Tags != nil {
		tags, err := encodeTags(*p.Tags)
		if err != nil {
			return nil, err
		}
		add("tags", tags)
	}
	if p.IsPublished != nil {
		add("is_published", *p.IsPublished)
	}
	if len(sets) > 0 {
		args = append(args, id)
		// RowsAffected is 0 for an unchanged row as well, so existence is
		// left to the read below.
		if _, err := r.db.ExecContext(ctx, "UPDATE events SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes the event.  Registrations and feedback go with it.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, deleteEventQuery, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// LookupEvent implements registration.EventLookup.
func (r *EventRepo) LookupEvent(ctx context.Context, id uint64) (registration.EventInfo, bool, error) {
	var (
		info     registration.EventInfo
		date     time.Time
		capacity sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, lookupEventQuery, id).Scan(&info.Name, &date, &info.Published, &capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return registration.EventInfo{}, false, nil
	}
	if err != nil {
		return registration.EventInfo{}, false, err
	}
	info.Date = date.Format(dateLayout)
	if capacity.Valid {
		c := int(capacity.Int64)
		info.Capacity = &c
	}
	return info, true, nil
}

// Counts splits events by publication and by date relative to today
// (YYYY-MM-DD).
func (r *EventRepo) Counts(ctx context.Context, today string) (model.EventCounts, error) {
	var c model.EventCounts
	err := r.db.QueryRowContext(ctx, countEventsQuery, today, today).Scan(&c.Total, &c.Published, &c.Upcoming, &c.Past)
	return c, err
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var (
		ev                                model.Event
		date                              time.Time
		category, description, start, end sql.NullString
		venue, cover                      sql.NullString
		capacity                          sql.NullInt64
		tags                              []byte
	)
	err := row.Scan(&ev.ID, &ev.Name, &category, &description, &date, &start, &end, &venue,
		&capacity, &cover, &tags, &ev.CreatedBy, &ev.IsPublished, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ev.Date = date.Format(dateLayout)
	ev.Category = nullString(category)
	ev.Description = nullString(description)
	ev.StartTime = nullString(start)
	ev.EndTime = nullString(end)
	ev.Venue = nullString(venue)
	ev.CoverImageURL = nullString(cover)
	if capacity.Valid {
		c := int(capacity.Int64)
		ev.Capacity = &c
	}
	ev.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &ev.Tags); err != nil {
			return nil, err
		}
	}
	return &ev, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	return string(b), err
}
