package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/campus-events/internal/model"
)

// EventSearchQuery filters and paginates published events.
type EventSearchQuery struct {
	Name       string
	Category   string
	Venue      string
	Tag        string
	TimeFilter string // "upcoming" (default), "past" or "any"
	Page       int
	PageSize   int
}

// SearchPublished returns one page of published events matching q and the
// total number of matches.
func (r *EventRepo) SearchPublished(ctx context.Context, q EventSearchQuery) ([]model.Event, int64, error) {
	where := []string{"is_published = 1"}
	args := []any{}

	switch strings.ToLower(q.TimeFilter) {
	case "any":
	case "past":
		where = append(where, "event_date < CURDATE()")
	default:
		where = append(where, "event_date >= CURDATE()")
	}

	if q.Name != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Name)+"%")
	}
	if q.Category != "" {
		where = append(where, "LOWER(category) = ?")
		args = append(args, strings.ToLower(q.Category))
	}
	if q.Venue != "" {
		where = append(where, "LOWER(venue) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Venue)+"%")
	}
	if q.Tag != "" {
		where = append(where, "JSON_CONTAINS(tags, JSON_QUOTE(?))")
		args = append(args, q.Tag)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "event_date ASC, id ASC"
	if strings.ToLower(q.TimeFilter) == "past" {
		order = "event_date DESC, id DESC"
	}
	dataSQL := `SELECT ` + eventColumns + ` FROM events WHERE ` + cond + ` ORDER BY ` + order + ` LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Event, 0, q.PageSize)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
