package repository

import (
	"context"
	"database/sql"
	"math"

	"github.com/iliyamo/campus-events/internal/model"
)

// FeedbackRepo stores one rating per (event, user).
type FeedbackRepo struct {
	db *sql.DB
}

// NewFeedbackRepo returns a FeedbackRepo bound to db.
func NewFeedbackRepo(db *sql.DB) *FeedbackRepo { return &FeedbackRepo{db: db} }

const (
	upsertFeedbackQuery = `INSERT INTO feedback (event_id, user_id, rating, comments) VALUES (?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE rating = VALUES(rating), comments = VALUES(comments), updated_at = UTC_TIMESTAMP()`
	selectFeedbackQuery = `SELECT id, event_id, user_id, rating, comments, created_at, updated_at
	FROM feedback WHERE event_id = ? AND user_id = ?`
	listFeedbackQuery = `SELECT f.id, f.event_id, f.user_id, f.rating, f.comments, f.created_at, f.updated_at,
	u.name, u.email
	FROM feedback f
	LEFT JOIN users u ON u.id = f.user_id
	WHERE f.event_id = ?
	ORDER BY f.created_at DESC, f.id DESC`
	summaryFeedbackQuery      = `SELECT AVG(rating), COUNT(*) FROM feedback`
	summaryEventFeedbackQuery = `SELECT AVG(rating), COUNT(*) FROM feedback WHERE event_id = ?`
)

// Upsert creates the user's feedback for the event or replaces the
// existing one, and returns the stored row.
func (r *FeedbackRepo) Upsert(ctx context.Context, eventID, userID uint64, rating int, comments *string) (*model.Feedback, error) {
	if _, err := r.db.ExecContext(ctx, upsertFeedbackQuery, eventID, userID, rating, comments); err != nil {
		return nil, err
	}
	var (
		fb   model.Feedback
		note sql.NullString
	)
	err := r.db.QueryRowContext(ctx, selectFeedbackQuery, eventID, userID).Scan(
		&fb.ID, &fb.EventID, &fb.UserID, &fb.Rating, &note, &fb.CreatedAt, &fb.UpdatedAt)
	if err != nil {
		return nil, err
	}
	fb.Comments = nullString(note)
	return &fb, nil
}

// ListByEvent returns the event's feedback, newest first, with author
// name and email.
func (r *FeedbackRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Feedback, error) {
	rows, err := r.db.QueryContext(ctx, listFeedbackQuery, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Feedback, 0)
	for rows.Next() {
		var (
			fb          model.Feedback
			note        sql.NullString
			name, email sql.NullString
		)
		if err := rows.Scan(&fb.ID, &fb.EventID, &fb.UserID, &fb.Rating, &note, &fb.CreatedAt, &fb.UpdatedAt,
			&name, &email); err != nil {
			return nil, err
		}
		fb.Comments = nullString(note)
		if name.Valid || email.Valid {
			fb.Author = &model.ParticipantSummary{Name: name.String, Email: email.String}
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}

// Summary averages ratings for one event, or for all events when eventID
// is nil.
func (r *FeedbackRepo) Summary(ctx context.Context, eventID *uint64) (model.FeedbackSummary, error) {
	var (
		avg sql.NullFloat64
		out model.FeedbackSummary
		err error
	)
	if eventID == nil {
		err = r.db.QueryRowContext(ctx, summaryFeedbackQuery).Scan(&avg, &out.Count)
	} else {
		err = r.db.QueryRowContext(ctx, summaryEventFeedbackQuery, *eventID).Scan(&avg, &out.Count)
	}
	if err != nil {
		return model.FeedbackSummary{}, err
	}
	if avg.Valid && out.Count > 0 {
		v := math.Round(avg.Float64*100) / 100
		out.Average = &v
	}
	return out, nil
}
