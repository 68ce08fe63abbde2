package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/campus-events/internal/model"
	"github.com/iliyamo/campus-events/internal/registration"
)

// RegistrationRepo is the MySQL registration.Store.  Upsert runs in one
// transaction that first locks the event row, so writers for the same
// event queue up on that lock while the admitted count and the write
// happen under it.
type RegistrationRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewRegistrationRepo returns a RegistrationRepo bound to db.
func NewRegistrationRepo(db *sql.DB) *RegistrationRepo {
	return &RegistrationRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

var _ registration.Store = (*RegistrationRepo)(nil)

const registrationColumns = `id, event_id, participant_id, status, code, created_at, updated_at`

const (
	lockEventQuery          = `SELECT is_published, capacity FROM events WHERE id = ? FOR UPDATE`
	lockRegistrationQuery   = `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = ? AND participant_id = ? FOR UPDATE`
	countAdmittedQuery      = `SELECT COUNT(*) FROM registrations WHERE event_id = ? AND status IN ('registered', 'checked_in')`
	insertRegistrationQuery = `INSERT INTO registrations (event_id, participant_id, status, code, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	updateRegistrationQuery = `UPDATE registrations SET status = ?, code = ?, updated_at = ? WHERE id = ?`
	findByCodeQuery         = `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = ? AND code = ?`
	findByParticipantQuery  = `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = ? AND participant_id = ?`
	listByParticipantQuery  = `SELECT ` + registrationColumns + ` FROM registrations WHERE participant_id = ? ORDER BY created_at DESC, id DESC`
	countByStatusQuery      = `SELECT status, COUNT(*) FROM registrations GROUP BY status`
	countByStatusEventQuery = `SELECT status, COUNT(*) FROM registrations WHERE event_id = ? GROUP BY status`
	countParticipantsQuery  = `SELECT COUNT(DISTINCT participant_id) FROM registrations`
)

const listByEventQuery = `SELECT r.id, r.event_id, r.participant_id, r.status, r.code, r.created_at, r.updated_at,
	u.name, u.email
	FROM registrations r
	LEFT JOIN users u ON u.id = r.participant_id
	WHERE r.event_id = ?
	ORDER BY r.id ASC`

// codeKey is the unique index that keeps check-in codes distinct per event.
const codeKey = "uq_registrations_code"

// Upsert implements registration.Store.
func (r *RegistrationRepo) Upsert(ctx context.Context, key registration.Key, fn registration.Mutator) (*model.Registration, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var (
		event    registration.EventInfo
		capacity sql.NullInt64
	)
	if err := tx.QueryRowContext(ctx, lockEventQuery, key.EventID).Scan(&event.Published, &capacity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, registration.ErrEventNotFound
		}
		return nil, classify(err)
	}
	if capacity.Valid {
		c := int(capacity.Int64)
		event.Capacity = &c
	}

	cur, err := scanRegistration(tx.QueryRowContext(ctx, lockRegistrationQuery, key.EventID, key.ParticipantID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		cur = nil
	case err != nil:
		return nil, classify(err)
	}

	var admitted int
	if err := tx.QueryRowContext(ctx, countAdmittedQuery, key.EventID).Scan(&admitted); err != nil {
		return nil, classify(err)
	}

	var view *model.Registration
	if cur != nil {
		cp := *cur
		view = &cp
	}
	next, err := fn(view, registration.Snapshot{Admitted: admitted, Event: &event})
	if err != nil {
		return nil, err
	}
	if next == nil {
		return cur, nil
	}

	rec := *next
	rec.EventID = key.EventID
	rec.ParticipantID = key.ParticipantID
	rec.UpdatedAt = r.now()
	if cur == nil {
		rec.CreatedAt = rec.UpdatedAt
		res, err := tx.ExecContext(ctx, insertRegistrationQuery,
			rec.EventID, rec.ParticipantID, string(rec.Status), rec.Code, rec.CreatedAt, rec.UpdatedAt)
		if err != nil {
			return nil, classify(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		rec.ID = uint64(id)
	} else {
		rec.ID = cur.ID
		rec.CreatedAt = cur.CreatedAt
		if _, err := tx.ExecContext(ctx, updateRegistrationQuery,
			string(rec.Status), rec.Code, rec.UpdatedAt, rec.ID); err != nil {
			return nil, classify(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(err)
	}
	committed = true
	rec.Participant = nil
	return &rec, nil
}

// FindByCode implements registration.Store.  The code column uses a
// binary collation so the match is exact.
func (r *RegistrationRepo) FindByCode(ctx context.Context, eventID uint64, code string) (*model.Registration, bool, error) {
	return r.findOne(ctx, findByCodeQuery, eventID, code)
}

// FindByParticipant implements registration.Store.
func (r *RegistrationRepo) FindByParticipant(ctx context.Context, eventID, participantID uint64) (*model.Registration, bool, error) {
	return r.findOne(ctx, findByParticipantQuery, eventID, participantID)
}

func (r *RegistrationRepo) findOne(ctx context.Context, q string, args ...interface{}) (*model.Registration, bool, error) {
	reg, err := scanRegistration(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify(err)
	}
	return reg, true, nil
}

// CountAdmitted implements registration.Store.
func (r *RegistrationRepo) CountAdmitted(ctx context.Context, eventID uint64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countAdmittedQuery, eventID).Scan(&n); err != nil {
		return 0, classify(err)
	}
	return n, nil
}

// ListByEvent implements registration.Store.  Each record carries the
// participant's name and email for staff views.
func (r *RegistrationRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Registration, error) {
	rows, err := r.db.QueryContext(ctx, listByEventQuery, eventID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := make([]model.Registration, 0)
	for rows.Next() {
		var (
			reg         model.Registration
			status      string
			name, email sql.NullString
		)
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.ParticipantID, &status, &reg.Code,
			&reg.CreatedAt, &reg.UpdatedAt, &name, &email); err != nil {
			return nil, err
		}
		reg.Status = model.RegistrationStatus(status)
		if name.Valid || email.Valid {
			reg.Participant = &model.ParticipantSummary{Name: name.String, Email: email.String}
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

// ListByParticipant implements registration.Store.
func (r *RegistrationRepo) ListByParticipant(ctx context.Context, participantID uint64) ([]model.Registration, error) {
	rows, err := r.db.QueryContext(ctx, listByParticipantQuery, participantID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := make([]model.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *reg)
	}
	return out, rows.Err()
}

// CountByStatus implements registration.Store.
func (r *RegistrationRepo) CountByStatus(ctx context.Context, eventID *uint64) (map[model.RegistrationStatus]int, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if eventID == nil {
		rows, err = r.db.QueryContext(ctx, countByStatusQuery)
	} else {
		rows, err = r.db.QueryContext(ctx, countByStatusEventQuery, *eventID)
	}
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := make(map[model.RegistrationStatus]int, len(model.Statuses))
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[model.RegistrationStatus(status)] = n
	}
	return out, rows.Err()
}

// CountParticipants implements registration.Store.
func (r *RegistrationRepo) CountParticipants(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countParticipantsQuery).Scan(&n); err != nil {
		return 0, classify(err)
	}
	return n, nil
}

func scanRegistration(row rowScanner) (*model.Registration, error) {
	var (
		reg    model.Registration
		status string
	)
	if err := row.Scan(&reg.ID, &reg.EventID, &reg.ParticipantID, &status, &reg.Code, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
		return nil, err
	}
	reg.Status = model.RegistrationStatus(status)
	return &reg, nil
}

// classify marks contention, timeouts and dropped connections as
// transient so the engine retries them.  A duplicate check-in code is a
// transient collision; the retry draws a fresh code.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, sql.ErrConnDone) {
		return registration.Transient(err)
	}
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case errLockWaitTimeout, errDeadlock:
		return registration.Transient(err)
	case errDupEntry:
		if strings.Contains(me.Message, codeKey) {
			return registration.Transient(fmt.Errorf("%w: %v", registration.ErrCodeCollision, err))
		}
		return registration.Transient(err)
	}
	return err
}
