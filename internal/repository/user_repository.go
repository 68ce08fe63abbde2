package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/campus-events/internal/model"
	"github.com/iliyamo/campus-events/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// NewUser carries the fields accepted at sign-up.
type NewUser struct {
	Name       string
	Email      string
	Password   string
	Role       string
	Department *string
	Year       *string
	Phone      *string
}

// ProfileUpdate lists the profile fields a user may change.  Nil fields
// are left untouched.
type ProfileUpdate struct {
	Name       *string
	Department *string
	Year       *string
	Phone      *string
}

const userColumns = "id,name,email,password_hash,role,department,year,phone,is_active,created_at,updated_at"

// Create inserts user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, in NewUser, cost int) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role, department, year, phone) VALUES (?,?,?,?,?,?,?)",
		strings.TrimSpace(in.Name), email, hash, in.Role, in.Department, in.Year, in.Phone)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// UpdateProfile applies the non-nil fields of p and returns the stored
// user.  sql.ErrNoRows is returned for an unknown id.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, p ProfileUpdate) (model.User, error) {
	sets := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	if p.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, strings.TrimSpace(*p.Name))
	}
	if p.Department != nil {
		sets = append(sets, "department=?")
		args = append(args, *p.Department)
	}
	if p.Year != nil {
		sets = append(sets, "year=?")
		args = append(args, *p.Year)
	}
	if p.Phone != nil {
		sets = append(sets, "phone=?")
		args = append(args, *p.Phone)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE users SET "+strings.Join(sets, ",")+" WHERE id=?", args...); err != nil {
			return model.User{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// EnsureAdmin creates an ADMIN account for email unless one exists.  It
// reports whether a row was inserted.
func (r *UserRepo) EnsureAdmin(ctx context.Context, name, email, password string, cost int) (bool, error) {
	if _, err := r.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	_, err := r.Create(ctx, NewUser{Name: name, Email: email, Password: password, Role: model.RoleAdmin}, cost)
	if errors.Is(err, ErrEmailExists) {
		return false, nil
	}
	return err == nil, err
}

// CountByRole returns the number of users per role.
func (r *UserRepo) CountByRole(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT role, COUNT(*) FROM users GROUP BY role")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var (
			role string
			n    int
		)
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		out[role] = n
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u                       model.User
		department, year, phone sql.NullString
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&department, &year, &phone, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.Department = nullString(department)
	u.Year = nullString(year)
	u.Phone = nullString(phone)
	return u, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
