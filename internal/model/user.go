package model

import "time"

// Role names stored in users.role and carried in the JWT "role" claim.
const (
	RoleAdmin       = "ADMIN"
	RoleCoordinator = "COORDINATOR"
	RoleStudent     = "STUDENT"
)

// User represents an application user record as stored in the
// `users` table.  The json tags are omitted for the password hash so
// that the struct can be returned from profile endpoints directly.
//
// Fields:
//   - ID: primary key identifier of the user.
//   - Name: display name.
//   - Email: unique, lower-cased email address.
//   - PasswordHash: bcrypt hashed password.
//   - Role: ADMIN, COORDINATOR or STUDENT.
//   - Department: optional department.
//   - Year: optional year of study.
//   - Phone: optional phone number.
//   - IsActive: whether the account is active.
//   - CreatedAt: timestamp of creation.
//   - UpdatedAt: timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`                   // users.id
	Name         string    `json:"name"`                 // users.name
	Email        string    `json:"email"`                // users.email
	PasswordHash string    `json:"-"`                    // users.password_hash
	Role         string    `json:"role"`                 // users.role
	Department   *string   `json:"department,omitempty"` // users.department (nullable)
	Year         *string   `json:"year,omitempty"`       // users.year (nullable)
	Phone        *string   `json:"phone,omitempty"`      // users.phone (nullable)
	IsActive     bool      `json:"is_active"`            // users.is_active
	CreatedAt    time.Time `json:"created_at"`           // users.created_at
	UpdatedAt    time.Time `json:"updated_at"`           // users.updated_at
}
