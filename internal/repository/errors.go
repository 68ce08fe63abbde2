// Package repository holds the MySQL data access layer.  The sentinel
// values below are shared across repositories so that handlers can tell
// failure scenarios apart.  ErrNotFound means the addressed row does not
// exist, ErrForbidden that the caller may not touch a row owned by someone
// else, and ErrConflict that the write clashes with existing rows.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot be performed because
// of conflicting state. Handlers should translate this into an HTTP
// 409 response.
var ErrConflict = errors.New("conflict")

// MySQL server error numbers the repositories react to.
const (
	errDupEntry        = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// mysqlErrNumber returns the server error number carried by err, or 0.
func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// isDuplicate reports whether err is a unique key violation.
func isDuplicate(err error) bool { return mysqlErrNumber(err) == errDupEntry }
