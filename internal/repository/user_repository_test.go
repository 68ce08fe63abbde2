package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/campus-events/internal/model"
)

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("Asha", "asha@campus.edu", sqlmock.AnyArg(), model.RoleStudent, nil, nil, nil).
		WillReturnError(&mysql.MySQLError{Number: errDupEntry, Message: "Duplicate entry"})

	_, err = repo.Create(context.Background(), NewUser{
		Name:     " Asha ",
		Email:    " Asha@Campus.edu ",
		Password: "secret123",
		Role:     model.RoleStudent,
	}, bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmailExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCountByRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT role, COUNT(*) FROM users GROUP BY role")).
		WillReturnRows(sqlmock.NewRows([]string{"role", "count"}).
			AddRow(model.RoleAdmin, 1).AddRow(model.RoleStudent, 40))

	counts, err := repo.CountByRole(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{model.RoleAdmin: 1, model.RoleStudent: 40}, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}
