package user

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func setupMock(t *testing.T) (Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { sqlxDB.Close() })

	return NewRepository(sqlxDB), mock
}

func userRows(id int, name, email, role string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at"}).
		AddRow(id, name, email, "hash", role, time.Now())
}

func TestCreateAndFind(t *testing.T) {
	repo, mock := setupMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING id, name, email, password_hash, role, created_at")).
		WithArgs("Ann", "ann@example.com", "hash", "member").
		WillReturnRows(userRows(1, "Ann", "ann@example.com", "member"))

	u, err := repo.Create(ctx, "Ann", "ann@example.com", "hash", "member")
	require.NoError(t, err)
	require.Equal(t, 1, u.ID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, password_hash, role, created_at FROM users WHERE id = $1")).
		WithArgs(1).
		WillReturnRows(userRows(1, "Ann", "ann@example.com", "member"))

	got, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", got.Email)
}

func TestFindByEmailNotFound(t *testing.T) {
	repo, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, password_hash, role, created_at FROM users WHERE email = $1")).
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByEmail(context.Background(), "missing@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestFindOrCreateGuestExisting(t *testing.T) {
	repo, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, password_hash, role, created_at FROM users WHERE email = $1")).
		WithArgs("guest@example.com").
		WillReturnRows(userRows(9, "Guest", "guest@example.com", "member"))

	u, err := repo.FindOrCreateGuest(context.Background(), "Other Name", "guest@example.com")
	require.NoError(t, err)
	require.Equal(t, 9, u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOrCreateGuestInserts(t *testing.T) {
	repo, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, password_hash, role, created_at FROM users WHERE email = $1")).
		WithArgs("new@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, '', 'member') ON CONFLICT (email) DO UPDATE SET name = users.name RETURNING id, name, email, password_hash, role, created_at")).
		WithArgs("Newbie", "new@example.com").
		WillReturnRows(userRows(10, "Newbie", "new@example.com", "member"))

	u, err := repo.FindOrCreateGuest(context.Background(), "Newbie", "new@example.com")
	require.NoError(t, err)
	require.Equal(t, 10, u.ID)
}
