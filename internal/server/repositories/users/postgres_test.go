package users

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/testmart/internal/common"
	"github.com/dmitrijs2005/testmart/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "7b0c2a8e-6a53-4f8e-9d7c-1f4f3c2b9a10"

var userColumns = []string{
	"id", "email", "password_hash", "email_confirmed", "created_at", "updated_at",
	"last_login_at", "failed_login_count", "lockout_until", "confirmation_consumed_at",
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,\s*password_hash,\s*email_confirmed,\s*created_at,\s*updated_at\).*RETURNING\s+created_at,\s*updated_at`

	mock.ExpectQuery(q).
		WithArgs(sqlmock.AnyArg(), "alice@example.com", "hash", false, now, now).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	u := &models.User{Email: "alice@example.com", PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}
	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "alice@example.com", got.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{Email: "alice@example.com"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "alice@example.com"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	lockout := now.Add(5 * time.Minute)
	rows := sqlmock.NewRows(userColumns).
		AddRow(testUserID, "alice@example.com", "hash", true, now, now, nil, 3, lockout, nil)

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`).
		WithArgs("alice@example.com").
		WillReturnRows(rows)

	got, err := repo.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, testUserID, got.ID)
	assert.True(t, got.EmailConfirmed)
	assert.Equal(t, 3, got.FailedLoginCount)
	assert.Nil(t, got.LastLoginAt)
	require.NotNil(t, got.LockoutUntil)
	assert.True(t, got.LockoutUntil.Equal(lockout))
	assert.Nil(t, got.ConfirmationConsumedAt)
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+email`).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFindByID_MalformedIDIsNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	_, err := repo.FindByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLockByEmail_UsesRowLock(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`(?s)WHERE\s+email\s*=\s*\$1\s+FOR\s+UPDATE$`).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(testUserID, "alice@example.com", "hash", false, now, now, now, 0, nil, now))

	got, err := repo.LockByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.NotNil(t, got.LastLoginAt)
	assert.NotNil(t, got.ConfirmationConsumedAt)
}

func TestLockByID_UsesRowLock(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE$`).
		WithArgs(testUserID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.LockByID(context.Background(), testUserID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdate(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name     string
		result   driver.Result
		execErr  error
		wantErr  error
		wantWrap bool
	}{
		{name: "ok", result: sqlmock.NewResult(0, 1)},
		{name: "missing", result: sqlmock.NewResult(0, 0), wantErr: common.ErrorNotFound},
		{name: "db error", execErr: errors.New("boom"), wantWrap: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			exp := mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET.*WHERE\s+id\s*=\s*\$1`).
				WithArgs(testUserID, "alice@example.com", "hash", true, now,
					sqlmock.AnyArg(), 2, sqlmock.AnyArg(), sqlmock.AnyArg())
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(tt.result)
			}

			err := repo.Update(context.Background(), &models.User{
				ID: testUserID, Email: "alice@example.com", PasswordHash: "hash",
				EmailConfirmed: true, UpdatedAt: now, FailedLoginCount: 2,
			})

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantWrap:
				assert.ErrorContains(t, err, "db error")
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs(testUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), testUserID))

	mock.ExpectExec(`DELETE\s+FROM\s+users`).
		WithArgs(testUserID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), testUserID), common.ErrorNotFound)

	assert.ErrorIs(t, repo.Delete(context.Background(), "bogus"), common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
