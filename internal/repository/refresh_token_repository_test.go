package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/avasseur/projecthub-api/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupMockRepo runs the repository against a mocked postgres connection so
// the exact statement sequence of a rotation can be asserted.
func setupMockRepo(t *testing.T) (RefreshTokenRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewRefreshTokenRepository(db), mock
}

func TestRefreshTokenRepository_RotateDeletesAndInsertsAtomically(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "refresh_tokens" WHERE`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "refresh_tokens"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
	mock.ExpectCommit()

	replacement := &models.RefreshToken{
		Token:     "replacement-value",
		UserID:    42,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Rotate(7, replacement))
	require.EqualValues(t, 8, replacement.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_RotateLosesRaceWithoutInsert(t *testing.T) {
	repo, mock := setupMockRepo(t)

	// The old row is already gone: the insert must never be issued and the
	// transaction rolls back.
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "refresh_tokens" WHERE`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	replacement := &models.RefreshToken{
		Token:     "replacement-value",
		UserID:    42,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	err := repo.Rotate(7, replacement)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_DeleteByTokenIgnoresMisses(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectExec(`DELETE FROM "refresh_tokens" WHERE token = \$1`).
		WithArgs("unknown-value").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteByToken("unknown-value"))
	require.NoError(t, mock.ExpectationsWereMet())
}
