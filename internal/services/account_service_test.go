package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/avasseur/projecthub-api/internal/models"
	"github.com/avasseur/projecthub-api/internal/repository"
	"github.com/avasseur/projecthub-api/internal/storage"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type accountTestEnv struct {
	db             *gorm.DB
	accountService *AccountService
	avatarDir      string
	user           models.User
}

func setupAccountTestEnv(t *testing.T) accountTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}))

	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Email:        "ada@example.com",
		PasswordHash: string(hash),
		FirstName:    "Ada",
		LastName:     "Lindgren",
	}
	require.NoError(t, db.Create(&user).Error)

	avatarDir := t.TempDir()
	accountService := NewAccountService(
		repository.NewUserRepository(db),
		storage.NewDiskBlobStore(avatarDir),
	)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return accountTestEnv{
		db:             db,
		accountService: accountService,
		avatarDir:      avatarDir,
		user:           user,
	}
}

func TestAccountService_UpdateProfilePartial(t *testing.T) {
	env := setupAccountTestEnv(t)

	firstName := "Adela"
	updated, err := env.accountService.UpdateProfile(env.user.ID, UpdateProfileInput{
		FirstName: &firstName,
	})
	require.NoError(t, err)
	require.Equal(t, "Adela", updated.FirstName)
	require.Equal(t, env.user.LastName, updated.LastName)
	require.Equal(t, env.user.Email, updated.Email)
}

func TestAccountService_UpdateProfileEmailTaken(t *testing.T) {
	env := setupAccountTestEnv(t)

	other := models.User{Email: "taken@example.com", PasswordHash: "x", FirstName: "Tia", LastName: "Moss"}
	require.NoError(t, env.db.Create(&other).Error)

	email := "TAKEN@example.com"
	_, err := env.accountService.UpdateProfile(env.user.ID, UpdateProfileInput{
		Email: &email,
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestAccountService_UpdateProfilePassword(t *testing.T) {
	env := setupAccountTestEnv(t)

	password := "new-password"
	updated, err := env.accountService.UpdateProfile(env.user.ID, UpdateProfileInput{
		Password: &password,
	})
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte(password)))

	short := "short"
	_, err = env.accountService.UpdateProfile(env.user.ID, UpdateProfileInput{
		Password: &short,
	})
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestAccountService_UpdateAvatar(t *testing.T) {
	env := setupAccountTestEnv(t)

	updated, err := env.accountService.UpdateAvatar(env.user.ID, "portrait.png", strings.NewReader("fake-png-bytes"))
	require.NoError(t, err)
	require.NotNil(t, updated.Avatar)
	require.True(t, strings.HasSuffix(*updated.Avatar, "portrait.png"))

	data, err := os.ReadFile(*updated.Avatar)
	require.NoError(t, err)
	require.Equal(t, "fake-png-bytes", string(data))

	entries, err := os.ReadDir(env.avatarDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, filepath.Base(*updated.Avatar), entries[0].Name())
}
