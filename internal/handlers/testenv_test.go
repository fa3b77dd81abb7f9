package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avasseur/projecthub-api/internal/config"
	"github.com/avasseur/projecthub-api/internal/database"
	"github.com/avasseur/projecthub-api/internal/middleware"
	"github.com/avasseur/projecthub-api/internal/models"
	"github.com/avasseur/projecthub-api/internal/repository"
	"github.com/avasseur/projecthub-api/internal/services"
	"github.com/avasseur/projecthub-api/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// handlerTestEnv boots the full HTTP surface against an in-memory database,
// with the same route wiring the server uses.
type handlerTestEnv struct {
	db                *gorm.DB
	router            *gin.Engine
	cfg               *config.Config
	authService       *services.AuthService
	projectService    *services.ProjectService
	invitationService *services.InvitationService
	taskService       *services.TaskService
}

func setupHandlerTestEnv(t *testing.T) handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.ProjectInvitation{},
		&models.Task{},
		&models.RefreshToken{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	cfg := &config.Config{
		JWTSecret:             "test-secret",
		JWTIssuer:             "projecthub-test",
		AccessTokenTTL:        15 * time.Minute,
		RefreshTokenTTL:       7 * 24 * time.Hour,
		RefreshCookieEnabled:  true,
		RefreshCookieName:     "refresh_token",
		RefreshCookiePath:     "/",
		RefreshCookieHTTPOnly: true,
		RefreshCookieSameSite: http.SameSiteLaxMode,
		AvatarDir:             t.TempDir(),
	}

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	tokenService := services.NewTokenService(refreshTokenRepo, cfg)
	authService := services.NewAuthService(userRepo, tokenService)
	accountService := services.NewAccountService(userRepo, storage.NewDiskBlobStore(cfg.AvatarDir))
	projectService := services.NewProjectService(projectRepo)
	invitationService := services.NewInvitationService(invitationRepo, projectRepo, userRepo)
	taskService := services.NewTaskService(taskRepo, projectRepo)

	authHandler := NewAuthHandler(authService, cfg)
	accountHandler := NewAccountHandler(accountService, authService)
	projectHandler := NewProjectHandler(projectService, invitationService)
	taskHandler := NewTaskHandler(taskService)

	r := gin.New()
	requireAuth := middleware.RequireAuth(tokenService)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		account := api.Group("/account")
		account.Use(requireAuth)
		{
			account.GET("", accountHandler.GetProfile)
			account.PATCH("", accountHandler.UpdateProfile)
			account.PUT("/avatar", accountHandler.UpdateAvatar)
		}

		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)

			projects.POST("/:project/invitations/:invitation/accept", projectHandler.AcceptInvitation)
			projects.POST("/:project/invitations/:invitation/refuse", projectHandler.RefuseInvitation)

			scoped := projects.Group("/:project")
			scoped.Use(middleware.RequireProjectAccess())
			{
				scoped.GET("", projectHandler.GetProject)
				scoped.DELETE("", middleware.RequireProjectManager(), projectHandler.DeleteProject)
				scoped.GET("/members", projectHandler.ListMembers)
				scoped.POST("/leave", projectHandler.Leave)
				scoped.DELETE("/members/:user", middleware.RequireProjectManager(), projectHandler.RemoveMember)
				scoped.POST("/invitations", middleware.RequireProjectManager(), projectHandler.Invite)

				tasks := scoped.Group("/tasks")
				{
					tasks.GET("", taskHandler.ListRootTasks)
					tasks.POST("", middleware.RequireTaskEditor(), taskHandler.CreateTask)
					tasks.GET("/:task", taskHandler.GetTask)
					tasks.GET("/:task/subtree", taskHandler.GetSubtree)
					tasks.PATCH("/:task", middleware.RequireTaskEditor(), taskHandler.UpdateTask)
					tasks.POST("/:task/move", middleware.RequireTaskEditor(), taskHandler.MoveTask)
					tasks.DELETE("/:task", middleware.RequireTaskEditor(), taskHandler.DeleteTask)
				}
			}
		}
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return handlerTestEnv{
		db:                db,
		router:            r,
		cfg:               cfg,
		authService:       authService,
		projectService:    projectService,
		invitationService: invitationService,
		taskService:       taskService,
	}
}

// registerAndLogin creates an account and returns the user plus a valid
// bearer token.
func (env handlerTestEnv) registerAndLogin(t *testing.T, email string) (*models.User, string) {
	t.Helper()

	user, err := env.authService.Register(services.RegisterInput{
		Email:     email,
		Password:  "supersecret",
		FirstName: "Test",
		LastName:  "User",
	})
	require.NoError(t, err)

	result, err := env.authService.Login(email, "supersecret")
	require.NoError(t, err)

	return user, result.AccessToken
}

func (env handlerTestEnv) request(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}
