package main

import (
	"log"

	"github.com/avasseur/projecthub-api/internal/config"
	"github.com/avasseur/projecthub-api/internal/database"
	"github.com/avasseur/projecthub-api/internal/handlers"
	"github.com/avasseur/projecthub-api/internal/middleware"
	"github.com/avasseur/projecthub-api/internal/repository"
	"github.com/avasseur/projecthub-api/internal/services"
	"github.com/avasseur/projecthub-api/internal/storage"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db := database.GetDB()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	// Services
	tokenService := services.NewTokenService(refreshTokenRepo, cfg)
	authService := services.NewAuthService(userRepo, tokenService)
	accountService := services.NewAccountService(userRepo, storage.NewDiskBlobStore(cfg.AvatarDir))
	projectService := services.NewProjectService(projectRepo)
	invitationService := services.NewInvitationService(invitationRepo, projectRepo, userRepo)
	taskService := services.NewTaskService(taskRepo, projectRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, cfg)
	accountHandler := handlers.NewAccountHandler(accountService, authService)
	projectHandler := handlers.NewProjectHandler(projectService, invitationService)
	taskHandler := handlers.NewTaskHandler(taskService)

	// Initialize Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "ProjectHub API is running",
		})
	})

	requireAuth := middleware.RequireAuth(tokenService)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public except /me)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		// Account routes (protected)
		account := api.Group("/account")
		account.Use(requireAuth)
		{
			account.GET("", accountHandler.GetProfile)
			account.PATCH("", accountHandler.UpdateProfile)
			account.PUT("/avatar", accountHandler.UpdateAvatar)
		}

		// Project routes (protected)
		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)

			// Invitation redemption is reachable by the invited user, who is
			// not yet a member, so it sits outside RequireProjectAccess.
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

	// Start server
	log.Println("Server starting on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
