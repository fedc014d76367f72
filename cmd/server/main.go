package main

import (
	"context"
	"log"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"

	"github.com/devtrackhq/statusboard/internal/config"
	"github.com/devtrackhq/statusboard/internal/database"
	"github.com/devtrackhq/statusboard/internal/events"
	"github.com/devtrackhq/statusboard/internal/handlers"
	"github.com/devtrackhq/statusboard/internal/middleware"
	"github.com/devtrackhq/statusboard/internal/repository"
	"github.com/devtrackhq/statusboard/internal/services"
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
	database.AddIndexes(database.GetDB())

	// Change event fanout: one bus shared by the websocket hub and any
	// in-process board sessions.
	bus := events.NewBus()
	hub := events.NewHub(bus)
	go hub.Run(context.Background())

	// Wire repositories and services
	db := database.GetDB()
	taskRepo := repository.NewTaskRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	developerRepo := repository.NewDeveloperRepository(db)
	changeLogRepo := repository.NewChangeLogRepository(db)

	authService := services.NewAuthService(developerRepo)
	taskService := services.NewTaskService(taskRepo, projectRepo, changeLogRepo, bus)
	projectService := services.NewProjectService(projectRepo, changeLogRepo, bus)
	developerService := services.NewDeveloperService(developerRepo, bus)
	changeLogService := services.NewChangeLogService(changeLogRepo)

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,                        // Redis pool size
		"tcp",                     // network type
		redisAddr,                 // Redis address from config
		"",                        // username (empty for default user)
		"",                        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions("board_session", store))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, developerService)
	taskHandler := handlers.NewTaskHandler(taskService)
	projectHandler := handlers.NewProjectHandler(projectService)
	developerHandler := handlers.NewDeveloperHandler(developerService)
	changeLogHandler := handlers.NewChangeLogHandler(changeLogService)
	wsHandler := handlers.NewWSHandler(hub, developerService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Status board API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentDeveloper)
		}

		// Websocket change feed (protected)
		api.GET("/ws", middleware.RequireAuth(), wsHandler.Subscribe)

		// Project routes (protected)
		projects := api.Group("/projects")
		projects.Use(middleware.RequireAuth())
		{
			projects.GET("", projectHandler.ListProjects)
			projects.POST("", projectHandler.CreateProject)
			projects.GET("/:id", projectHandler.GetProject)
			projects.PATCH("/:id", projectHandler.UpdateProject)
			projects.DELETE("/:id", projectHandler.DeleteProject)
			projects.GET("/:id/tasks", taskHandler.ListProjectTasks)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.GET("/all", taskHandler.ListAllTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.PUT("/bulk", taskHandler.BulkUpdateTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PATCH("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
			tasks.POST("/:id/assign", taskHandler.AssignTask)
			tasks.POST("/:id/unassign", taskHandler.UnassignTask)
		}

		// Developer routes (protected)
		developers := api.Group("/developers")
		developers.Use(middleware.RequireAuth())
		{
			developers.GET("", developerHandler.ListDevelopers)
			developers.GET("/:id", developerHandler.GetDeveloper)
			developers.PATCH("/me", developerHandler.UpdateProfile)
			developers.PUT("/:id/roles", developerHandler.SetRoles)
		}

		// Role and audit routes (protected)
		api.GET("/roles", middleware.RequireAuth(), developerHandler.ListRoles)
		api.GET("/changes", middleware.RequireAuth(), changeLogHandler.ListChanges)
	}

	// Start server
	log.Println("Server starting on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
