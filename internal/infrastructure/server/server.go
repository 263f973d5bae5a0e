package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/todobot/core/docs"
	httpHandlers "github.com/todobot/core/internal/adapters/http"
	"github.com/todobot/core/internal/adapters/redisstore"
	"github.com/todobot/core/internal/adapters/repository"
	"github.com/todobot/core/internal/application/services"
	"github.com/todobot/core/internal/infrastructure/config"
	"github.com/todobot/core/internal/infrastructure/database"
	"github.com/todobot/core/internal/infrastructure/logger"
	"github.com/todobot/core/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo   *echo.Echo
	config *config.Config
	logger *logger.Logger
	db     *database.DB
	redis  *redis.Client
}

// New creates the task API server
func New(cfg *config.Config, db *database.DB, redisClient *redis.Client, appLogger *logger.Logger) (*Server, error) {
	e := newEcho(cfg, appLogger)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	categoryRepo := repository.NewCategoryRepository(db.DB)
	taskRepo := repository.NewTaskRepository(db.DB)
	reminders := redisstore.NewReminderQueue(redisClient)

	// Initialize services
	authService := services.NewAuthService(cfg.Security)
	userService := services.NewUserService(userRepo, appLogger)
	categoryService := services.NewCategoryService(categoryRepo, appLogger)
	taskService := services.NewTaskService(taskRepo, categoryRepo, userService, reminders, appLogger)

	// Initialize handlers
	categoryHandler := httpHandlers.NewCategoryHandler(categoryService, appLogger)
	taskHandler := httpHandlers.NewTaskHandler(taskService, appLogger)

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger.WithComponent("api"),
		db:     db,
		redis:  redisClient,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup metrics
	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	// Setup routes
	server.setupRoutes(categoryHandler, taskHandler, authService)

	return server, nil
}

// newEcho builds an echo instance with the shared validator and error handler
func newEcho(cfg *config.Config, appLogger *logger.Logger) *echo.Echo {
	e := echo.New()

	e.Validator = httpHandlers.NewValidator()
	e.Debug = cfg.App.IsDevelopment()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	// Trailing slashes are optional on every route
	e.Pre(middleware.RemoveTrailingSlash())

	return e
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(categoryHandler *httpHandlers.CategoryHandler, taskHandler *httpHandlers.TaskHandler, authService *services.AuthService) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	api := s.echo.Group("/api")
	if s.config.Security.TokenAuthEnabled() {
		api.Use(s.authMiddleware(authService))
	} else {
		s.logger.Warn("API token secret is not set, the API is open")
	}

	categoryGroup := api.Group("/categories")
	categoryGroup.GET("", categoryHandler.ListCategories)
	categoryGroup.POST("", categoryHandler.CreateCategory)
	categoryGroup.GET("/:id", categoryHandler.GetCategory)
	categoryGroup.PUT("/:id", categoryHandler.UpdateCategory)
	categoryGroup.PATCH("/:id", categoryHandler.UpdateCategory)
	categoryGroup.DELETE("/:id", categoryHandler.DeleteCategory)

	taskGroup := api.Group("/tasks")
	taskGroup.GET("", taskHandler.ListTasks)
	taskGroup.POST("", taskHandler.CreateTask)
	taskGroup.GET("/stats", taskHandler.Stats)
	taskGroup.GET("/by_telegram_user", taskHandler.ByTelegramUser)
	taskGroup.POST("/create_for_telegram", taskHandler.CreateForTelegram)
	taskGroup.GET("/:id", taskHandler.GetTask)
	taskGroup.PUT("/:id", taskHandler.UpdateTask)
	taskGroup.PATCH("/:id", taskHandler.UpdateTask)
	taskGroup.DELETE("/:id", taskHandler.DeleteTask)
	taskGroup.PATCH("/:id/mark_completed", taskHandler.MarkCompleted)
	taskGroup.POST("/:id/schedule_reminder", taskHandler.ScheduleReminder)
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) readinessCheck(c echo.Context) error {
	ctx := c.Request().Context()

	if err := s.db.HealthCheck(ctx); err != nil {
		s.logger.Warnw("Readiness check failed", "dependency", "database", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.logger.Warnw("Readiness check failed", "dependency", "redis", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": "redis_not_ready",
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			switch m := he.Message.(type) {
			case ports.ErrorResponse:
				msg = m
			case string:
				msg = ports.ErrorResponse{Message: m}
			default:
				msg = ports.ErrorResponse{Message: http.StatusText(code)}
			}
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		} else {
			msg = ports.ErrorResponse{Message: http.StatusText(code)}
		}

		if code == http.StatusInternalServerError {
			logger.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
			if c.Echo().Debug {
				msg = ports.ErrorResponse{Message: err.Error()}
			}
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == http.MethodHead {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Errorw("Error sending response", "error", err)
			}
		}
	}
}
