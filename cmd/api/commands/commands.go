package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/todobot/core/internal/adapters/gateway"
	"github.com/todobot/core/internal/adapters/redisstore"
	"github.com/todobot/core/internal/adapters/repository"
	"github.com/todobot/core/internal/application/services"
	"github.com/todobot/core/internal/infrastructure/config"
	"github.com/todobot/core/internal/infrastructure/database"
	"github.com/todobot/core/internal/infrastructure/logger"
	"github.com/todobot/core/internal/infrastructure/server"
	"github.com/todobot/core/internal/ports"
)

// Set at build time with -ldflags "-X github.com/todobot/core/cmd/api/commands.Version=..."
var (
	Version = "dev"
	Commit  = "none"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the task API server",
		Long:  "Start the task API server with all configured routes and middleware",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewWorkerCommand creates the notification worker command
func NewWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the notification dispatcher",
		Long:  "Scan for overdue tasks and deliver scheduled reminders through the messaging gateway",
		Run: func(cmd *cobra.Command, args []string) {
			runWorker()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Run: func(cmd *cobra.Command, args []string) {
			showMigrationVersion()
		},
	})

	return migrateCmd
}

// NewSeedCommand creates the command that bootstraps the default categories
func NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default categories",
		Long:  "Create the default categories; existing categories are left untouched",
		Run: func(cmd *cobra.Command, args []string) {
			runSeed()
		},
	}
}

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long:  "Create accounts that own tasks",
	}

	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		Run: func(cmd *cobra.Command, args []string) {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			firstName, _ := cmd.Flags().GetString("first-name")

			if username == "" || password == "" {
				log.Fatal("Username and password are required")
			}

			createUser(ports.CreateUserRequest{
				Username:  username,
				Password:  password,
				FirstName: firstName,
			})
		},
	}

	createUserCmd.Flags().String("username", "", "Username (required)")
	createUserCmd.Flags().String("password", "", "Password, at least 8 characters (required)")
	createUserCmd.Flags().String("first-name", "", "First name")

	userCmd.AddCommand(createUserCmd)
	return userCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print todobot version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("todobot-api %s\n", Version)
			fmt.Printf("Git Commit: %s\n", Commit)
		},
	}
}

func bootstrap() (*config.Config, *logger.Logger) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	return cfg, appLogger
}

func connectDatabase(cfg *config.Config) *database.DB {
	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return db
}

func runServer() {
	cfg, appLogger := bootstrap()
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database)
	if err != nil {
		appLogger.Fatalw("Failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient, err := redisstore.NewClient(ctx, cfg.Redis)
	if err != nil {
		appLogger.Fatalw("Failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	srv, err := server.New(cfg, db, redisClient, appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to initialize server", "error", err)
	}

	appLogger.Infow("Starting todobot API server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
	)

	go func() {
		if err := srv.Start(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Errorw("Server stopped unexpectedly", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorw("Server shutdown failed", "error", err)
	}
}

func runWorker() {
	cfg, appLogger := bootstrap()
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database)
	if err != nil {
		appLogger.Fatalw("Failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient, err := redisstore.NewClient(ctx, cfg.Redis)
	if err != nil {
		appLogger.Fatalw("Failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		db.StatsCollector(),
	)

	notifier := services.NewNotificationService(
		repository.NewTaskRepository(db.DB),
		redisstore.NewReminderQueue(redisClient),
		gateway.NewClient(cfg.Notifier, services.NewAuthService(cfg.Security), appLogger),
		cfg.Notifier,
		services.NewNotificationMetrics(registry),
		appLogger,
	)

	if cfg.Metrics.Enabled {
		metricsServer := server.NewMetricsServer(cfg, registry, appLogger)
		go func() {
			if err := metricsServer.Start(fmt.Sprintf(":%d", cfg.Metrics.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Errorw("Metrics server stopped unexpectedly", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	if err := notifier.Run(ctx); err != nil {
		appLogger.Errorw("Notification dispatcher failed", "error", err)
	}
}

func runMigration(direction string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db := connectDatabase(cfg)
	defer db.Close()

	var changed bool
	switch direction {
	case "up":
		changed, err = database.MigrateUp(db)
	case "down":
		changed, err = database.MigrateDown(db)
	}
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if !changed {
		fmt.Println("No migrations to run")
	} else {
		fmt.Printf("Migration %s completed successfully\n", direction)
	}
}

func showMigrationVersion() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db := connectDatabase(cfg)
	defer db.Close()

	version, dirty, err := database.MigrationVersion(db)
	if err != nil {
		log.Fatalf("Failed to get migration version: %v", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
}

func runSeed() {
	cfg, appLogger := bootstrap()
	defer appLogger.Close()

	db := connectDatabase(cfg)
	defer db.Close()

	categoryService := services.NewCategoryService(repository.NewCategoryRepository(db.DB), appLogger)
	created, err := categoryService.SeedDefaults(context.Background())
	if err != nil {
		log.Fatalf("Failed to seed categories: %v", err)
	}

	fmt.Printf("Created %d of %d default categories\n", created, len(services.DefaultCategories))
}

func createUser(req ports.CreateUserRequest) {
	if err := validator.New().Struct(req); err != nil {
		log.Fatalf("Invalid user: %v", err)
	}

	cfg, appLogger := bootstrap()
	defer appLogger.Close()

	db := connectDatabase(cfg)
	defer db.Close()

	userService := services.NewUserService(repository.NewUserRepository(db.DB), appLogger)
	user, err := userService.CreateUser(context.Background(), req)
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("User created successfully:\n")
	fmt.Printf("  ID: %s\n", user.ID)
	fmt.Printf("  Username: %s\n", user.Username)
	if user.FirstName != "" {
		fmt.Printf("  Name: %s\n", user.FirstName)
	}
}
