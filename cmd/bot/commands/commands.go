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

	"github.com/spf13/cobra"

	"github.com/todobot/core/internal/adapters/apiclient"
	"github.com/todobot/core/internal/adapters/redisstore"
	"github.com/todobot/core/internal/adapters/telegram"
	"github.com/todobot/core/internal/application/services"
	"github.com/todobot/core/internal/dialog"
	"github.com/todobot/core/internal/infrastructure/config"
	"github.com/todobot/core/internal/infrastructure/logger"
	"github.com/todobot/core/internal/infrastructure/server"
)

// Set at build time with -ldflags "-X github.com/todobot/core/cmd/bot/commands.Version=..."
var (
	Version = "dev"
	Commit  = "none"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the Telegram bot",
		Long:  "Long-poll Telegram for updates and serve the messaging gateway",
		Run: func(cmd *cobra.Command, args []string) {
			runBot()
		},
	}
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print todobot version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("todobot %s\n", Version)
			fmt.Printf("Git Commit: %s\n", Commit)
		},
	}
}

func runBot() {
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redisstore.NewClient(ctx, cfg.Redis)
	if err != nil {
		appLogger.Fatalw("Failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	tasks := apiclient.New(cfg.Bot.APIBaseURL, cfg.Bot.APITimeout, services.NewAuthService(cfg.Security), appLogger)
	engine := dialog.NewEngine(tasks, redisstore.NewSessionStore(redisClient, cfg.Bot.SessionTTL), appLogger)

	api, err := telegram.Connect(cfg.Bot.Token)
	if err != nil {
		appLogger.Fatalw("Failed to start bot", "error", err)
	}
	appLogger.Infow("Authorized on Telegram", "bot", api.Self.UserName)

	bot := telegram.NewBot(api, engine, cfg.Bot, appLogger)

	gateway := server.NewGateway(cfg, bot, appLogger)
	go func() {
		if err := gateway.Start(fmt.Sprintf(":%d", cfg.Bot.GatewayPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Errorw("Gateway stopped unexpectedly", "error", err)
			stop()
		}
	}()

	if err := bot.Run(ctx); err != nil {
		appLogger.Errorw("Bot stopped", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := gateway.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorw("Gateway shutdown failed", "error", err)
	}
}
