package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/todobot/core/cmd/api/commands"
)

// @title todobot API
// @version 1.0
// @description Task management API used by the todobot chat bot

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and a service token.

func main() {
	rootCmd := &cobra.Command{
		Use:   "todobot-api",
		Short: "todobot task API",
		Long:  `todobot-api serves the task management API, runs the notification worker and manages the database.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewWorkerCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewSeedCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
