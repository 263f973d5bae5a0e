package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/todobot/core/cmd/bot/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "todobot",
		Short: "todobot Telegram bot",
		Long:  `todobot runs the Telegram task wizard and the messaging gateway the notification worker delivers through.`,
	}

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
