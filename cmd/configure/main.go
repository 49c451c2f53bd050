package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskmind/taskmind/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "taskmind-configure",
		Short: "Configuration tool for the TaskMind API",
		Long:  "CLI tool for inspecting configuration, seeding global categories and testing the LLM backend",
	}

	rootCmd.AddCommand(commands.NewShowCmd())
	rootCmd.AddCommand(commands.NewCategoriesCmd())
	rootCmd.AddCommand(commands.NewTestAICmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
