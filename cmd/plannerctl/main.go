package main

import (
	"fmt"
	"os"

	"github.com/benvon/smart-planner/cmd/plannerctl/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:          "plannerctl",
		Short:        "Operator tool for Smart Planner",
		Long:         "Preview timelines and groups from plan files, apply the schema and manage stored tasks",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(commands.NewTimelineCmd())
	rootCmd.AddCommand(commands.NewGroupCmd())
	rootCmd.AddCommand(commands.NewMigrateCmd())
	rootCmd.AddCommand(commands.NewTasksCmd())
	rootCmd.AddCommand(commands.NewReclassifyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
