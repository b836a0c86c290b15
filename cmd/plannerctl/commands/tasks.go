package commands

import (
	"fmt"

	"github.com/benvon/smart-planner/internal/database"
	"github.com/benvon/smart-planner/internal/models"
	"github.com/spf13/cobra"
)

// NewTasksCmd creates the tasks command
func NewTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect stored tasks",
	}
	cmd.AddCommand(newTasksListCmd())
	return cmd
}

func newTasksListCmd() *cobra.Command {
	var (
		user             string
		day              string
		includeCompleted bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserFlag(user)
			if err != nil {
				return err
			}
			var dayFilter *models.ScheduledDay
			if day != "" {
				d := models.ScheduledDay(day)
				if !d.Valid() {
					return fmt.Errorf("invalid day %q: expected today or tomorrow", day)
				}
				dayFilter = &d
			}

			_, db, closeDB, err := openDatabase()
			if err != nil {
				return err
			}
			defer closeDB()

			tasks, err := database.NewTaskRepository(db).ListByUser(cmd.Context(), userID, dayFilter, includeCompleted)
			if err != nil {
				return fmt.Errorf("failed to list tasks: %w", err)
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks")
				return nil
			}

			out := cmd.OutOrStdout()
			for _, t := range tasks {
				line := fmt.Sprintf("%s  %-8s %-6s %2sm  %-10s %s", t.ID, t.ScheduledDay, t.Category, t.Duration, t.Classification, t.Title)
				switch {
				case t.Completed:
					fmt.Fprintln(out, styles.Muted.Render(line))
				case t.IsPriority:
					fmt.Fprintln(out, styles.Priority.Render(line))
				default:
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID (required)")
	cmd.Flags().StringVar(&day, "day", "", "Only show today or tomorrow")
	cmd.Flags().BoolVar(&includeCompleted, "include-completed", false, "Include completed tasks")

	return cmd
}
