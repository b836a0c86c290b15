package commands

import (
	"fmt"

	"github.com/benvon/smart-planner/internal/services/grouping"
	"github.com/spf13/cobra"
)

// NewGroupCmd creates the group command
func NewGroupCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "group",
		Short: "Preview how the tasks of a plan file would be grouped",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			plan, err := readPlanFile(file)
			if err != nil {
				return err
			}
			tasks, err := plan.ToTasks()
			if err != nil {
				return err
			}

			titles := make(map[string]string, len(tasks))
			for _, t := range tasks {
				titles[t.ID.String()] = t.Title
			}

			result := grouping.NewEngine(nil).GroupTasks(tasks)
			_, err = fmt.Fprint(cmd.OutOrStdout(), renderGroups(result.Groups, result.UngroupedTasks, titles))
			return err
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Plan file (YAML) (required)")

	return cmd
}
