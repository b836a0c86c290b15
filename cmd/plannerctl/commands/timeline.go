package commands

import (
	"fmt"

	"github.com/benvon/smart-planner/internal/config"
	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/services/grouping"
	"github.com/benvon/smart-planner/internal/services/timeline"
	"github.com/spf13/cobra"
)

// NewTimelineCmd creates the timeline command
func NewTimelineCmd() *cobra.Command {
	var (
		file     string
		start    string
		noGroups bool
		showGaps bool
	)

	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Render a day timeline from a plan file",
		Long:  "Group the tasks of a YAML plan file and lay them out with breaks, without touching the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			plan, err := readPlanFile(file)
			if err != nil {
				return err
			}

			segments, err := buildPlanTimeline(plan, start, !noGroups)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), renderTimeline(segments, showGaps))
			return err
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Plan file (YAML) (required)")
	cmd.Flags().StringVar(&start, "start", "", "Day start as HH:MM, overrides the plan file")
	cmd.Flags().BoolVar(&noGroups, "no-groups", false, "Skip automatic grouping")
	cmd.Flags().BoolVar(&showGaps, "gaps", false, "Show free time between items")

	return cmd
}

func buildPlanTimeline(plan *PlanFile, start string, group bool) ([]models.Segment, error) {
	tasks, err := plan.ToTasks()
	if err != nil {
		return nil, err
	}
	breaks, err := plan.ToBreaks()
	if err != nil {
		return nil, err
	}

	var groups []models.Group
	if group {
		groups = grouping.NewEngine(nil).GroupTasks(tasks).Groups
		tasks = grouping.ApplyMembership(tasks, groups)
	}

	dayStart := config.DefaultPlanner().DayStart
	if plan.DayStart != "" {
		dayStart = plan.DayStart
	}
	if start != "" {
		dayStart = start
	}

	return timeline.NewBuilder(nil).Build(timeline.Input{
		Tasks:    tasks,
		Groups:   groups,
		Breaks:   breaks,
		DayStart: dayStart,
		Day:      models.ScheduledDayToday,
	})
}
