package commands

import (
	"fmt"
	"os"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/services/timeline"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// PlanFile is the YAML layout read by the offline commands
type PlanFile struct {
	DayStart string      `yaml:"day_start"`
	Tasks    []PlanTask  `yaml:"tasks"`
	Breaks   []PlanBreak `yaml:"breaks"`
}

// PlanTask is one task entry of a plan file
type PlanTask struct {
	Title     string `yaml:"title"`
	Category  string `yaml:"category"`
	Duration  int    `yaml:"duration"`
	TimeSlot  string `yaml:"time_slot"`
	Priority  bool   `yaml:"priority"`
	Completed bool   `yaml:"completed"`
}

// PlanBreak is one break entry of a plan file
type PlanBreak struct {
	Start string `yaml:"start"`
	Type  string `yaml:"type"`
	Label string `yaml:"label"`
}

// planNamespace derives stable IDs so repeated runs print the same groups
var planNamespace = uuid.MustParse("5f0c7c58-52a4-4f43-9a4c-0b6f1e0c8d21")

func readPlanFile(path string) (*PlanFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return parsePlan(data)
}

func parsePlan(data []byte) (*PlanFile, error) {
	var plan PlanFile
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan file: %w", err)
	}
	return &plan, nil
}

// ToTasks converts the plan entries into today's tasks in file order
func (p *PlanFile) ToTasks() ([]models.Task, error) {
	tasks := make([]models.Task, 0, len(p.Tasks))
	for i, pt := range p.Tasks {
		if pt.Title == "" {
			return nil, fmt.Errorf("task %d: title is required", i+1)
		}
		category, err := models.ParseCategory(pt.Category)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i+1, err)
		}
		duration := models.Duration(pt.Duration)
		if !duration.Valid() {
			return nil, fmt.Errorf("task %d: invalid duration %d", i+1, pt.Duration)
		}

		task := models.Task{
			ID:             uuid.NewSHA1(planNamespace, fmt.Appendf(nil, "task-%d-%s", i, pt.Title)),
			Title:          pt.Title,
			Category:       category,
			Duration:       duration,
			Completed:      pt.Completed,
			ScheduledDay:   models.ScheduledDayToday,
			IsPriority:     pt.Priority,
			Classification: models.ClassificationManual,
		}
		if pt.TimeSlot != "" {
			if _, err := timeline.ParseClock(pt.TimeSlot); err != nil {
				return nil, fmt.Errorf("task %d: %w", i+1, err)
			}
			task.TimeSlot = models.StringPtr(pt.TimeSlot)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// ToBreaks converts the plan's break entries
func (p *PlanFile) ToBreaks() ([]models.Break, error) {
	breaks := make([]models.Break, 0, len(p.Breaks))
	for i, pb := range p.Breaks {
		if _, err := timeline.ParseClock(pb.Start); err != nil {
			return nil, fmt.Errorf("break %d: %w", i+1, err)
		}
		breakType := models.BreakType(pb.Type)
		if pb.Type == "" {
			breakType = models.BreakTypeOther
		}
		if !breakType.Valid() {
			return nil, fmt.Errorf("break %d: invalid type %q", i+1, pb.Type)
		}
		breaks = append(breaks, models.Break{
			ID:    uuid.NewSHA1(planNamespace, fmt.Appendf(nil, "break-%d", i)),
			Start: pb.Start,
			Type:  breakType,
			Label: pb.Label,
		})
	}
	return breaks, nil
}
