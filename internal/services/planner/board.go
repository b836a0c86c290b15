package planner

import (
	"slices"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/services/grouping"
	"github.com/google/uuid"
)

// arrange finishes every board edit. With auto-grouping on, tasks in touched
// may form new groups; then every cell is renumbered and auto-priority restored.
func (s *Service) arrange(b models.Board, touched ...uuid.UUID) models.Board {
	if s.settings.AutoGroup && len(touched) > 0 {
		b = s.groupAround(b, touched)
	}
	b.Tasks = grouping.ApplyMembership(b.Tasks, b.Groups)
	return s.reorderer.Settle(b)
}

// groupAround keeps only the new groups that contain a touched task, so
// groups a user broke up elsewhere on the board are not recreated.
func (s *Service) groupAround(b models.Board, touched []uuid.UUID) models.Board {
	result := s.grouper.GroupTasks(b.Tasks)
	for _, g := range result.Groups {
		if !slices.ContainsFunc(g.TaskIDs, func(id uuid.UUID) bool { return slices.Contains(touched, id) }) {
			continue
		}
		b = s.adopt(b, g)
	}
	return b
}

// adopt adds a freshly built group to the board. Members hand their place
// in the cell over to the group.
func (s *Service) adopt(b models.Board, g models.Group) models.Board {
	for _, id := range g.TaskIDs {
		if i := b.TaskIndex(id); i >= 0 {
			b.Tasks[i].OrderIndex = nil
			b.Tasks[i].IsPriority = false
		}
	}
	b.Groups = append(b.Groups, g)
	b.Tasks = grouping.ApplyMembership(b.Tasks, b.Groups)
	return b
}

// detach takes taskID out of its group, dissolving the group when fewer
// than two members remain. The detached task lands at the bottom of its cell.
func (s *Service) detach(b models.Board, taskID uuid.UUID) models.Board {
	ti := b.TaskIndex(taskID)
	if ti < 0 || b.Tasks[ti].GroupID == nil {
		return b
	}

	if gi := b.GroupIndex(*b.Tasks[ti].GroupID); gi >= 0 {
		if rest := s.grouper.RemoveTaskFromGroup(b.Groups[gi], taskID); rest != nil {
			b.Groups[gi] = *rest
		} else {
			b = s.dissolve(b, gi, taskID)
		}
	}

	b.Tasks = grouping.ApplyMembership(b.Tasks, b.Groups)
	ti = b.TaskIndex(taskID)
	b.Tasks[ti].OrderIndex = nil
	b.Tasks[ti].IsPriority = false
	return b
}

// dissolve removes the group at gi. The first remaining member other than
// except inherits the group's position and priority; the rest go to the bottom.
func (s *Service) dissolve(b models.Board, gi int, except uuid.UUID) models.Board {
	g := b.Groups[gi]
	b.Groups = slices.Delete(b.Groups, gi, gi+1)

	heir := true
	for _, id := range g.TaskIDs {
		ti := b.TaskIndex(id)
		if id == except || ti < 0 {
			continue
		}
		if heir && !b.Tasks[ti].Completed {
			b.Tasks[ti].OrderIndex = cloneInt(g.OrderIndex)
			b.Tasks[ti].IsPriority = g.IsPriority
			heir = false
			continue
		}
		b.Tasks[ti].OrderIndex = nil
		b.Tasks[ti].IsPriority = false
	}

	b.Tasks = grouping.ApplyMembership(b.Tasks, b.Groups)
	return b
}

func findTask(b models.Board, id uuid.UUID) (models.Task, bool) {
	if i := b.TaskIndex(id); i >= 0 {
		return b.Tasks[i], true
	}
	return models.Task{}, false
}

func findGroup(b models.Board, id uuid.UUID) (models.Group, bool) {
	if i := b.GroupIndex(id); i >= 0 {
		return b.Groups[i], true
	}
	return models.Group{}, false
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
