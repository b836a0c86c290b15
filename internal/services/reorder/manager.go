package reorder

import (
	"errors"
	"fmt"
	"slices"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/services/grouping"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrItemNotFound is returned when an id names no ordered task or group
	ErrItemNotFound = errors.New("item not found")
	// ErrDifferentCells is returned when a within-cell move spans two cells
	ErrDifferentCells = errors.New("items are in different cells")
	// ErrInvalidEvent is returned for reorder events with no usable target
	ErrInvalidEvent = errors.New("invalid reorder event")
)

// Position selects where a unit lands in its destination cell
type Position string

const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
)

// Event is an intent-level reorder request. Either TargetSiblingID or
// TargetCell must be set; MovingIDs keep their relative order.
type Event struct {
	MovingIDs       []uuid.UUID  `json:"moving_ids" validate:"required,min=1,dive,required"`
	TargetSiblingID *uuid.UUID   `json:"target_sibling_id,omitempty"`
	TargetCell      *models.Cell `json:"target_cell,omitempty"`
	Position        Position     `json:"position,omitempty" validate:"omitempty,oneof=top bottom"`
}

// Manager keeps every cell's order contiguous and its priority flags consistent
type Manager struct {
	logger *zap.Logger
}

// NewManager creates a reorder manager
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{logger: logger}
}

// locate returns the cell and kind of the task or group with id.
func locate(b models.Board, id uuid.UUID) (models.Cell, UnitKind, error) {
	if i := b.TaskIndex(id); i >= 0 {
		t := b.Tasks[i]
		if !t.Schedulable() {
			return models.Cell{}, "", fmt.Errorf("task %s is not orderable: %w", id, ErrItemNotFound)
		}
		return t.Cell(), UnitTask, nil
	}
	if i := b.GroupIndex(id); i >= 0 {
		return b.Groups[i].Cell(), UnitGroup, nil
	}
	return models.Cell{}, "", fmt.Errorf("%s: %w", id, ErrItemNotFound)
}

// TogglePriority flips the priority flag of a task or group. A unit gaining
// priority moves to just after the last priority unit of its cell; a unit
// losing it moves to the end of the cell.
func (m *Manager) TogglePriority(board models.Board, id uuid.UUID) (models.Board, error) {
	out := board.Clone()
	cell, _, err := locate(out, id)
	if err != nil {
		return board, err
	}

	units := cellUnits(out, cell)
	target := units[indexOf(units, id)]
	target.IsPriority = !target.IsPriority
	rest := without(units, id)

	var priority, normal []Unit
	for _, u := range rest {
		if u.IsPriority {
			priority = append(priority, u)
		} else {
			normal = append(normal, u)
		}
	}

	ordered := make([]Unit, 0, len(units))
	ordered = append(ordered, priority...)
	if target.IsPriority {
		ordered = append(ordered, target)
		ordered = append(ordered, normal...)
	} else {
		ordered = append(ordered, normal...)
		ordered = append(ordered, target)
	}
	apply(&out, assign(ordered))

	m.ensureAutoPriority(&out)
	return out, nil
}

// MoveToCell reassigns a task or group to another cell, inserting it at the
// top or the bottom. A moved task loses its time override. Priority survives
// a move to the top only. Source and destination are renumbered.
func (m *Manager) MoveToCell(board models.Board, id uuid.UUID, dest models.Cell, pos Position) (models.Board, error) {
	if !dest.Category.Valid() || !dest.Duration.Valid() {
		return board, fmt.Errorf("invalid destination cell %s: %w", dest, ErrInvalidEvent)
	}
	out := board.Clone()
	src, kind, err := locate(out, id)
	if err != nil {
		return board, err
	}

	srcUnits := cellUnits(out, src)
	moving := srcUnits[indexOf(srcUnits, id)]
	srcUnits = without(srcUnits, id)

	switch kind {
	case UnitTask:
		i := out.TaskIndex(id)
		out.Tasks[i].Category = dest.Category
		out.Tasks[i].Duration = dest.Duration
		out.Tasks[i].TimeSlot = nil
	case UnitGroup:
		i := out.GroupIndex(id)
		g := out.Groups[i]
		if len(g.TaskIDs)*dest.Duration.Minutes() > models.MaxGroupMinutes {
			return board, &grouping.IncompatibleMembershipError{
				GroupID: g.ID,
				Reason:  fmt.Sprintf("%d members do not fit in %d minutes at %d each", len(g.TaskIDs), models.MaxGroupMinutes, dest.Duration),
			}
		}
		out.Groups[i].Category = dest.Category
		out.Groups[i].Duration = dest.Duration
		for _, memberID := range g.TaskIDs {
			if ti := out.TaskIndex(memberID); ti >= 0 {
				out.Tasks[ti].Category = dest.Category
				out.Tasks[ti].Duration = dest.Duration
			}
		}
	}

	destUnits := cellUnits(out, dest)
	destUnits = without(destUnits, id)
	if pos == PositionTop {
		destUnits = slices.Insert(destUnits, 0, moving)
	} else {
		moving.IsPriority = false
		destUnits = append(destUnits, moving)
	}

	if src != dest {
		apply(&out, assign(srcUnits))
	}
	apply(&out, assign(destUnits))

	m.ensureAutoPriority(&out)
	return out, nil
}

// MoveWithinCell drops movingID onto targetID. Moving down places it after
// the target, moving up places it before.
func (m *Manager) MoveWithinCell(board models.Board, movingID, targetID uuid.UUID) (models.Board, error) {
	if movingID == targetID {
		return board.Clone(), nil
	}
	out := board.Clone()
	cell, _, err := locate(out, movingID)
	if err != nil {
		return board, err
	}
	targetCell, _, err := locate(out, targetID)
	if err != nil {
		return board, err
	}
	if cell != targetCell {
		return board, fmt.Errorf("%s and %s: %w", cell, targetCell, ErrDifferentCells)
	}

	units := cellUnits(out, cell)
	from := indexOf(units, movingID)
	to := indexOf(units, targetID)
	moving := units[from]

	rest := without(units, movingID)
	at := indexOf(rest, targetID)
	if from < to {
		at++
	}
	apply(&out, assign(slices.Insert(rest, at, moving)))

	m.ensureAutoPriority(&out)
	return out, nil
}

// placeAfter moves movingID to sit directly after anchorID in their shared cell.
func (m *Manager) placeAfter(board models.Board, movingID, anchorID uuid.UUID) (models.Board, error) {
	out := board.Clone()
	cell, _, err := locate(out, movingID)
	if err != nil {
		return board, err
	}
	units := cellUnits(out, cell)
	moving := units[indexOf(units, movingID)]
	rest := without(units, movingID)
	at := indexOf(rest, anchorID)
	if at < 0 {
		return board, fmt.Errorf("anchor %s: %w", anchorID, ErrItemNotFound)
	}
	apply(&out, assign(slices.Insert(rest, at+1, moving)))
	return out, nil
}

// Reorder applies an intent-level event. With a sibling target every moving
// unit is brought into the sibling's cell and dropped next to it; with a cell
// target the units are inserted at the requested position.
func (m *Manager) Reorder(board models.Board, ev Event) (models.Board, error) {
	if len(ev.MovingIDs) == 0 {
		return board, fmt.Errorf("no moving ids: %w", ErrInvalidEvent)
	}

	switch {
	case ev.TargetSiblingID != nil:
		return m.reorderOntoSibling(board, ev.MovingIDs, *ev.TargetSiblingID)
	case ev.TargetCell != nil:
		pos := ev.Position
		if pos == "" {
			pos = PositionBottom
		}
		out := board
		ids := slices.Clone(ev.MovingIDs)
		if pos == PositionTop {
			slices.Reverse(ids)
		}
		for _, id := range ids {
			var err error
			out, err = m.MoveToCell(out, id, *ev.TargetCell, pos)
			if err != nil {
				return board, err
			}
		}
		return out, nil
	default:
		return board, fmt.Errorf("no target: %w", ErrInvalidEvent)
	}
}

func (m *Manager) reorderOntoSibling(board models.Board, ids []uuid.UUID, siblingID uuid.UUID) (models.Board, error) {
	dest, _, err := locate(board, siblingID)
	if err != nil {
		return board, err
	}

	out := board
	var prev uuid.UUID
	for _, id := range ids {
		if id == siblingID {
			continue
		}
		cell, _, err := locate(out, id)
		if err != nil {
			return board, err
		}
		if cell != dest {
			out, err = m.MoveToCell(out, id, dest, PositionBottom)
			if err != nil {
				return board, err
			}
		}
		if prev == uuid.Nil {
			out, err = m.MoveWithinCell(out, id, siblingID)
		} else {
			out, err = m.placeAfter(out, id, prev)
		}
		if err != nil {
			return board, err
		}
		prev = id
	}

	m.ensureAutoPriority(&out)
	return out, nil
}

// Settle renumbers every cell to 1..N, keeping current relative order with
// unset indices last, and restores the auto-priority invariant. It is used
// after edits that add, remove or regroup units.
func (m *Manager) Settle(board models.Board) models.Board {
	out := board.Clone()
	for _, cell := range cells(out) {
		apply(&out, RenumberCell(cellUnits(out, cell)))
	}
	m.ensureAutoPriority(&out)
	return out
}

// Normalize settles the board like Settle and additionally reports, and
// logs, every cell whose stored indices were duplicated or gapped.
func (m *Manager) Normalize(board models.Board) (models.Board, []error) {
	var violations []error
	for _, cell := range cells(board) {
		if err := CheckCell(cell, cellUnits(board, cell)); err != nil {
			m.logger.Warn("cell_ordering_repaired",
				zap.String("cell", cell.String()),
				zap.Error(err),
			)
			violations = append(violations, err)
		}
	}
	return m.Settle(board), violations
}

// EnsureAutoPriority grants priority to the first task of every hour-long deep
// or light cell that has none.
func (m *Manager) EnsureAutoPriority(board models.Board) models.Board {
	out := board.Clone()
	m.ensureAutoPriority(&out)
	return out
}

func (m *Manager) ensureAutoPriority(b *models.Board) {
	for _, cat := range []models.Category{models.CategoryDeep, models.CategoryLight} {
		cell := models.Cell{Category: cat, Duration: models.Duration60}
		units := cellUnits(*b, cell)

		first := -1
		hasPriority := false
		for i, u := range units {
			if u.IsPriority {
				hasPriority = true
				break
			}
			if u.Kind == UnitTask && first < 0 {
				first = i
			}
		}
		if hasPriority || first < 0 {
			continue
		}

		units[first].IsPriority = true
		apply(b, units[first:first+1])
		m.logger.Debug("auto_priority_granted",
			zap.String("cell", cell.String()),
			zap.String("task_id", units[first].ID.String()),
		)
	}
}
