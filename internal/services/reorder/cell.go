package reorder

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/google/uuid"
)

// ErrCellOrderingViolation marks a cell whose order indices are not exactly 1..N
var ErrCellOrderingViolation = errors.New("cell ordering violation")

// CellOrderingViolation describes a broken cell
type CellOrderingViolation struct {
	Cell   models.Cell
	Reason string
}

func (e *CellOrderingViolation) Error() string {
	return fmt.Sprintf("cell %s: %s", e.Cell, e.Reason)
}

func (e *CellOrderingViolation) Unwrap() error {
	return ErrCellOrderingViolation
}

// UnitKind tells whether a cell member is a task or a group
type UnitKind string

const (
	UnitTask  UnitKind = "task"
	UnitGroup UnitKind = "group"
)

// Unit is one ordered member of a cell
type Unit struct {
	ID         uuid.UUID
	Kind       UnitKind
	OrderIndex *int
	IsPriority bool
}

// RenumberCell returns units sorted by current order (unset last, ties kept
// in input order) with order indices rewritten to 1..N.
func RenumberCell(units []Unit) []Unit {
	out := slices.Clone(units)
	slices.SortStableFunc(out, compareUnits)
	return assign(out)
}

// assign rewrites order indices to 1..N in the given order.
func assign(units []Unit) []Unit {
	out := slices.Clone(units)
	for i := range out {
		out[i].OrderIndex = models.IntPtr(i + 1)
	}
	return out
}

func compareUnits(a, b Unit) int {
	switch {
	case a.OrderIndex != nil && b.OrderIndex != nil:
		return cmp.Compare(*a.OrderIndex, *b.OrderIndex)
	case a.OrderIndex != nil:
		return -1
	case b.OrderIndex != nil:
		return 1
	default:
		return 0
	}
}

// CheckCell reports whether the set order indices of units are exactly 1..k
// with no duplicates. Units without an index are allowed; they sort last.
func CheckCell(cell models.Cell, units []Unit) error {
	set := 0
	for _, u := range units {
		if u.OrderIndex != nil {
			set++
		}
	}

	seen := make(map[int]bool, set)
	for _, u := range units {
		if u.OrderIndex == nil {
			continue
		}
		idx := *u.OrderIndex
		if seen[idx] {
			return &CellOrderingViolation{Cell: cell, Reason: fmt.Sprintf("duplicate order index %d", idx)}
		}
		if idx < 1 || idx > set {
			return &CellOrderingViolation{Cell: cell, Reason: fmt.Sprintf("order index %d outside 1..%d", idx, set)}
		}
		seen[idx] = true
	}
	return nil
}

// cellUnits returns the members of cell in current order. Completed and
// grouped tasks are not members.
func cellUnits(b models.Board, cell models.Cell) []Unit {
	var units []Unit
	for _, t := range b.Tasks {
		if t.Schedulable() && t.Cell() == cell {
			units = append(units, Unit{ID: t.ID, Kind: UnitTask, OrderIndex: t.OrderIndex, IsPriority: t.IsPriority})
		}
	}
	for _, g := range b.Groups {
		if g.Cell() == cell {
			units = append(units, Unit{ID: g.ID, Kind: UnitGroup, OrderIndex: g.OrderIndex, IsPriority: g.IsPriority})
		}
	}
	slices.SortStableFunc(units, compareUnits)
	return units
}

// cells lists every cell with at least one member, in scheduling order.
func cells(b models.Board) []models.Cell {
	present := make(map[models.Cell]bool)
	for _, t := range b.Tasks {
		if t.Schedulable() {
			present[t.Cell()] = true
		}
	}
	for _, g := range b.Groups {
		present[g.Cell()] = true
	}

	var out []models.Cell
	for _, c := range models.Categories {
		for _, d := range models.Durations {
			cell := models.Cell{Category: c, Duration: d}
			if present[cell] {
				out = append(out, cell)
				delete(present, cell)
			}
		}
	}
	// Cells with values outside the known enums still get renumbered.
	var rest []models.Cell
	for c := range present {
		rest = append(rest, c)
	}
	slices.SortFunc(rest, func(a, b models.Cell) int {
		if c := cmp.Compare(a.Category, b.Category); c != 0 {
			return c
		}
		return cmp.Compare(a.Duration, b.Duration)
	})
	return append(out, rest...)
}

// apply writes the order index and priority flag of every unit back to b.
func apply(b *models.Board, units []Unit) {
	for _, u := range units {
		switch u.Kind {
		case UnitTask:
			if i := b.TaskIndex(u.ID); i >= 0 {
				b.Tasks[i].OrderIndex = u.OrderIndex
				b.Tasks[i].IsPriority = u.IsPriority
			}
		case UnitGroup:
			if i := b.GroupIndex(u.ID); i >= 0 {
				b.Groups[i].OrderIndex = u.OrderIndex
				b.Groups[i].IsPriority = u.IsPriority
			}
		}
	}
}

func indexOf(units []Unit, id uuid.UUID) int {
	return slices.IndexFunc(units, func(u Unit) bool { return u.ID == id })
}

func without(units []Unit, id uuid.UUID) []Unit {
	return slices.DeleteFunc(slices.Clone(units), func(u Unit) bool { return u.ID == id })
}
