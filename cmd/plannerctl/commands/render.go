package commands

import (
	"fmt"
	"strings"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/charmbracelet/lipgloss"
)

var styles = struct {
	Header   lipgloss.Style
	Clock    lipgloss.Style
	Task     lipgloss.Style
	Priority lipgloss.Style
	Group    lipgloss.Style
	Break    lipgloss.Style
	Gap      lipgloss.Style
	Muted    lipgloss.Style
}{
	Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6C5CE7")),
	Clock:    lipgloss.NewStyle().Foreground(lipgloss.Color("#B2BEC3")).Width(6),
	Task:     lipgloss.NewStyle().Foreground(lipgloss.Color("#DFE6E9")),
	Priority: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FDCB6E")),
	Group:    lipgloss.NewStyle().Foreground(lipgloss.Color("#74B9FF")),
	Break:    lipgloss.NewStyle().Foreground(lipgloss.Color("#00B894")),
	Gap:      lipgloss.NewStyle().Faint(true),
	Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#636E72")),
}

func renderTimeline(segments []models.Segment, showGaps bool) string {
	var b strings.Builder
	b.WriteString(styles.Header.Render("Timeline"))
	b.WriteByte('\n')

	for _, seg := range segments {
		if seg.Kind == models.SegmentGap && !showGaps {
			continue
		}
		b.WriteString(styles.Clock.Render(seg.Clock))
		b.WriteString(styles.Muted.Render(fmt.Sprintf("%4dm  ", seg.Duration)))
		b.WriteString(segmentLabel(seg))
		if seg.Clipped {
			b.WriteString(styles.Muted.Render(" (clipped)"))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func segmentLabel(seg models.Segment) string {
	switch seg.Kind {
	case models.SegmentTask:
		if seg.Task == nil {
			return ""
		}
		label := fmt.Sprintf("%s [%s/%s]", seg.Task.Title, seg.Task.Category, seg.Task.Duration)
		switch {
		case seg.Task.IsPriority:
			return styles.Priority.Render("★ " + label)
		case seg.Task.GroupID != nil:
			return styles.Group.Render(label)
		default:
			return styles.Task.Render(label)
		}
	case models.SegmentBreak:
		if seg.Break == nil {
			return ""
		}
		label := seg.Break.Label
		if label == "" {
			label = string(seg.Break.Type)
		}
		if seg.Break.Automatic {
			label += " (auto)"
		}
		return styles.Break.Render("break: " + label)
	default:
		return styles.Gap.Render("free")
	}
}

func renderGroups(groups []models.Group, ungrouped []models.Task, titles map[string]string) string {
	var b strings.Builder
	b.WriteString(styles.Header.Render(fmt.Sprintf("Groups (%d)", len(groups))))
	b.WriteByte('\n')
	for _, g := range groups {
		b.WriteString(styles.Group.Render(fmt.Sprintf("%s [%s/%s] %dm", g.Title, g.Category, g.Duration, g.TotalMinutes())))
		b.WriteByte('\n')
		for _, id := range g.TaskIDs {
			b.WriteString(styles.Muted.Render("  - " + titles[id.String()]))
			b.WriteByte('\n')
		}
	}

	b.WriteString(styles.Header.Render(fmt.Sprintf("Ungrouped (%d)", len(ungrouped))))
	b.WriteByte('\n')
	for _, t := range ungrouped {
		b.WriteString(styles.Task.Render(fmt.Sprintf("%s [%s/%s]", t.Title, t.Category, t.Duration)))
		b.WriteByte('\n')
	}
	return b.String()
}
