package output

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/fyrsmithlabs/actiond/internal/tasks"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("51")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	priorityStyles = map[tasks.Priority]lipgloss.Style{
		tasks.PriorityCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		tasks.PriorityHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		tasks.PriorityMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		tasks.PriorityLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
)

var tableHeaders = []string{"ID", "Description", "Assigned To", "Deadline", "Priority", "Dependencies", "Reason"}

const priorityColumn = 4

// RenderTable renders records as a bordered console table.
func RenderTable(records []tasks.Record) string {
	rows := make([][]string, len(records))
	for i := range records {
		rows[i] = row(&records[i])
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(tableHeaders...).
		Rows(rows...).
		StyleFunc(func(r, c int) lipgloss.Style {
			if r == table.HeaderRow {
				return headerStyle
			}
			if c == priorityColumn && r < len(records) {
				if s, ok := priorityStyles[records[r].Priority]; ok {
					return s.Padding(0, 1)
				}
			}
			return cellStyle
		})

	return t.Render()
}

// RenderSummary renders task counts by priority and assignee.
func RenderSummary(s tasks.Summary) string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render(fmt.Sprintf("Total tasks: %d", s.Total)))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("By priority"))
	b.WriteString("\n")
	for _, p := range tasks.Priorities {
		if n := s.ByPriority[string(p)]; n > 0 {
			fmt.Fprintf(&b, "  %s %d\n", labelStyle.Render(string(p)+":"), n)
		}
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("By assignee"))
	b.WriteString("\n")
	for _, name := range slices.Sorted(maps.Keys(s.ByAssignee)) {
		fmt.Fprintf(&b, "  %s %d\n", labelStyle.Render(name+":"), s.ByAssignee[name])
	}

	return b.String()
}
