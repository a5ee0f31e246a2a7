package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	empty := ""
	records := []Record{
		{ID: 1, Priority: PriorityCritical},
		{ID: 2, Priority: PriorityHigh},
		{ID: 3, Priority: PriorityHigh, AssignedTo: &empty},
	}
	records[0].Assign("Sakshi")
	records[1].Assign("Sakshi")

	s := Summarize(records)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, map[string]int{"Critical": 1, "High": 2}, s.ByPriority)
	assert.Equal(t, map[string]int{"Sakshi": 2, Unassigned: 1}, s.ByAssignee)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Total)
	assert.Empty(t, s.ByPriority)
	assert.Empty(t, s.ByAssignee)
}
