package tasks

// Summary counts tasks by priority and by assignee.
type Summary struct {
	Total      int            `json:"total"`
	ByPriority map[string]int `json:"by_priority"`
	ByAssignee map[string]int `json:"by_assignee"`
}

// Summarize counts records. Records without an owner are counted under
// Unassigned.
func Summarize(records []Record) Summary {
	s := Summary{
		Total:      len(records),
		ByPriority: make(map[string]int, len(Priorities)),
		ByAssignee: make(map[string]int),
	}
	for i := range records {
		s.ByPriority[string(records[i].Priority)]++
		name := Unassigned
		if records[i].IsAssigned() {
			name = records[i].Assignee()
		}
		s.ByAssignee[name]++
	}
	return s
}
