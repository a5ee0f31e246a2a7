package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/actiond/internal/tasks"
)

// Columns is the column order shared by CSV and table output.
var Columns = []string{"id", "description", "assigned_to", "deadline", "priority", "dependencies", "reason"}

// WriteCSV writes one row per record under a header row. Absent values are
// empty and dependencies are joined with ";".
func WriteCSV(w io.Writer, records []tasks.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range records {
		if err := cw.Write(row(&records[i])); err != nil {
			return fmt.Errorf("failed to write task %d: %w", records[i].ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes records to path atomically.
func SaveCSV(path string, records []tasks.Record) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}

func row(r *tasks.Record) []string {
	deps := make([]string, len(r.Dependencies))
	for i, d := range r.Dependencies {
		deps[i] = strconv.Itoa(d)
	}
	return []string{
		strconv.Itoa(r.ID),
		r.Description,
		r.Assignee(),
		r.DeadlineValue(),
		string(r.Priority),
		strings.Join(deps, ";"),
		r.Reason,
	}
}
