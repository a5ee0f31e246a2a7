// Package output renders pipeline runs as JSON, CSV or a console table.
package output

import (
	"errors"
	"fmt"
	"strings"
)

// Format is an output format name.
type Format string

const (
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatTable Format = "table"
	FormatAll   Format = "all"
)

// ErrUnknownFormat is returned by ParseFormat for unrecognized names.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat resolves a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatTable, FormatAll:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q (want json, csv, table or all)", ErrUnknownFormat, s)
}

// Formats expands f into the concrete formats it stands for.
func (f Format) Formats() []Format {
	if f == FormatAll {
		return []Format{FormatJSON, FormatCSV, FormatTable}
	}
	return []Format{f}
}
