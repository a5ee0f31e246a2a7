// Package roster loads team rosters from JSON, YAML or TOML files.
//
// All formats share one shape, a top-level team_members list:
//
//	{"team_members": [{"name": "Mohit", "role": "Backend Engineer", "skills": ["database"]}]}
//
// JSON files may also hold a bare array of members. Loaded rosters are
// normalized (skills lowercased) and validated (non-empty, unique names).
package roster

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/actiond/internal/tasks"
)

const maxRosterFileSize = 1024 * 1024 // 1MB

// Format is a roster file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var (
	// ErrUnsupportedFormat indicates a roster file extension with no decoder.
	ErrUnsupportedFormat = errors.New("unsupported roster format")

	// ErrTooLarge indicates a roster file over the size limit.
	ErrTooLarge = errors.New("roster file too large")
)

// file is the on-disk document shape.
type file struct {
	TeamMembers []tasks.TeamMember `json:"team_members" koanf:"team_members" toml:"team_members"`
}

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Load reads, normalizes and validates the roster at path.
func Load(path string) (tasks.Roster, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster file: %w", err)
	}
	defer f.Close()

	roster, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", path, err)
	}
	return roster, nil
}

// Decode reads a roster in the given format from r.
func Decode(r io.Reader, format Format) (tasks.Roster, error) {
	content, err := io.ReadAll(io.LimitReader(r, maxRosterFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}
	if len(content) > maxRosterFileSize {
		return nil, fmt.Errorf("%w: max %d bytes", ErrTooLarge, maxRosterFileSize)
	}

	var members []tasks.TeamMember
	switch format {
	case FormatJSON:
		members, err = decodeJSON(content)
	case FormatYAML:
		members, err = decodeYAML(content)
	case FormatTOML:
		members, err = decodeTOML(content)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	roster := tasks.Roster(members).Normalize()
	if err := roster.Validate(); err != nil {
		return nil, err
	}
	return roster, nil
}

func decodeJSON(content []byte) ([]tasks.TeamMember, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var members []tasks.TeamMember
		if err := json.Unmarshal(trimmed, &members); err != nil {
			return nil, fmt.Errorf("failed to parse JSON roster: %w", err)
		}
		return members, nil
	}

	var doc file
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON roster: %w", err)
	}
	return doc.TeamMembers, nil
}

func decodeYAML(content []byte) ([]tasks.TeamMember, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse YAML roster: %w", err)
	}
	var doc file
	if err := k.Unmarshal("", &doc); err != nil {
		return nil, fmt.Errorf("failed to decode YAML roster: %w", err)
	}
	return doc.TeamMembers, nil
}

func decodeTOML(content []byte) ([]tasks.TeamMember, error) {
	var doc file
	if _, err := toml.Decode(string(content), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse TOML roster: %w", err)
	}
	return doc.TeamMembers, nil
}

// Encode writes roster as an indented JSON document.
func Encode(w io.Writer, roster tasks.Roster) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(file{TeamMembers: roster})
}
