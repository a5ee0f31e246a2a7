package extraction

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/sentences"
)

// abbreviations end with a period but rarely end a sentence.
var abbreviations = map[string]bool{
	"dr.": true, "mr.": true, "mrs.": true, "ms.": true, "prof.": true,
	"vs.": true, "etc.": true, "inc.": true, "ltd.": true, "jr.": true,
	"sr.": true, "st.": true, "e.g.": true, "i.e.": true, "approx.": true,
	"dept.": true, "no.": true,
}

// Segment splits text into trimmed, non-empty sentences. Each sentence is a
// slice of text, so line breaks and spacing inside it are kept. A line
// break alone never ends a sentence, and a break after a known
// abbreviation such as "Dr." is undone.
func Segment(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	// Same byte length as text, so offsets carry over.
	flat := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return ' '
		}
		return r
	}, text)

	var out []string
	start := -1
	iter := sentences.FromString(flat)
	for iter.Next() {
		if start < 0 {
			start = iter.Start()
		}
		if endsWithAbbreviation(iter.Value()) {
			continue
		}
		if s := strings.TrimSpace(text[start:iter.End()]); s != "" {
			out = append(out, s)
		}
		start = -1
	}
	if start >= 0 {
		if s := strings.TrimSpace(text[start:]); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func endsWithAbbreviation(segment string) bool {
	fields := strings.Fields(segment)
	if len(fields) == 0 {
		return false
	}
	return abbreviations[strings.ToLower(fields[len(fields)-1])]
}
