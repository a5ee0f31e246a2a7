package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"blank", " \n\t ", nil},
		{"single", "Fix the login bug.", []string{"Fix the login bug."}},
		{"no terminator", "fix the login bug", []string{"fix the login bug"}},
		{
			name: "question and exclamation",
			text: "Can Mohit fix it? Ship it today! Thanks.",
			want: []string{"Can Mohit fix it?", "Ship it today!", "Thanks."},
		},
		{
			name: "title abbreviations",
			text: "Dr. Rao will fix the bug. Mr. Shah should test it.",
			want: []string{"Dr. Rao will fix the bug.", "Mr. Shah should test it."},
		},
		{
			name: "trailing abbreviation",
			text: "Check with Prof. Iyer. Then deploy.",
			want: []string{"Check with Prof. Iyer.", "Then deploy."},
		},
		{
			name: "hard wrapped line stays one sentence",
			text: "Sakshi should fix the\nlogin bug tomorrow. Great work.",
			want: []string{"Sakshi should fix the\nlogin bug tomorrow.", "Great work."},
		},
		{
			name: "line breaks between sentences",
			text: "Fix the login bug tomorrow.\n\nMohit\nwill update docs",
			want: []string{"Fix the login bug tomorrow.", "Mohit\nwill update docs"},
		},
		{
			name: "crlf",
			text: "Fix the bug.\r\nTest  it.",
			want: []string{"Fix the bug.", "Test  it."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Segment(tt.text))
		})
	}
}
