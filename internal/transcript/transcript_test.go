package transcript

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_TextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "standup.txt")
	require.NoError(t, os.WriteFile(path, []byte("Sakshi, fix the login bug."), 0600))

	text, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Sakshi, fix the login bug.", text)
}

func TestLoad_RejectsAudio(t *testing.T) {
	for _, name := range []string{"meeting.wav", "meeting.MP3", "call.m4a"} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(filepath.Join(t.TempDir(), name))
			assert.ErrorIs(t, err, ErrAudioUnsupported)
		})
	}
	assert.False(t, IsAudio("notes.txt"))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestFromReader_DropsInvalidUTF8(t *testing.T) {
	text, err := FromReader(bytes.NewReader([]byte("fix \xff the bug")))
	require.NoError(t, err)
	assert.Equal(t, "fix  the bug", text)
}

func TestFromReader_TooLarge(t *testing.T) {
	_, err := FromReader(strings.NewReader(strings.Repeat("a", MaxSize+1)))
	assert.ErrorIs(t, err, ErrTooLarge)
}
