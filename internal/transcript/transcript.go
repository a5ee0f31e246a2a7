// Package transcript loads meeting transcripts from text files or stdin.
package transcript

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MaxSize is the largest transcript accepted, in bytes.
const MaxSize = 10 * 1024 * 1024

// Stdin is the path that selects standard input.
const Stdin = "-"

var (
	// ErrAudioUnsupported is returned for audio files. Transcribe them first.
	ErrAudioUnsupported = errors.New("audio transcripts are not supported; provide a text transcript")

	// ErrTooLarge indicates a transcript over MaxSize.
	ErrTooLarge = errors.New("transcript too large")
)

var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
	".aac":  true,
}

// IsAudio reports whether path has an audio file extension.
func IsAudio(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// Load reads the transcript at path, or stdin when path is "-".
func Load(path string) (string, error) {
	if path == Stdin {
		return FromReader(os.Stdin)
	}
	if IsAudio(path) {
		return "", fmt.Errorf("%s: %w", path, ErrAudioUnsupported)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()

	return FromReader(f)
}

// FromReader reads a transcript from r. Invalid UTF-8 sequences are dropped.
func FromReader(r io.Reader) (string, error) {
	content, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read transcript: %w", err)
	}
	if len(content) > MaxSize {
		return "", fmt.Errorf("%w: max %d bytes", ErrTooLarge, MaxSize)
	}
	return strings.ToValidUTF8(string(content), ""), nil
}
