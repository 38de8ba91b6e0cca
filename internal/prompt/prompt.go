package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ahmetzturk/yt-summarizer/internal/apperrors"
)

const (
	// DefaultMaxChars is the transcript ceiling, roughly 4-5k tokens
	DefaultMaxChars = 12000

	// TruncationMarker is appended to transcripts cut at the ceiling
	TruncationMarker = " ..."
)

// Builder creates summarization prompts from transcript text
type Builder struct {
	MaxChars int
}

// NewBuilder creates a builder; a non-positive ceiling falls back to DefaultMaxChars
func NewBuilder(maxChars int) *Builder {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Builder{MaxChars: maxChars}
}

// Build creates a prompt with the default ceiling
func Build(text, language string) (string, error) {
	return NewBuilder(DefaultMaxChars).Build(text, language)
}

// Build trims the transcript, truncates it to MaxChars and wraps it in the instruction template
func (b *Builder) Build(text, language string) (string, error) {
	text = Truncate(strings.TrimSpace(text), b.MaxChars)
	if text == "" {
		return "", apperrors.E(apperrors.EmptyInput, "prompt.Build", nil, "text to summarize is empty")
	}

	return fmt.Sprintf(
		"Summarize the following YouTube transcript in %s. "+
			"Provide a detailed but clear summary of the content:\n\"\"\"%s\"\"\"",
		language, text,
	), nil
}

// Truncate cuts text to at most maxChars characters and appends TruncationMarker when cut
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}

	runes := []rune(text)
	return string(runes[:maxChars]) + TruncationMarker
}
