package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ahmetzturk/yt-summarizer/internal/apperrors"
)

func TestBuild(t *testing.T) {
	got, err := Build("  Hello world  ", "tr")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := "Summarize the following YouTube transcript in tr. " +
		"Provide a detailed but clear summary of the content:\n\"\"\"Hello world\"\"\""
	if got != expected {
		t.Errorf("Expected prompt:\n%s\ngot:\n%s", expected, got)
	}
}

func TestBuildEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t "} {
		_, err := Build(input, "en")
		if !apperrors.Is(err, apperrors.EmptyInput) {
			t.Errorf("For input %q expected EmptyInput, got %v", input, err)
		}
	}
}

func TestBuildTruncation(t *testing.T) {
	long := strings.Repeat("a", 15000)

	got, err := Build(long, "en")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	body := strings.Repeat("a", DefaultMaxChars) + TruncationMarker
	if !strings.Contains(got, "\"\"\""+body+"\"\"\"") {
		t.Error("Expected transcript to be cut to the ceiling followed by the marker")
	}
	if strings.Contains(got, strings.Repeat("a", DefaultMaxChars+1)) {
		t.Error("Expected no more than the ceiling of transcript characters")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		max      int
		expected string
	}{
		{"shorter", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"longer", "hello world", 5, "hello ..."},
		{"multibyte", "çğüşöıİ", 3, "çğü ..."},
		{"no ceiling", "hello", 0, "hello"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Truncate(test.text, test.max); got != test.expected {
				t.Errorf("Expected '%s', got '%s'", test.expected, got)
			}
		})
	}
}

func TestBuilderCustomCeiling(t *testing.T) {
	b := NewBuilder(100)
	got, err := b.Build(strings.Repeat("ş", 500), "tr")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !utf8.ValidString(got) {
		t.Error("Expected valid UTF-8 after truncation")
	}
	if !strings.Contains(got, strings.Repeat("ş", 100)+TruncationMarker) {
		t.Error("Expected truncation at custom ceiling")
	}

	if NewBuilder(-1).MaxChars != DefaultMaxChars {
		t.Error("Expected default ceiling for non-positive value")
	}
}
