package videoid

import (
	"regexp"
	"strings"

	"github.com/ahmetzturk/yt-summarizer/internal/apperrors"
)

// urlPatterns are tried in order; the first capture wins
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`v=([A-Za-z0-9_\-]{6,})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_\-]{6,})`),
	regexp.MustCompile(`shorts/([A-Za-z0-9_\-]{6,})`),
}

var bareID = regexp.MustCompile(`^[A-Za-z0-9_\-]{6,}$`)

// Extract returns the video identifier contained in a YouTube URL or a bare ID
func Extract(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", apperrors.E(apperrors.InvalidInput, "videoid.Extract", nil, "url_or_id is required")
	}

	for _, re := range urlPatterns {
		if m := re.FindStringSubmatch(input); m != nil {
			return m[1], nil
		}
	}

	if bareID.MatchString(input) {
		return input, nil
	}

	return "", apperrors.E(apperrors.InvalidInput, "videoid.Extract", nil,
		"video ID not found, send a valid YouTube URL or video ID")
}
