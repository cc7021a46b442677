// Package videoid recognises YouTube video identifiers in free-form input.
package videoid

import (
	"regexp"
	"strings"

	"github.com/kapu/video-qa-client/internal/constants"
	"github.com/kapu/video-qa-client/internal/domain"
	"github.com/kapu/video-qa-client/internal/util"
	"github.com/kapu/video-qa-client/pkg/errors"
)

// videoURLPattern accepts watch URLs (any query carrying v=), /v/, /e/ and
// /embed/ paths, /<segment>/.../<id> paths and youtu.be short links. The
// capture is the 11 characters that follow.
var videoURLPattern = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)

var (
	ErrEmptyInput      = errors.NewValidationError(constants.Messages.InvalidURL, "url", "")
	ErrUnrecognizedURL = errors.NewValidationError(constants.Messages.InvalidURL, "url", "unrecognized")
)

// Reference is a resolved submission input.
type Reference struct {
	Raw     string
	ID      string
	Matched bool
}

// WatchURL returns the canonical link for matched references, and the raw input otherwise.
func (r Reference) WatchURL() string {
	if !r.Matched {
		return r.Raw
	}
	return domain.WatchURL(r.ID)
}

// Extract returns the video identifier embedded in input, if any.
func Extract(input string) (string, bool) {
	match := videoURLPattern.FindStringSubmatch(input)
	if len(match) < 2 {
		return "", false
	}
	return match[1], true
}

// Resolve applies the submission policy to raw user input. Unmatched input is
// still accepted as an identifier when it is short.
func Resolve(input string) (Reference, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Reference{}, ErrEmptyInput
	}

	if id, ok := Extract(raw); ok {
		return Reference{Raw: raw, ID: id, Matched: true}, nil
	}

	if util.RuneLen(raw) > constants.Limits.MaxRawIDLength {
		return Reference{Raw: raw}, ErrUnrecognizedURL
	}

	return Reference{Raw: raw, ID: raw}, nil
}
