package domain

import (
	"strings"

	dErrors "datamesh/pkg/domain-errors"
)

// ScrubbingLevel is the strength of PII removal applied before an entity is
// contributed to the data network.
// Invariant: the value must be one of the supported levels.
//
// Usage: construct via ParseScrubbingLevel at trust boundaries to enforce
// the allowlist; direct casting bypasses validation.
type ScrubbingLevel string

// Supported scrubbing levels, strongest first.
const (
	ScrubbingStrict   ScrubbingLevel = "strict"
	ScrubbingModerate ScrubbingLevel = "moderate"
	ScrubbingMinimal  ScrubbingLevel = "minimal"
)

// validScrubbingLevels is the single source of truth for valid levels.
var validScrubbingLevels = map[ScrubbingLevel]bool{
	ScrubbingStrict:   true,
	ScrubbingModerate: true,
	ScrubbingMinimal:  true,
}

// ParseScrubbingLevel constructs a ScrubbingLevel from external input.
// Matching is case-insensitive.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseScrubbingLevel(s string) (ScrubbingLevel, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "scrubbing level cannot be empty")
	}
	l := ScrubbingLevel(strings.ToLower(s))
	if !l.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid scrubbing level")
	}
	return l, nil
}

// IsValid checks if the level is one of the supported enum values.
func (l ScrubbingLevel) IsValid() bool {
	return validScrubbingLevels[l]
}

// String returns the string representation of the level.
func (l ScrubbingLevel) String() string {
	return string(l)
}

// OrStrict returns the level itself when valid, ScrubbingStrict otherwise.
// Unknown levels in consent records degrade toward over-scrubbing.
func (l ScrubbingLevel) OrStrict() ScrubbingLevel {
	if l.IsValid() {
		return l
	}
	return ScrubbingStrict
}
