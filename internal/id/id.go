// Package id normalizes Notion identifiers.
//
// Notion IDs show up in three shapes: undashed 32-char hex, dashed UUID,
// and URLs that carry either form as the trailing path token. All of them
// normalize to the canonical undashed lowercase form; the dashed form is
// only produced on demand for API calls.
package id

import (
	"fmt"
	"regexp"
	"strings"
)

// ID is the canonical form of a Notion identifier: 32 lowercase hex chars,
// no dashes. Equality over IDs is equality over the canonical form.
type ID string

// urlIDPattern matches a 32-hex or dashed-UUID token preceded by '/' or '-'
// and followed by '/', '?', '#', or end of string.
var urlIDPattern = regexp.MustCompile(
	`(?:[/-])([a-fA-F0-9]{32}|[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12})(?:[/?#]|$)`)

// InvalidIDError reports input that could not be normalized.
type InvalidIDError struct {
	Input  string
	Reason string
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid Notion ID %q: %s", e.Input, e.Reason)
}

// Parse normalizes any accepted input form into a canonical ID.
func Parse(input string) (ID, error) {
	cleaned := strings.TrimSpace(input)
	cleaned = strings.TrimRight(cleaned, "/")

	if cleaned == "" {
		return "", &InvalidIDError{Input: input, Reason: "empty input"}
	}

	// URLs: extract the trailing ID token first.
	if strings.HasPrefix(cleaned, "http://") || strings.HasPrefix(cleaned, "https://") ||
		strings.Contains(cleaned, "notion.so") || strings.Contains(cleaned, "notion.site") {
		m := urlIDPattern.FindStringSubmatch(cleaned)
		if m == nil {
			return "", &InvalidIDError{Input: input, Reason: "no ID token found in URL"}
		}
		cleaned = m[1]
	}

	hex := strings.ReplaceAll(cleaned, "-", "")
	if len(hex) != 32 {
		return "", &InvalidIDError{
			Input:  input,
			Reason: fmt.Sprintf("expected 32 hex characters, got %d", len(hex)),
		}
	}
	for _, c := range hex {
		if !isHexDigit(c) {
			return "", &InvalidIDError{Input: input, Reason: "non-hexadecimal character"}
		}
	}

	return ID(strings.ToLower(hex)), nil
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// String returns the canonical undashed form.
func (i ID) String() string { return string(i) }

// Dashed returns the 8-4-4-4-12 UUID form used on the wire.
func (i ID) Dashed() string {
	s := string(i)
	if len(s) != 32 {
		return s
	}
	return s[0:8] + "-" + s[8:12] + "-" + s[12:16] + "-" + s[16:20] + "-" + s[20:32]
}

// TypeHint is a guess at what object type an input string refers to,
// derived from URL structure alone.
type TypeHint int

const (
	// HintUnknown means no URL clues were available.
	HintUnknown TypeHint = iota
	// HintDatabase means the URL carries a `?v=` view parameter, which only
	// database views have. The fetcher uses this to try the database
	// endpoint first and skip a wasted 404 on the pages endpoint.
	HintDatabase
)

func (h TypeHint) String() string {
	if h == HintDatabase {
		return "database"
	}
	return "unknown"
}

// HintFromInput detects a type hint from a raw Notion URL or ID string.
func HintFromInput(input string) TypeHint {
	if strings.Contains(input, "?v=") || strings.Contains(input, "&v=") {
		return HintDatabase
	}
	return HintUnknown
}
