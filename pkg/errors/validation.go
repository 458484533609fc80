package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// nodeIDRegex matches node identifiers accepted by the state stores: graph
// engine IDs ("watch-1", "geometry_3") as well as UUIDs.
var nodeIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)

// ValidateNodeID validates a node identifier before it is used as a file
// name or a redis key.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - Maximum length of 128 characters
//   - No control characters
//   - No path separators or traversal sequences
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidNodeID, "node id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidNodeID, "node id too long (max 128 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNodeID, "node id contains invalid control characters")
		}
	}

	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidNodeID, "node id cannot contain path traversal sequences (..)")
	}

	if !nodeIDRegex.MatchString(id) {
		return New(ErrCodeInvalidNodeID, "invalid node id: %q", id)
	}

	return nil
}

// ValidatePath validates a payload or status file path given on the
// command line or through the feed.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	return nil
}
