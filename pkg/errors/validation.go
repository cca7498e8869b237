package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateDocumentID validates a document identifier for safety and
// correctness. Identifiers name corpus documents in cache keys, store
// lookups and file names, so the rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - Maximum length of 256 characters
func ValidateDocumentID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidDocument, "document id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidDocument, "document id too long (max 256 characters)")
	}

	// Check for control characters and null bytes
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidDocument, "document id contains invalid control characters")
		}
	}

	// Check for path traversal patterns
	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidDocument, "document id contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// strategyNameRegex matches strategy names: lowercase words joined by
// hyphens or underscores.
var strategyNameRegex = regexp.MustCompile(`^[a-z][a-z0-9]*([_-][a-z0-9]+)*$`)

// ValidateStrategyName checks the shape of a strategy name before it is
// resolved against the known classifier or ranker strategies. Resolution
// itself reports unknown names; this catches garbage early with a uniform
// error code.
func ValidateStrategyName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidStrategy, "strategy name cannot be empty")
	}
	if !strategyNameRegex.MatchString(name) {
		return New(ErrCodeInvalidStrategy, "invalid strategy name: %q", name)
	}
	return nil
}

// ValidatePath validates a file path for safety. It prevents path
// traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateOutputFormat checks an output format name against the supported
// set.
func ValidateOutputFormat(format string, supported []string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "output format cannot be empty")
	}
	for _, s := range supported {
		if format == s {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported output format %q (supported: %s)",
		format, strings.Join(supported, ", "))
}
