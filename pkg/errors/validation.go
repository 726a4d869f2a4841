package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateNodeID validates a component identifier of the dependency graph.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or whitespace
//   - Maximum length of 256 characters
//
// Identifiers are mapped to expression variables (see fdtmc.ReliabilityVar), so
// any remaining character is allowed and sanitized later.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidGraph, "node ID cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidGraph, "node ID too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidGraph, "node ID %q contains whitespace or control characters", id)
		}
	}

	return nil
}

// featureNameRegex matches feature names usable as expression identifiers.
var featureNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// reservedNames cannot be used as feature names because the expression
// language gives them a meaning of their own.
var reservedNames = map[string]bool{"true": true, "false": true, "null": true}

// ValidateFeatureName validates a feature name of the feature model.
// Feature names must start with a letter and contain only letters, digits
// and underscores.
func ValidateFeatureName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "feature name cannot be empty")
	}
	if reservedNames[name] {
		return New(ErrCodeInvalidInput, "feature name %q is reserved", name)
	}
	if !featureNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid feature name: %q", name)
	}
	return nil
}

// ValidatePath validates an input file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.TrimSpace(path) != path {
		return New(ErrCodeInvalidPath, "path cannot start or end with whitespace")
	}

	return nil
}
