package errors

import (
	"strings"
	"unicode"
)

// ValidateModuleName validates a Python module name before it is handed to
// the package-registration subprocess. It rejects names that could be used
// for path traversal or argument injection.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path traversal sequences (.., //, backslash)
//   - No leading dash (would be parsed as a flag by the tool)
//   - Maximum length of 256 characters
func ValidateModuleName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidModule, "module name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidModule, "module name too long (max 256 characters)")
	}

	if strings.HasPrefix(name, "-") {
		return New(ErrCodeInvalidModule, "module name cannot start with a dash")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidModule, "module name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
		"/",    // Module names never contain path separators
		" ",    // Or whitespace
	}
	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidModule, "module name contains invalid sequence: %q", pattern)
		}
	}

	return nil
}
