package middleware

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/carbon-validator/internal/domain/projects"
)

// Input validation and sanitization utilities

// ValidateProjectCode checks the externally assigned project code format.
func ValidateProjectCode(code string) error {
	if code == "" {
		return fmt.Errorf("project code cannot be empty")
	}
	if !projects.ValidCode(code) {
		return fmt.Errorf("invalid project code format (alphanumeric, dot, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateText rejects empty input and input longer than max bytes.
func ValidateText(field, s string, max int) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if max > 0 && len(s) > max {
		return fmt.Errorf("%s is too long (max %d bytes)", field, max)
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
