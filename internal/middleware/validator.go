package middleware

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

// ValidateClaimID validates claim ID format
func ValidateClaimID(claimID string) error {
	if claimID == "" {
		return fmt.Errorf("claim ID cannot be empty")
	}

	// UUID pattern
	pattern := `^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`
	matched, _ := regexp.MatchString(pattern, strings.ToLower(claimID))
	if !matched {
		return fmt.Errorf("invalid claim ID format")
	}

	return nil
}

// ValidateAdjusterID validates adjuster ID format
func ValidateAdjusterID(adjuster string) error {
	if adjuster == "" {
		return fmt.Errorf("adjuster ID cannot be empty")
	}

	// Allow alphanumeric, dash, underscore (max 64 chars)
	pattern := `^[a-zA-Z0-9_-]{1,64}$`
	matched, _ := regexp.MatchString(pattern, adjuster)
	if !matched {
		return fmt.Errorf("invalid adjuster ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}

	return nil
}

// ValidateFileCount bounds the number of files accepted on claim creation
func ValidateFileCount(count int) error {
	if count <= 0 {
		return fmt.Errorf("at least one file is required")
	}
	if count > 25 {
		return fmt.Errorf("too many files: %d (max 25)", count)
	}
	return nil
}

// ValidateFilename validates uploaded filenames
func ValidateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	// Block path traversal attempts
	cleaned := filepath.Clean(name)
	if strings.Contains(cleaned, "..") || strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("invalid filename: %s", name)
	}

	// Block dangerous patterns
	dangerous := []string{"\x00", "\n", "\r"}
	for _, d := range dangerous {
		if strings.Contains(name, d) {
			return fmt.Errorf("invalid characters in filename")
		}
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

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
