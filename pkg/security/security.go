// Package security provides validation, sanitization, and limits for the jobs package.
package security

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jdziat/simple-model-jobs/pkg/core"
)

// Security limits and configuration
const (
	// MaxJobTypeLength is the maximum length for job types and queue names
	MaxJobTypeLength = 255

	// MaxJobDataSize is the maximum size in bytes for encoded job data (1MB)
	MaxJobDataSize = 1 << 20

	// MaxAttempts is the hard limit for delivery attempts
	MaxAttempts = 100

	// MaxConcurrency is the hard limit for worker concurrency
	MaxConcurrency = 1000

	// MaxErrorMessageLength is the maximum length for stored error messages
	MaxErrorMessageLength = 4096
)

// validJobType matches alphanumeric, hyphens, underscores, dots and colons
var validJobType = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_\-\.:]*$`)

// ValidateJobType validates a job type or queue name
func ValidateJobType(name string) error {
	if name == "" {
		return core.ErrInvalidJobType
	}
	if len(name) > MaxJobTypeLength {
		return core.ErrJobTypeTooLong
	}
	if !validJobType.MatchString(name) {
		return core.ErrInvalidJobType
	}
	return nil
}

// ValidateJobData enforces the encoded job data size limit
func ValidateJobData(encoded []byte) error {
	if len(encoded) > MaxJobDataSize {
		return core.ErrJobDataTooLarge
	}
	return nil
}

// SanitizeErrorMessage truncates and sanitizes error messages for storage
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	// Remove any null bytes or control characters (except newlines)
	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}

	return result
}

// ClampAttempts ensures the attempt count is within [1, MaxAttempts]
func ClampAttempts(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxAttempts {
		return MaxAttempts
	}
	return n
}

// ClampConcurrency ensures concurrency is within limits
func ClampConcurrency(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}
