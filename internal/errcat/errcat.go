// Package errcat classifies recorded experiment errors so relaunch policies
// can tell infrastructure failures apart from genuine agent failures.
package errcat

import "strings"

// Substrings that indicate the serving side went away entirely. Matched
// case-insensitively against both the error message and the stack trace.
var criticalServerPatterns = []string{
	"connection refused",
	"connection reset by peer",
	"no route to host",
	"server is not running",
	"502 bad gateway",
	"503 service unavailable",
	"cuda out of memory",
	"broken pipe",
}

// Substrings for transient serving hiccups that usually clear on retry.
var minorServerPatterns = []string{
	"429",
	"rate limit",
	"request timed out",
	"context deadline exceeded",
	"temporarily unavailable",
	"504 gateway timeout",
	"overloaded",
}

// IsCriticalServerError reports whether the recorded failure points at a
// dead or unreachable model server.
func IsCriticalServerError(errMsg, stackTrace string) bool {
	return matchesAny(errMsg, stackTrace, criticalServerPatterns)
}

// IsMinorServerError reports whether the recorded failure looks like a
// transient serving-side error.
func IsMinorServerError(errMsg, stackTrace string) bool {
	return matchesAny(errMsg, stackTrace, minorServerPatterns)
}

func matchesAny(errMsg, stackTrace string, patterns []string) bool {
	haystack := strings.ToLower(errMsg + "\n" + stackTrace)
	if strings.TrimSpace(haystack) == "" {
		return false
	}
	for _, pattern := range patterns {
		if strings.Contains(haystack, pattern) {
			return true
		}
	}
	return false
}
