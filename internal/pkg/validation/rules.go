package validation

import (
	"regexp"
	"strings"
)

// Validation rule patterns
var (
	// StudentCodePattern matches an institutional student code: digits only
	StudentCodePattern = `^\d+$`

	// PasswordMinLength is the minimum accepted password length
	PasswordMinLength = 8
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	StudentCode *regexp.Regexp
}{
	StudentCode: regexp.MustCompile(StudentCodePattern),
}

// IsStudentCode reports whether s looks like a student code
func IsStudentCode(s string) bool {
	return CompiledPatterns.StudentCode.MatchString(s)
}

// NormalizeEmail trims and lowercases an email for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
