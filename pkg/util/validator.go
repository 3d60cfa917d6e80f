package util

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate

	// Regular expression for a session id after sanitization
	sessionIDRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

func init() {
	validate = validator.New()

	// Register custom validation tags
	validate.RegisterValidation("sessionid", validateSessionID)
}

// Validate validates a struct using the validator
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// validateSessionID validates a sanitized session id
func validateSessionID(fl validator.FieldLevel) bool {
	return sessionIDRegex.MatchString(fl.Field().String())
}

// SanitizeSessionID strips path and query fragments from a user-supplied
// session id: the last path segment is taken and anything after '?' is
// dropped. Ids pasted from shareable links sanitize back to the bare id.
// Returns an empty string when nothing usable remains.
func SanitizeSessionID(id string) string {
	segments := strings.Split(id, "/")
	last := segments[len(segments)-1]
	if i := strings.IndexByte(last, '?'); i >= 0 {
		last = last[:i]
	}
	return strings.TrimSpace(last)
}
