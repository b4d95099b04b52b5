package validation

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// SchoolCodePattern is a base of letters and digits, optionally followed
	// by '@' and a suffix: GHS, GHS@1
	SchoolCodePattern = `^[A-Za-z0-9]+(@[A-Za-z0-9_-]+)?$`

	// UsernamePattern allows no whitespace or '/'
	UsernamePattern = `^[^\s/]+$`

	SchoolCodeMinLength = 3
	SchoolCodeMaxLength = 20
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	SchoolCode *regexp.Regexp
	Username   *regexp.Regexp
}{
	SchoolCode: regexp.MustCompile(SchoolCodePattern),
	Username:   regexp.MustCompile(UsernamePattern),
}

// ValidSchoolCode reports whether code has an allowed shape and length
func ValidSchoolCode(code string) bool {
	if len(code) < SchoolCodeMinLength || len(code) > SchoolCodeMaxLength {
		return false
	}
	return CompiledPatterns.SchoolCode.MatchString(code)
}

// ValidUsername reports whether username is non-empty without whitespace
func ValidUsername(username string) bool {
	return CompiledPatterns.Username.MatchString(username)
}

// Register adds the "schoolcode" and "username" tags to v
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("schoolcode", func(fl validator.FieldLevel) bool {
		return ValidSchoolCode(strings.TrimSpace(fl.Field().String()))
	}); err != nil {
		return err
	}
	return v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidUsername(strings.TrimSpace(fl.Field().String()))
	})
}

// RegisterWithGin adds the custom tags to gin's default validator
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return Register(v)
}
