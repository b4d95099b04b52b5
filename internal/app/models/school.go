package models

import (
	"strings"
	"time"
)

// School is the tenant root
type School struct {
	ID         int64     `json:"id" db:"id" example:"1"`
	Name       string    `json:"name" db:"name" example:"Greenfield High School"`
	SchoolCode string    `json:"schoolCode" db:"school_code" example:"GHS@1"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// CodeBase returns the part of the school code used in admission numbers,
// everything before the first '@'.
func (s *School) CodeBase() string {
	return SchoolCodeBase(s.SchoolCode)
}

// SchoolCodeBase returns code up to the first '@'
func SchoolCodeBase(code string) string {
	if i := strings.IndexByte(code, '@'); i >= 0 {
		return code[:i]
	}
	return code
}

// SchoolSummary is a school with headcounts, as listed to super admins
type SchoolSummary struct {
	School
	Students int `json:"students"`
	Teachers int `json:"teachers"`
}

// SchoolStats is the school admin dashboard
type SchoolStats struct {
	Students int `json:"students"`
	Teachers int `json:"teachers"`
	Subjects int `json:"subjects"`
	Parents  int `json:"parents"`
}
