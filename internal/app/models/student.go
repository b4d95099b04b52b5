package models

import (
	"fmt"
	"time"
)

const (
	// DefaultMaxForm is the highest cohort level
	DefaultMaxForm = 4

	MinAdmissionYear = 2000
	MaxAdmissionYear = 2100
)

// Student profile. Form is derived from AdmissionYear at read time and
// never persisted.
type Student struct {
	ID              int64  `json:"id" db:"id"`
	UserID          int64  `json:"userId" db:"user_id"`
	SchoolID        int64  `json:"schoolId" db:"school_id"`
	FullName        string `json:"fullName" db:"full_name" example:"Ann Mwangi"`
	AdmissionNumber string `json:"admissionNumber" db:"admission_number" example:"GHS/00001/24"`
	AdmissionYear   int    `json:"admissionYear" db:"admission_year" example:"2024"`
	Form            int    `json:"form" db:"-" example:"1"`
	Username        string `json:"username,omitempty" db:"-"`
}

// WithForm fills Form relative to now
func (s *Student) WithForm(now time.Time, maxForm int) *Student {
	s.Form = FormFor(s.AdmissionYear, now.Year(), maxForm)
	return s
}

// FormFor returns min(maxForm, currentYear-admissionYear+1), floored at 1
func FormFor(admissionYear, currentYear, maxForm int) int {
	form := currentYear - admissionYear + 1
	if form > maxForm {
		form = maxForm
	}
	if form < 1 {
		form = 1
	}
	return form
}

// AdmissionYearsForForm returns the inclusive admission year range whose
// students are in form during currentYear.
func AdmissionYearsForForm(form, currentYear, maxForm int) (from, to int, ok bool) {
	if form < 1 || form > maxForm {
		return 0, 0, false
	}
	year := currentYear - form + 1
	from, to = year, year
	if form == maxForm {
		from = MinAdmissionYear
	}
	if form == 1 {
		to = MaxAdmissionYear
	}
	if from > to {
		return 0, 0, false
	}
	return from, to, true
}

// AdmissionNumber formats "<base>/<seq:05d>/<yy>"
func AdmissionNumber(base string, seq, year int) string {
	return fmt.Sprintf("%s/%05d/%02d", base, seq, year%100)
}
