package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLetterFor(t *testing.T) {
	tests := []struct {
		marks int
		want  GradeLetter
	}{
		{100, GradeAPlus},
		{90, GradeAPlus},
		{89, GradeA},
		{80, GradeA},
		{79, GradeB},
		{70, GradeB},
		{69, GradeC},
		{60, GradeC},
		{59, GradeD},
		{50, GradeD},
		{49, GradeF},
		{0, GradeF},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LetterFor(tt.marks), "marks %d", tt.marks)
	}
}

func TestFormFor(t *testing.T) {
	tests := []struct {
		name          string
		admissionYear int
		currentYear   int
		want          int
	}{
		{"admitted this year", 2025, 2025, 1},
		{"second year", 2024, 2025, 2},
		{"fourth year", 2022, 2025, 4},
		{"capped at max form", 2015, 2025, 4},
		{"admitted next year", 2026, 2025, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormFor(tt.admissionYear, tt.currentYear, DefaultMaxForm))
		})
	}
}

func TestStudentWithForm(t *testing.T) {
	s := &Student{AdmissionYear: 2023}
	s.WithForm(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), DefaultMaxForm)
	assert.Equal(t, 3, s.Form)
}

func TestAdmissionYearsForForm(t *testing.T) {
	tests := []struct {
		name     string
		form     int
		from, to int
		ok       bool
	}{
		{"form 1 includes future years", 1, 2025, MaxAdmissionYear, true},
		{"form 2", 2, 2024, 2024, true},
		{"form 3", 3, 2023, 2023, true},
		{"max form includes everyone older", 4, MinAdmissionYear, 2022, true},
		{"zero", 0, 0, 0, false},
		{"above max", 5, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, ok := AdmissionYearsForForm(tt.form, 2025, DefaultMaxForm)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.to, to)
		})
	}
}

// every admission year lands in exactly the form FormFor reports
func TestAdmissionYearsForFormMatchesFormFor(t *testing.T) {
	const current = 2025
	for year := 2010; year <= 2027; year++ {
		form := FormFor(year, current, DefaultMaxForm)
		from, to, ok := AdmissionYearsForForm(form, current, DefaultMaxForm)
		assert.True(t, ok)
		assert.True(t, year >= from && year <= to, "year %d form %d range %d-%d", year, form, from, to)
	}
}

func TestAdmissionNumber(t *testing.T) {
	assert.Equal(t, "GHS/00001/24", AdmissionNumber("GHS", 1, 2024))
	assert.Equal(t, "GHS/00123/05", AdmissionNumber("GHS", 123, 2005))
	assert.Equal(t, "KHS/123456/25", AdmissionNumber("KHS", 123456, 2025))
}

func TestSchoolCodeBase(t *testing.T) {
	assert.Equal(t, "GHS", SchoolCodeBase("GHS@1"))
	assert.Equal(t, "GHS", SchoolCodeBase("GHS"))
	assert.Equal(t, "A", SchoolCodeBase("A@b@c"))
}

func TestProfileName(t *testing.T) {
	admin := &SuperAdminIdentity{User: &User{Username: "root"}}
	assert.Equal(t, "root", ProfileName(admin))
	assert.Equal(t, int64(0), admin.TenantID())

	teacher := &TeacherIdentity{User: &User{Username: "t1"}, Profile: &Teacher{SchoolID: 3, FullName: "Peter Otieno"}}
	assert.Equal(t, "Peter Otieno", ProfileName(teacher))
	assert.Equal(t, int64(3), teacher.TenantID())
	assert.Equal(t, RoleTeacher, teacher.Role())
}
