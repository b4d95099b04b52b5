package models

import "time"

// GradeLetter is derived from marks, never accepted from clients
type GradeLetter string

const (
	GradeAPlus GradeLetter = "A+"
	GradeA     GradeLetter = "A"
	GradeB     GradeLetter = "B"
	GradeC     GradeLetter = "C"
	GradeD     GradeLetter = "D"
	GradeF     GradeLetter = "F"
)

// GradeLetters lists letters best first
var GradeLetters = []GradeLetter{GradeAPlus, GradeA, GradeB, GradeC, GradeD, GradeF}

// LetterFor maps marks to a letter using the 90/80/70/60/50 thresholds
func LetterFor(marks int) GradeLetter {
	switch {
	case marks >= 90:
		return GradeAPlus
	case marks >= 80:
		return GradeA
	case marks >= 70:
		return GradeB
	case marks >= 60:
		return GradeC
	case marks >= 50:
		return GradeD
	default:
		return GradeF
	}
}

// Grade is unique per (student, subject, term)
type Grade struct {
	ID          int64       `json:"id" db:"id"`
	SchoolID    int64       `json:"schoolId" db:"school_id"`
	StudentID   int64       `json:"studentId" db:"student_id"`
	SubjectID   int64       `json:"subjectId" db:"subject_id"`
	TeacherID   int64       `json:"teacherId" db:"teacher_id"`
	Term        string      `json:"term" db:"term" example:"Term 1 2025"`
	Marks       int         `json:"marks" db:"marks" example:"92"`
	Letter      GradeLetter `json:"gradeLetter" db:"grade_letter" example:"A+"`
	UpdatedAt   time.Time   `json:"updatedAt" db:"updated_at"`
	SubjectName string      `json:"subjectName,omitempty" db:"-"`
	StudentName string      `json:"studentName,omitempty" db:"-"`
}

// TermGrades groups a student's grades for one term
type TermGrades struct {
	Term   string   `json:"term"`
	Grades []*Grade `json:"grades"`
}
