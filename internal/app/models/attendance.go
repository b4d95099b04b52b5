package models

import (
	"strings"
	"time"
)

// AttendanceStatus of a student on a date
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// ParseAttendanceStatus accepts any letter case
func ParseAttendanceStatus(s string) (AttendanceStatus, bool) {
	st := AttendanceStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return st, true
	}
	return "", false
}

// Attendance is unique per (student, date)
type Attendance struct {
	ID        int64            `json:"id" db:"id"`
	SchoolID  int64            `json:"schoolId" db:"school_id"`
	StudentID int64            `json:"studentId" db:"student_id"`
	TeacherID int64            `json:"teacherId" db:"teacher_id"`
	Date      time.Time        `json:"date" db:"date"`
	Status    AttendanceStatus `json:"status" db:"status"`
}

// RosterEntry is a student of the roster with the status recorded for a date, if any
type RosterEntry struct {
	Student *Student         `json:"student"`
	Status  AttendanceStatus `json:"status,omitempty"`
}
