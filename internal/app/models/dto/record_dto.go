package dto

import "github.com/yigit/schoolbook/internal/app/models"

// SubmitGradeRequest records marks for a student. The letter is always
// derived from marks.
type SubmitGradeRequest struct {
	AdmissionNumber string `json:"admissionNumber" binding:"required" example:"GHS/00001/24"`
	SubjectID       int64  `json:"subjectId" binding:"required,min=1" example:"3"`
	Term            string `json:"term" binding:"required,max=50" example:"Term 1 2025"`
	Marks           *int   `json:"marks" binding:"required,min=0,max=100" example:"92"`
}

// GradeSubmissionResponse is the stored grade and whether it was new
type GradeSubmissionResponse struct {
	Grade   *models.Grade `json:"grade"`
	Created bool          `json:"created"`
}

// AttendanceEntry is one student's status
type AttendanceEntry struct {
	StudentID int64  `json:"studentId" binding:"required,min=1" example:"12"`
	Status    string `json:"status" binding:"required" example:"present"`
}

// RecordAttendanceRequest records a form's attendance for one date
type RecordAttendanceRequest struct {
	Date    string            `json:"date" binding:"required,datetime=2006-01-02" example:"2025-02-03"`
	Form    int               `json:"form" binding:"required,min=1" example:"2"`
	Entries []AttendanceEntry `json:"entries" binding:"required,min=1,dive"`
}

// AttendanceResult counts the records written
type AttendanceResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}
