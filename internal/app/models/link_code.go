package models

import "time"

// StudentLinkCode is a one-time code a parent redeems to link to a student
type StudentLinkCode struct {
	ID        int64     `json:"id" db:"id"`
	Code      string    `json:"code" db:"code" example:"3f1c1f8e-6d3b-4b7e-9f55-2f0f2b0f6a11"`
	StudentID int64     `json:"studentId" db:"student_id"`
	IsUsed    bool      `json:"isUsed" db:"is_used"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
