package models

// Subject is unique by case-insensitive name within a school
type Subject struct {
	ID       int64  `json:"id" db:"id"`
	SchoolID int64  `json:"schoolId" db:"school_id"`
	Name     string `json:"name" db:"name" example:"Mathematics"`
}
