package models

import (
	"time"
)

// User is an authentication identity. SchoolID is nil only for super admins.
type User struct {
	ID           int64     `json:"id" db:"id" example:"1"`
	Username     string    `json:"username" db:"username" example:"jdoe"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         RoleType  `json:"role" db:"role" example:"teacher"`
	SchoolID     *int64    `json:"schoolId,omitempty" db:"school_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// SchoolAdmin is the profile of a school administrator
type SchoolAdmin struct {
	ID       int64  `json:"id" db:"id"`
	UserID   int64  `json:"userId" db:"user_id"`
	SchoolID int64  `json:"schoolId" db:"school_id"`
	FullName string `json:"fullName" db:"full_name"`
}

// Teacher is the profile of a teacher
type Teacher struct {
	ID       int64  `json:"id" db:"id"`
	UserID   int64  `json:"userId" db:"user_id"`
	SchoolID int64  `json:"schoolId" db:"school_id"`
	FullName string `json:"fullName" db:"full_name"`
	Username string `json:"username,omitempty" db:"-"`
}

// Parent is the profile of a parent or guardian
type Parent struct {
	ID       int64  `json:"id" db:"id"`
	UserID   int64  `json:"userId" db:"user_id"`
	SchoolID int64  `json:"schoolId" db:"school_id"`
	FullName string `json:"fullName" db:"full_name"`
	Username string `json:"username,omitempty" db:"-"`
}
