package dto

import "github.com/yigit/schoolbook/internal/app/models"

// CreateSchoolRequest registers a school with its first admin
type CreateSchoolRequest struct {
	Name          string `json:"name" binding:"required,max=150" example:"Greenfield High School"`
	SchoolCode    string `json:"schoolCode" binding:"required,schoolcode" example:"GHS@1"`
	AdminUsername string `json:"adminUsername" binding:"required,username,max=80" example:"ghs_admin"`
	AdminPassword string `json:"adminPassword" binding:"required,min=6" example:"secret1"`
	AdminFullName string `json:"adminFullName" binding:"max=150" example:"Jane Wanjiru"`
}

// SchoolOption is a public entry of the school picker
type SchoolOption struct {
	Name       string `json:"name" example:"Greenfield High School"`
	SchoolCode string `json:"schoolCode" example:"GHS@1"`
}

// CreateSchoolResponse is the created school and its admin account
type CreateSchoolResponse struct {
	School *models.School `json:"school"`
	Admin  *models.User   `json:"admin"`
}

// CreateAccountRequest creates a teacher or parent account
type CreateAccountRequest struct {
	FullName string `json:"fullName" binding:"required,max=150" example:"Peter Otieno"`
	Username string `json:"username" binding:"required,username,max=80" example:"potieno"`
	Password string `json:"password" binding:"required,min=6" example:"secret1"`
}

// CreateStudentRequest admits one student. AdmissionYear defaults to the
// current year.
type CreateStudentRequest struct {
	FullName      string `json:"fullName" binding:"required,max=150" example:"Ann Mwangi"`
	Username      string `json:"username" binding:"required,username,max=80" example:"ann1"`
	Password      string `json:"password" binding:"required,min=6" example:"secret1"`
	AdmissionYear int    `json:"admissionYear" binding:"omitempty,min=2000,max=2100" example:"2024"`
}

// CreateSubjectRequest adds a subject
type CreateSubjectRequest struct {
	Name string `json:"name" binding:"required,max=100" example:"Mathematics"`
}

// LinkCodeResponse is a freshly issued parent link code
type LinkCodeResponse struct {
	Code            string `json:"code" example:"3f1c1f8e-6d3b-4b7e-9f55-2f0f2b0f6a11"`
	StudentID       int64  `json:"studentId" example:"12"`
	AdmissionNumber string `json:"admissionNumber" example:"GHS/00001/24"`
}

// RedeemLinkCodeRequest links the calling parent to a student
type RedeemLinkCodeRequest struct {
	Code string `json:"code" binding:"required" example:"3f1c1f8e-6d3b-4b7e-9f55-2f0f2b0f6a11"`
}
