package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/app/services"
	"github.com/yigit/schoolbook/internal/middleware"
	"github.com/yigit/schoolbook/internal/pkg/helpers"
)

// TeacherController handles grade entry and attendance
type TeacherController struct {
	gradeService      services.GradeService
	studentService    services.StudentService
	attendanceService services.AttendanceService
	maxForm           int
	logger            zerolog.Logger
}

// NewTeacherController creates a new TeacherController
func NewTeacherController(
	gradeService services.GradeService,
	studentService services.StudentService,
	attendanceService services.AttendanceService,
	maxForm int,
	logger zerolog.Logger,
) *TeacherController {
	return &TeacherController{
		gradeService:      gradeService,
		studentService:    studentService,
		attendanceService: attendanceService,
		maxForm:           maxForm,
		logger:            logger,
	}
}

// SubmitGrade records marks for a student
// @Summary Submit grade
// @Description Creates or replaces the grade of (student, subject, term). The letter is derived from the marks.
// @Tags teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SubmitGradeRequest true "Grade"
// @Success 200 {object} dto.APIResponse{data=dto.GradeSubmissionResponse} "Grade updated"
// @Success 201 {object} dto.APIResponse{data=dto.GradeSubmissionResponse} "Grade created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 404 {object} dto.ErrorResponse "Student or subject not found in this school"
// @Router /teacher/grades [post]
func (c *TeacherController) SubmitGrade(ctx *gin.Context) {
	teacher, ok := caller[*models.TeacherIdentity](ctx)
	if !ok {
		return
	}

	var req dto.SubmitGradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	grade, created, err := c.gradeService.Submit(ctx.Request.Context(), teacher, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ctx.JSON(status, dto.NewSuccessResponse(dto.GradeSubmissionResponse{Grade: grade, Created: created}))
}

// RecentGrades lists the grades this teacher entered last
// @Summary Recent grades
// @Tags teacher
// @Produce json
// @Security BearerAuth
// @Param limit query int false "How many" default(20)
// @Success 200 {object} dto.APIResponse{data=[]models.Grade}
// @Router /teacher/grades/recent [get]
func (c *TeacherController) RecentGrades(ctx *gin.Context) {
	teacher, ok := caller[*models.TeacherIdentity](ctx)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	grades, err := c.gradeService.Recent(ctx.Request.Context(), teacher, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(grades))
}

func (c *TeacherController) requiredForm(ctx *gin.Context) (int, bool) {
	form, ok := queryForm(ctx, c.maxForm)
	if !ok {
		return 0, false
	}
	if form == 0 {
		badRequest(ctx, "form is required")
		return 0, false
	}
	return form, true
}

// Roster lists the students currently in a form
// @Summary Form roster
// @Tags teacher
// @Produce json
// @Security BearerAuth
// @Param form query int true "Form"
// @Success 200 {object} dto.APIResponse{data=[]models.Student}
// @Failure 400 {object} dto.ErrorResponse "Missing or invalid form"
// @Router /teacher/roster [get]
func (c *TeacherController) Roster(ctx *gin.Context) {
	teacher, ok := caller[*models.TeacherIdentity](ctx)
	if !ok {
		return
	}
	form, ok := c.requiredForm(ctx)
	if !ok {
		return
	}

	students, err := c.studentService.Roster(ctx.Request.Context(), teacher.TenantID(), form)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(students))
}

// RecordAttendance records a form's attendance for a date
// @Summary Record attendance
// @Description Upserts one status per student. Every student must be on the roster of the form.
// @Tags teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RecordAttendanceRequest true "Attendance"
// @Success 200 {object} dto.APIResponse{data=dto.AttendanceResult}
// @Failure 400 {object} dto.ErrorResponse "Invalid request or status"
// @Failure 404 {object} dto.ErrorResponse "Student not on the roster"
// @Router /teacher/attendance [post]
func (c *TeacherController) RecordAttendance(ctx *gin.Context) {
	teacher, ok := caller[*models.TeacherIdentity](ctx)
	if !ok {
		return
	}

	var req dto.RecordAttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}
	if req.Form > c.maxForm {
		badRequest(ctx, "form must be between 1 and "+strconv.Itoa(c.maxForm))
		return
	}

	result, err := c.attendanceService.Record(ctx.Request.Context(), teacher, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}

// AttendanceSheet shows a form's roster with the statuses recorded on a date
// @Summary Attendance sheet
// @Tags teacher
// @Produce json
// @Security BearerAuth
// @Param form query int true "Form"
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} dto.APIResponse{data=[]models.RosterEntry}
// @Failure 400 {object} dto.ErrorResponse "Invalid form or date"
// @Router /teacher/attendance [get]
func (c *TeacherController) AttendanceSheet(ctx *gin.Context) {
	teacher, ok := caller[*models.TeacherIdentity](ctx)
	if !ok {
		return
	}
	form, ok := c.requiredForm(ctx)
	if !ok {
		return
	}

	date := helpers.Today(time.Now())
	if raw := ctx.Query("date"); raw != "" {
		parsed, err := helpers.ParseDate(raw)
		if err != nil {
			badRequest(ctx, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	entries, err := c.attendanceService.Sheet(ctx.Request.Context(), teacher.TenantID(), date, form)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(entries))
}
