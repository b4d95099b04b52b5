package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/app/services"
	"github.com/yigit/schoolbook/internal/middleware"
)

// StudentController serves a student's own records
type StudentController struct {
	gradeService      services.GradeService
	insightsService   services.InsightsService
	attendanceService services.AttendanceService
}

// NewStudentController creates a new StudentController
func NewStudentController(gradeService services.GradeService, insightsService services.InsightsService, attendanceService services.AttendanceService) *StudentController {
	return &StudentController{
		gradeService:      gradeService,
		insightsService:   insightsService,
		attendanceService: attendanceService,
	}
}

// Grades returns the caller's grades grouped by term
// @Summary My grades
// @Tags student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.TermGrades}
// @Router /student/grades [get]
func (c *StudentController) Grades(ctx *gin.Context) {
	student, ok := caller[*models.StudentIdentity](ctx)
	if !ok {
		return
	}
	terms, err := c.gradeService.ByTerm(ctx.Request.Context(), student.TenantID(), student.Profile.ID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(terms))
}

// Insights returns a remark for a term and a prediction for the next one
// @Summary My insights
// @Tags student
// @Produce json
// @Security BearerAuth
// @Param term query string false "Term, defaults to the latest"
// @Success 200 {object} dto.APIResponse{data=services.Insights}
// @Router /student/insights [get]
func (c *StudentController) Insights(ctx *gin.Context) {
	student, ok := caller[*models.StudentIdentity](ctx)
	if !ok {
		return
	}
	insights, err := c.insightsService.Insights(ctx.Request.Context(), student, ctx.Query("term"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(insights))
}

// Attendance returns the caller's attendance history
// @Summary My attendance
// @Tags student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Attendance}
// @Router /student/attendance [get]
func (c *StudentController) Attendance(ctx *gin.Context) {
	student, ok := caller[*models.StudentIdentity](ctx)
	if !ok {
		return
	}
	history, err := c.attendanceService.History(ctx.Request.Context(), student.TenantID(), student.Profile.ID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(history))
}
