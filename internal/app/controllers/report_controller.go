package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/app/services"
	"github.com/yigit/schoolbook/internal/middleware"
)

// ReportController serves report cards and analytics
type ReportController struct {
	reportService    services.ReportService
	analyticsService services.AnalyticsService
	maxForm          int
	logger           zerolog.Logger
}

// NewReportController creates a new ReportController
func NewReportController(reportService services.ReportService, analyticsService services.AnalyticsService, maxForm int, logger zerolog.Logger) *ReportController {
	return &ReportController{
		reportService:    reportService,
		analyticsService: analyticsService,
		maxForm:          maxForm,
		logger:           logger,
	}
}

// ReportCard downloads a student's report card
// @Summary Report card PDF
// @Description Students see their own, parents their linked children, staff their school.
// @Tags reports
// @Produce application/pdf
// @Security BearerAuth
// @Param studentId path int true "Student ID"
// @Param term path string true "Term, e.g. Term 1 2025"
// @Success 200 {file} file
// @Failure 404 {object} dto.ErrorResponse "Student not visible or no grades for the term"
// @Router /reports/{studentId}/{term} [get]
func (c *ReportController) ReportCard(ctx *gin.Context) {
	identity, ok := middleware.GetIdentity(ctx)
	if !ok {
		return
	}
	studentID, ok := paramID(ctx, "studentId")
	if !ok {
		return
	}

	card, pdf, err := c.reportService.ReportCard(ctx.Request.Context(), identity, studentID, ctx.Param("term"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="`+card.Filename()+`"`)
	ctx.Data(http.StatusOK, "application/pdf", pdf)
}

// StudentTrend returns a student's average marks per term
// @Summary Student performance trend
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=[]models.TermAverage}
// @Failure 404 {object} dto.ErrorResponse "Student not visible"
// @Router /analytics/students/{id}/trend [get]
func (c *ReportController) StudentTrend(ctx *gin.Context) {
	identity, ok := middleware.GetIdentity(ctx)
	if !ok {
		return
	}
	studentID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	trend, err := c.analyticsService.StudentTrend(ctx.Request.Context(), identity, studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(trend))
}

// ClassDistribution counts the grade letters of a form
// @Summary Grade distribution of a form
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param form path int true "Form"
// @Success 200 {object} dto.APIResponse{data=models.LetterDistribution}
// @Failure 400 {object} dto.ErrorResponse "Invalid form"
// @Router /admin/analytics/class-distribution/{form} [get]
func (c *ReportController) ClassDistribution(ctx *gin.Context) {
	admin, ok := caller[*models.SchoolAdminIdentity](ctx)
	if !ok {
		return
	}
	form, err := strconv.Atoi(ctx.Param("form"))
	if err != nil || form < 1 || form > c.maxForm {
		badRequest(ctx, "form must be between 1 and "+strconv.Itoa(c.maxForm))
		return
	}

	dist, err := c.analyticsService.ClassDistribution(ctx.Request.Context(), admin.TenantID(), form)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dist))
}

// SchoolComparison ranks schools by average marks
// @Summary Compare schools
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.SchoolAverage}
// @Router /super/analytics/school-comparison [get]
func (c *ReportController) SchoolComparison(ctx *gin.Context) {
	averages, err := c.analyticsService.SchoolComparison(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(averages))
}
