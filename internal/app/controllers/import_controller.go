package controllers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolbook/internal/app/importer"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/app/services"
	"github.com/yigit/schoolbook/internal/middleware"
	"github.com/yigit/schoolbook/internal/pkg/spreadsheet"
)

// ImportController handles spreadsheet uploads and template downloads
type ImportController struct {
	importService services.ImportService
	maxUpload     int64
	timeout       time.Duration
	logger        zerolog.Logger
}

// NewImportController creates a new ImportController. maxUpload caps the
// request body in bytes; timeout replaces the server write timeout for
// import responses.
func NewImportController(importService services.ImportService, maxUpload int64, timeout time.Duration, logger zerolog.Logger) *ImportController {
	return &ImportController{
		importService: importService,
		maxUpload:     maxUpload,
		timeout:       timeout,
		logger:        logger,
	}
}

type importFunc func(ctx *gin.Context, file io.Reader) (*importer.Report, error)

func (c *ImportController) handle(ctx *gin.Context, kind string, run importFunc) {
	if c.timeout > 0 {
		// leave a little room to write the report after the import gives up
		deadline := time.Now().Add(c.timeout + 10*time.Second)
		rc := http.NewResponseController(ctx.Writer)
		if err := rc.SetWriteDeadline(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
			c.logger.Warn().Err(err).Msg("Could not extend write deadline")
		}
	}
	if c.maxUpload > 0 {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxUpload)
	}

	header, err := ctx.FormFile("file")
	if err != nil {
		badRequest(ctx, "No file part in the request")
		return
	}
	if header.Filename == "" {
		badRequest(ctx, "No selected file")
		return
	}
	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".xlsx" {
		badRequest(ctx, "Invalid file type. Please upload an .xlsx file")
		return
	}

	file, err := header.Open()
	if err != nil {
		badRequest(ctx, "Could not open uploaded file")
		return
	}
	defer file.Close()

	report, err := run(ctx, file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().
		Str("kind", kind).
		Str("file", header.Filename).
		Int("added", report.Added).
		Int("skipped", report.Skipped).
		Msg("Import finished")

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(report))
}

// ImportSchools creates schools and their admins from a spreadsheet
// @Summary Import schools
// @Description Columns: SchoolName, SchoolCode, AdminUsername, AdminPassword. Invalid rows are skipped and reported.
// @Tags imports
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Excel workbook (.xlsx)"
// @Success 200 {object} dto.APIResponse{data=importer.Report}
// @Failure 400 {object} dto.ErrorResponse "Missing file, unreadable workbook or missing columns"
// @Failure 409 {object} dto.ErrorResponse "Commit failed"
// @Router /super/schools/import [post]
func (c *ImportController) ImportSchools(ctx *gin.Context) {
	c.handle(ctx, services.TemplateSchools, func(ctx *gin.Context, file io.Reader) (*importer.Report, error) {
		return c.importService.ImportSchools(ctx.Request.Context(), file)
	})
}

// ImportStudents admits students of the caller's school from a spreadsheet
// @Summary Import students
// @Description Columns: FullName, AdmissionYear, LoginUsername, InitialPassword. Admission numbers continue the school sequence.
// @Tags imports
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Excel workbook (.xlsx)"
// @Success 200 {object} dto.APIResponse{data=importer.Report}
// @Failure 400 {object} dto.ErrorResponse "Missing file, unreadable workbook or missing columns"
// @Failure 409 {object} dto.ErrorResponse "Commit failed"
// @Router /admin/students/import [post]
func (c *ImportController) ImportStudents(ctx *gin.Context) {
	admin, ok := caller[*models.SchoolAdminIdentity](ctx)
	if !ok {
		return
	}
	c.handle(ctx, services.TemplateStudents, func(ctx *gin.Context, file io.Reader) (*importer.Report, error) {
		return c.importService.ImportStudents(ctx.Request.Context(), admin.TenantID(), file)
	})
}

// ImportSubjects adds subjects of the caller's school from a spreadsheet
// @Summary Import subjects
// @Description Column: SubjectName. Names already present (case-insensitive) are skipped.
// @Tags imports
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Excel workbook (.xlsx)"
// @Success 200 {object} dto.APIResponse{data=importer.Report}
// @Failure 400 {object} dto.ErrorResponse "Missing file, unreadable workbook or missing columns"
// @Router /admin/subjects/import [post]
func (c *ImportController) ImportSubjects(ctx *gin.Context) {
	admin, ok := caller[*models.SchoolAdminIdentity](ctx)
	if !ok {
		return
	}
	c.handle(ctx, services.TemplateSubjects, func(ctx *gin.Context, file io.Reader) (*importer.Report, error) {
		return c.importService.ImportSubjects(ctx.Request.Context(), admin.TenantID(), file)
	})
}

// Template downloads an empty import workbook
// @Summary Download import template
// @Description kind is one of schools, students, subjects
// @Tags imports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param kind path string true "Template kind" Enums(schools, students, subjects)
// @Success 200 {file} file
// @Failure 403 {object} dto.ErrorResponse "Role may not use this template"
// @Failure 404 {object} dto.ErrorResponse "Unknown template"
// @Router /templates/{kind} [get]
func (c *ImportController) Template(ctx *gin.Context) {
	kind := ctx.Param("kind")
	identity, _ := middleware.GetIdentity(ctx)

	// schools are imported by super admins, the rest by school admins
	want := models.RoleSchoolAdmin
	if kind == services.TemplateSchools {
		want = models.RoleSuperAdmin
	}
	if identity == nil || identity.Role() != want {
		ctx.JSON(http.StatusForbidden, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied"),
		))
		return
	}

	filename, data, err := c.importService.Template(kind)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	ctx.Data(http.StatusOK, spreadsheet.ContentType, data)
}
