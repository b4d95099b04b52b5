package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/app/services"
	"github.com/yigit/schoolbook/internal/middleware"
	"github.com/yigit/schoolbook/internal/pkg/helpers"
)

// SchoolController handles school management. Super admins manage schools,
// school admins manage the accounts and subjects of their own school.
type SchoolController struct {
	schoolService  services.SchoolService
	studentService services.StudentService
	staffService   services.StaffService
	subjectService services.SubjectService
	linkService    services.LinkService
	maxForm        int
	logger         zerolog.Logger
}

// NewSchoolController creates a new SchoolController
func NewSchoolController(
	schoolService services.SchoolService,
	studentService services.StudentService,
	staffService services.StaffService,
	subjectService services.SubjectService,
	linkService services.LinkService,
	maxForm int,
	logger zerolog.Logger,
) *SchoolController {
	return &SchoolController{
		schoolService:  schoolService,
		studentService: studentService,
		staffService:   staffService,
		subjectService: subjectService,
		linkService:    linkService,
		maxForm:        maxForm,
		logger:         logger,
	}
}

// CreateSchool registers a school together with its first admin
// @Summary Create school
// @Description Creates the school, its admin account and admin profile in one transaction
// @Tags super-admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSchoolRequest true "School and admin"
// @Success 201 {object} dto.APIResponse{data=dto.CreateSchoolResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 409 {object} dto.ErrorResponse "School code or username taken"
// @Router /super/schools [post]
func (c *SchoolController) CreateSchool(ctx *gin.Context) {
	var req dto.CreateSchoolRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	resp, err := c.schoolService.CreateSchool(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("schoolID", resp.School.ID).Str("schoolCode", resp.School.SchoolCode).Msg("School created")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// ListSchools lists every school with headcounts
// @Summary List schools
// @Tags super-admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.SchoolSummary}
// @Router /super/schools [get]
func (c *SchoolController) ListSchools(ctx *gin.Context) {
	schools, err := c.schoolService.ListSchools(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(schools))
}

// Dashboard returns the headcounts of the admin's school
// @Summary School dashboard
// @Tags school-admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.SchoolStats}
// @Router /admin/dashboard [get]
func (c *SchoolController) Dashboard(ctx *gin.Context) {
	admin, ok := caller[*models.SchoolAdminIdentity](ctx)
	if !ok {
		return
	}
	stats, err := c.schoolService.Dashboard(ctx.Request.Context(), admin.TenantID())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats))
}

// CreateStudent admits a student
// @Summary Admit student
// @Description Assigns the next admission number of the school. admissionYear defaults to the current year.
// @Tags school-admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateStudentRequest true "Student account"
// @Success 201 {object} dto.APIResponse{data=models.Student}
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 409 {object} dto.ErrorResponse "Username taken"
// @Router /admin/students [post]
func (c *SchoolController) CreateStudent(ctx *gin.Context) {
	admin, ok := caller[*models.SchoolAdminIdentity](ctx)
	if !ok {
		return
	}

	var req dto.CreateStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	student, err := c.studentService.Admit(ctx.Request.Context(), admin.TenantID(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(student))
}

// ListStudents pages through the school's students
// @Summary List students
// @Tags school-admin
// @Produce json
// @Security BearerAuth
// @Param form query int false "Only students currently in this form"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(25)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Student}}
// @Failure 400 {object} dto.ErrorResponse "Invalid form"
// @Router /admin/students [get]
func (c *SchoolController) ListStudents(ctx *gin.Context) {
	admin, ok := caller[*models.SchoolAdminIdentity](ctx)
	if !ok {
		return
	}
	form, ok := queryForm(ctx, c.maxForm)
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	students, total, err := c.studentService.List(ctx.Request.Context(), admin.TenantID(), form, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.PaginatedResponse{
		Items:      students,
		Pagination: helpers.NewPaginationInfo(int64(total), page, size),
	}))
}

// IssueLinkCode creates a parent link code for a student
// @Summary Issue parent link code
// @Description Any previous code of the student stops working
// @Tags school-admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 201 {object} dto.APIResponse{data=dto.LinkCodeResponse}
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /admin/students/{id}/link-code [post]
func (c *SchoolController) IssueLinkCode(ctx *gin.Context) {
	admin, ok := caller[*models.SchoolAdminIdentity](ctx)
	if !ok {
		return
	}
	studentID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	code, err := c.linkService.Issue(ctx.Request.Context(), admin.TenantID(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(code))
}

// CreateSubject adds a subject
// @Summary Create subject
// @Tags school-admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSubjectRequest true "Subject"
// @Success 201 {object} dto.APIResponse{data=models.Subject}
// @Failure 409 {object} dto.ErrorResponse "Subject exists"
// @Router /admin/subjects [post]
func (c *SchoolController) CreateSubject(ctx *gin.Context) {
	admin, ok := caller[*models.SchoolAdminIdentity](ctx)
	if !ok {
		return
	}

	var req dto.CreateSubjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	subject, err := c.subjectService.CreateSubject(ctx.Request.Context(), admin.TenantID(), req.Name)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(subject))
}

// ListSubjects lists the school's subjects
// @Summary List subjects
// @Tags school-admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Subject}
// @Router /admin/subjects [get]
// @Router /teacher/subjects [get]
func (c *SchoolController) ListSubjects(ctx *gin.Context) {
	identity, ok := middleware.GetIdentity(ctx)
	if !ok {
		return
	}
	subjects, err := c.subjectService.ListSubjects(ctx.Request.Context(), identity.TenantID())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(subjects))
}

// CreateTeacher adds a teacher account
// @Summary Create teacher
// @Tags school-admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateAccountRequest true "Teacher account"
// @Success 201 {object} dto.APIResponse{data=models.Teacher}
// @Failure 409 {object} dto.ErrorResponse "Username taken"
// @Router /admin/teachers [post]
func (c *SchoolController) CreateTeacher(ctx *gin.Context) {
	admin, ok := caller[*models.SchoolAdminIdentity](ctx)
	if !ok {
		return
	}

	var req dto.CreateAccountRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	teacher, err := c.staffService.CreateTeacher(ctx.Request.Context(), admin.TenantID(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(teacher))
}

// ListTeachers lists the school's teachers
// @Summary List teachers
// @Tags school-admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Teacher}
// @Router /admin/teachers [get]
func (c *SchoolController) ListTeachers(ctx *gin.Context) {
	admin, ok := caller[*models.SchoolAdminIdentity](ctx)
	if !ok {
		return
	}
	teachers, err := c.staffService.ListTeachers(ctx.Request.Context(), admin.TenantID())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(teachers))
}

// CreateParent adds a parent account
// @Summary Create parent
// @Tags school-admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateAccountRequest true "Parent account"
// @Success 201 {object} dto.APIResponse{data=models.Parent}
// @Failure 409 {object} dto.ErrorResponse "Username taken"
// @Router /admin/parents [post]
func (c *SchoolController) CreateParent(ctx *gin.Context) {
	admin, ok := caller[*models.SchoolAdminIdentity](ctx)
	if !ok {
		return
	}

	var req dto.CreateAccountRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	parent, err := c.staffService.CreateParent(ctx.Request.Context(), admin.TenantID(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(parent))
}

// ListParents lists the school's parents
// @Summary List parents
// @Tags school-admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Parent}
// @Router /admin/parents [get]
func (c *SchoolController) ListParents(ctx *gin.Context) {
	admin, ok := caller[*models.SchoolAdminIdentity](ctx)
	if !ok {
		return
	}
	parents, err := c.staffService.ListParents(ctx.Request.Context(), admin.TenantID())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(parents))
}
