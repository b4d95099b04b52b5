package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolbook/internal/app/controllers"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/middleware"
)

// Controllers groups every handler mounted by SetupRouter
type Controllers struct {
	Auth    *controllers.AuthController
	School  *controllers.SchoolController
	Import  *controllers.ImportController
	Teacher *controllers.TeacherController
	Student *controllers.StudentController
	Parent  *controllers.ParentController
	Report  *controllers.ReportController
}

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	c Controllers,
	authMiddleware *middleware.AuthMiddleware,
	loginLimiter *middleware.LoginRateLimiter,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	v1.GET("/schools", c.Auth.PublicSchools)

	auth := v1.Group("/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), c.Auth.Login)
	}

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	authenticated.GET("/auth/me", c.Auth.Me)

	// Templates check the role per kind
	authenticated.GET("/templates/:kind", c.Import.Template)

	super := authenticated.Group("/super")
	super.Use(authMiddleware.RoleRequired(models.RoleSuperAdmin))
	{
		super.POST("/schools", c.School.CreateSchool)
		super.GET("/schools", c.School.ListSchools)
		super.POST("/schools/import", c.Import.ImportSchools)
		super.GET("/analytics/school-comparison", c.Report.SchoolComparison)
	}

	admin := authenticated.Group("/admin")
	admin.Use(authMiddleware.RoleRequired(models.RoleSchoolAdmin))
	{
		admin.GET("/dashboard", c.School.Dashboard)

		admin.POST("/students", c.School.CreateStudent)
		admin.GET("/students", c.School.ListStudents)
		admin.POST("/students/import", c.Import.ImportStudents)
		admin.POST("/students/:id/link-code", c.School.IssueLinkCode)

		admin.POST("/subjects", c.School.CreateSubject)
		admin.GET("/subjects", c.School.ListSubjects)
		admin.POST("/subjects/import", c.Import.ImportSubjects)

		admin.POST("/teachers", c.School.CreateTeacher)
		admin.GET("/teachers", c.School.ListTeachers)
		admin.POST("/parents", c.School.CreateParent)
		admin.GET("/parents", c.School.ListParents)

		admin.GET("/analytics/class-distribution/:form", c.Report.ClassDistribution)
	}

	teacher := authenticated.Group("/teacher")
	teacher.Use(authMiddleware.RoleRequired(models.RoleTeacher))
	{
		teacher.POST("/grades", c.Teacher.SubmitGrade)
		teacher.GET("/grades/recent", c.Teacher.RecentGrades)
		teacher.GET("/roster", c.Teacher.Roster)
		teacher.GET("/subjects", c.School.ListSubjects)
		teacher.POST("/attendance", c.Teacher.RecordAttendance)
		teacher.GET("/attendance", c.Teacher.AttendanceSheet)
	}

	student := authenticated.Group("/student")
	student.Use(authMiddleware.RoleRequired(models.RoleStudent))
	{
		student.GET("/grades", c.Student.Grades)
		student.GET("/insights", c.Student.Insights)
		student.GET("/attendance", c.Student.Attendance)
	}

	parent := authenticated.Group("/parent")
	parent.Use(authMiddleware.RoleRequired(models.RoleParent))
	{
		parent.POST("/link", c.Parent.Link)
		parent.GET("/children", c.Parent.Children)
		parent.GET("/children/:id/grades", c.Parent.ChildGrades)
	}

	// Visibility of the student is decided by the services
	shared := authenticated.Group("")
	shared.Use(authMiddleware.RoleRequired(
		models.RoleSchoolAdmin, models.RoleTeacher, models.RoleStudent, models.RoleParent,
	))
	{
		shared.GET("/reports/:studentId/:term", c.Report.ReportCard)
		shared.GET("/analytics/students/:id/trend", c.Report.StudentTrend)
	}

	v1.GET("/health", health)
	router.GET("/ping", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Route not found"),
		))
	})
}

// health reports liveness
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} dto.APIResponse
// @Router /health [get]
func health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	}))
}
