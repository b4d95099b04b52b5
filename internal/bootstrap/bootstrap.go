package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/schoolbook/internal/app/controllers"
	appMigrations "github.com/yigit/schoolbook/internal/app/migrations"
	appRepos "github.com/yigit/schoolbook/internal/app/repositories"
	appRoutes "github.com/yigit/schoolbook/internal/app/routes"
	appServices "github.com/yigit/schoolbook/internal/app/services"
	"github.com/yigit/schoolbook/internal/config"
	"github.com/yigit/schoolbook/internal/db"
	appMiddleware "github.com/yigit/schoolbook/internal/middleware"
	pkgAuth "github.com/yigit/schoolbook/internal/pkg/auth"
	"github.com/yigit/schoolbook/internal/pkg/logger"
	"github.com/yigit/schoolbook/internal/pkg/validation"
	"github.com/yigit/schoolbook/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	DB         appRepos.Transactor
	JWTService *pkgAuth.JWTService

	AuthService       appServices.AuthService
	SchoolService     appServices.SchoolService
	StaffService      appServices.StaffService
	StudentService    appServices.StudentService
	SubjectService    appServices.SubjectService
	GradeService      appServices.GradeService
	AttendanceService appServices.AttendanceService
	LinkService       appServices.LinkService
	ImportService     appServices.ImportService
	InsightsService   appServices.InsightsService
	AnalyticsService  appServices.AnalyticsService
	ReportService     appServices.ReportService

	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	LoginLimiter   *appMiddleware.LoginRateLimiter
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase connects to Postgres and applies pending migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	migrator := appMigrations.NewMigrator(database.Pool, lgr)
	if err := migrator.Up(ctx, os.DirFS(migrationsDir)); err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return database, nil
}

// BuildDependencies wires services, controllers and middleware on top of store.
func BuildDependencies(cfg *config.Config, store appRepos.Transactor, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{DB: store, Logger: lgr}
	maxForm := cfg.School.MaxForm
	importTimeout := config.Duration(cfg.Server.ImportTimeout, 5*time.Minute)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: config.Duration(cfg.JWT.AccessTokenExpiration, 12*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	svc := func(name string) zerolog.Logger {
		return lgr.With().Str("component", name).Logger()
	}

	deps.AuthService = appServices.NewAuthService(store, deps.JWTService, svc("auth"))
	deps.SchoolService = appServices.NewSchoolService(store, svc("schools"))
	deps.StaffService = appServices.NewStaffService(store, svc("staff"))
	deps.StudentService = appServices.NewStudentService(store, maxForm, svc("students"))
	deps.SubjectService = appServices.NewSubjectService(store, svc("subjects"))
	deps.GradeService = appServices.NewGradeService(store, svc("grades"))
	deps.AttendanceService = appServices.NewAttendanceService(store, maxForm, svc("attendance"))
	deps.LinkService = appServices.NewLinkService(store, maxForm, svc("links"))
	deps.ImportService = appServices.NewImportService(store, appServices.ImportOptions{
		Timeout:     importTimeout,
		HashWorkers: cfg.Server.ImportWorkers,
	}, svc("imports"))
	deps.InsightsService = appServices.NewInsightsService(store, svc("insights"))
	deps.AnalyticsService = appServices.NewAnalyticsService(store, maxForm,
		config.Duration(cfg.School.AnalyticsCacheTTL, time.Minute), svc("analytics"))
	deps.ReportService = appServices.NewReportService(store, maxForm, svc("reports"))

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.AuthService)
	deps.LoginLimiter = appMiddleware.NewLoginRateLimiter(
		cfg.Security.LoginAttempts,
		config.Duration(cfg.Security.LoginWindow, 5*time.Minute),
	)

	deps.Controllers = appRoutes.Controllers{
		Auth: appControllers.NewAuthController(deps.AuthService, deps.SchoolService, lgr),
		School: appControllers.NewSchoolController(
			deps.SchoolService, deps.StudentService, deps.StaffService,
			deps.SubjectService, deps.LinkService, maxForm, lgr,
		),
		Import:  appControllers.NewImportController(deps.ImportService, cfg.Server.MaxUploadBytes, importTimeout, lgr),
		Teacher: appControllers.NewTeacherController(deps.GradeService, deps.StudentService, deps.AttendanceService, maxForm, lgr),
		Student: appControllers.NewStudentController(deps.GradeService, deps.InsightsService, deps.AttendanceService),
		Parent:  appControllers.NewParentController(deps.LinkService, lgr),
		Report:  appControllers.NewReportController(deps.ReportService, deps.AnalyticsService, maxForm, lgr),
	}

	return deps, nil
}

// SeedData creates the bootstrap super admin when none exists
func SeedData(ctx context.Context, cfg *config.Config, deps *Dependencies) error {
	return seed.EnsureSuperAdmin(ctx, deps.DB, seed.SuperAdmin{
		Username: cfg.Bootstrap.SuperAdminUsername,
		Password: cfg.Bootstrap.SuperAdminPassword,
	}, deps.Logger)
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	switch strings.ToLower(cfg.Server.Mode) {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	lgr.Info().Str("mode", gin.Mode()).Msg("Gin mode set")

	if err := validation.RegisterWithGin(); err != nil {
		lgr.Error().Err(err).Msg("Failed to register custom validators")
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.Server.MaxUploadBytes
	router.Use(
		appMiddleware.Recovery(lgr),
		appMiddleware.RequestLogger(lgr),
		appMiddleware.CORS(cfg.AllowedOrigins()),
	)

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, deps.LoginLimiter)

	return router
}
