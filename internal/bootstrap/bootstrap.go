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

	appAuth "github.com/yigit/acadtrack/internal/app/auth"
	appControllers "github.com/yigit/acadtrack/internal/app/controllers"
	appMigrations "github.com/yigit/acadtrack/internal/app/migrations"
	appRepos "github.com/yigit/acadtrack/internal/app/repositories"
	appRoutes "github.com/yigit/acadtrack/internal/app/routes"
	appServices "github.com/yigit/acadtrack/internal/app/services"
	"github.com/yigit/acadtrack/internal/config"
	"github.com/yigit/acadtrack/internal/db"
	appMiddleware "github.com/yigit/acadtrack/internal/middleware"
	pkgAuth "github.com/yigit/acadtrack/internal/pkg/auth"
	"github.com/yigit/acadtrack/internal/pkg/cache"
	"github.com/yigit/acadtrack/internal/pkg/helpers"
	"github.com/yigit/acadtrack/internal/pkg/logger"
	"github.com/yigit/acadtrack/internal/pkg/websocket"
	"github.com/yigit/acadtrack/internal/scheduler"
	"github.com/yigit/acadtrack/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos      *appRepos.Repositories
	JWTService *pkgAuth.JWTService
	Resolver   *appAuth.IdentityResolver
	Authz      *appAuth.AuthorizationService
	Cache      cache.Cache
	Hub        *websocket.Hub
	Background *appServices.Background
	Scheduler  *scheduler.Manager

	AuthService         *appServices.AuthService
	NotificationService *appServices.NotificationService
	RiskService         *appServices.RiskService
	GradeService        *appServices.GradeService
	AttendanceService   *appServices.AttendanceService
	EnrollmentService   *appServices.EnrollmentService

	AuthMiddleware *appMiddleware.AuthMiddleware
	Controllers    appRoutes.Controllers

	Logger zerolog.Logger

	closers []func()
}

// Close releases the resources opened while building the dependencies
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr := logger.Get()
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// optionally seeds demo data.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	migrator := appMigrations.NewMigrator(database.Pool, logger.Component("migrator"))
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if cfg.Seed.Enabled {
		if err := seed.CreateDefaultData(ctx, database.Pool, logger.Component("seed")); err != nil {
			lgr.Error().Err(err).Msg("Failed to create demo data, proceeding anyway...")
		}
	}

	return database, nil
}

// BuildDependencies initializes repositories, services, controllers and the
// background machinery around them.
func BuildDependencies(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}
	deps.Repos = appRepos.NewRepositories(database.Pool)

	checks := map[string]appControllers.Pinger{"database": database}

	deps.Cache = cache.NopCache{}
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.Redis.URL)
		if err != nil {
			lgr.Warn().Err(err).Msg("Redis unavailable, unread counts will not be cached")
		} else {
			deps.Cache = redisCache
			checks["redis"] = redisCache
			deps.closers = append(deps.closers, func() { _ = redisCache.Close() })
			lgr.Info().Msg("Redis cache connected")
		}
	}

	deps.Hub = websocket.NewHub(logger.Component("websocket"))
	deps.Background = appServices.NewBackground(
		helpers.ParseDuration(cfg.Risk.EvaluationTimeout, 30*time.Second),
		logger.Component("background"),
	)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.Resolver = appAuth.NewIdentityResolver(deps.Repos.StudentRepository, deps.Repos.ProfessorRepository)
	deps.Authz = appAuth.NewAuthorizationService(deps.Resolver, deps.Repos.CourseRepository, deps.Repos.EnrollmentRepository)

	deps.NotificationService = appServices.NewNotificationService(
		deps.Repos.NotificationRepository,
		deps.Resolver,
		deps.Cache,
		deps.Hub,
		helpers.ParseDuration(cfg.Redis.UnreadCountTTL, 5*time.Minute),
		logger.Component("notifications"),
	)

	deps.RiskService = appServices.NewRiskService(
		deps.Repos.GradeRepository,
		deps.Repos.AttendanceRepository,
		deps.Repos.CourseRepository,
		deps.Repos.EnrollmentRepository,
		deps.NotificationService,
		deps.Authz,
		deps.Background,
		appServices.RiskPolicy{
			Threshold:      cfg.Risk.Threshold,
			SingleCooldown: helpers.ParseDuration(cfg.Risk.SingleCooldown, 7*24*time.Hour),
			BulkCooldown:   helpers.ParseDuration(cfg.Risk.BulkCooldown, 0),
		},
		logger.Component("risk"),
	)

	deps.GradeService = appServices.NewGradeService(
		deps.Repos.GradeRepository,
		deps.Repos.EnrollmentRepository,
		deps.Authz,
		deps.NotificationService,
		deps.RiskService,
		deps.Background,
		logger.Component("grades"),
	)

	deps.AttendanceService = appServices.NewAttendanceService(
		deps.Repos.AttendanceRepository,
		deps.Repos.EnrollmentRepository,
		deps.Authz,
		deps.NotificationService,
		deps.RiskService,
		deps.Background,
		logger.Component("attendance"),
	)

	deps.EnrollmentService = appServices.NewEnrollmentService(
		deps.Repos.EnrollmentRepository,
		deps.Repos.StudentRepository,
		deps.Repos.CourseRepository,
		deps.Authz,
		deps.NotificationService,
		deps.Background,
		logger.Component("enrollments"),
	)

	deps.AuthService = appServices.NewAuthService(
		deps.Repos.AccountRepository,
		deps.Repos.TokenRepository,
		deps.Resolver,
		deps.JWTService,
		logger.Component("auth"),
	)

	if cfg.Scheduler.Enabled {
		deps.Scheduler = scheduler.NewManager(scheduler.Config{
			AtRiskSweep:  cfg.Scheduler.AtRiskSweep,
			TokenCleanup: cfg.Scheduler.TokenCleanup,
			JobTimeout:   helpers.ParseDuration(cfg.Scheduler.JobTimeout, 30*time.Minute),
		}, deps.RiskService, deps.Repos.TokenRepository, logger.Component("scheduler"))
	}

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.Controllers = appRoutes.Controllers{
		Auth:         appControllers.NewAuthController(deps.AuthService, lgr),
		Course:       appControllers.NewCourseController(deps.EnrollmentService),
		Grade:        appControllers.NewGradeController(deps.GradeService),
		Attendance:   appControllers.NewAttendanceController(deps.AttendanceService),
		Risk:         appControllers.NewRiskController(deps.RiskService),
		Notification: appControllers.NewNotificationController(deps.NotificationService, deps.Hub, logger.Component("stream")),
		Health:       appControllers.NewHealthController(checks),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := appMiddleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestID(), appMiddleware.RequestLogger(logger.Component("http")))

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)
	return router, nil
}
