package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-clinic-agenda/config"
	deliveryHttp "go-clinic-agenda/internal/delivery/http"
	"go-clinic-agenda/internal/delivery/http/handler"
	"go-clinic-agenda/internal/delivery/http/middleware"
	"go-clinic-agenda/internal/domain/entity"
	"go-clinic-agenda/internal/infrastructure/cache"
	"go-clinic-agenda/internal/infrastructure/database"
	"go-clinic-agenda/internal/repository"
	"go-clinic-agenda/internal/scheduling"
	"go-clinic-agenda/internal/service"
	"go-clinic-agenda/internal/usecase"
	"go-clinic-agenda/pkg/jwt"
	"go-clinic-agenda/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Locker      *service.RedisBookingLocker
	Server      *http.Server
}

// NewLogger builds the JSON logrus logger shared by every layer.
func NewLogger(cfg config.AppConfig) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}

// New creates a new App instance with all dependencies initialized
func New(cfg *config.Config, log *logrus.Logger) (*App, error) {
	app := &App{Config: cfg, Log: log}

	if cfg.DB.AutoMigrate {
		if err := Migrate(cfg, log, func(m *database.Migrator) error { return m.Up() }); err != nil {
			return nil, err
		}
	}

	db, err := database.NewPostgresConnection(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	app.DB = db

	redisClient, err := cache.NewRedisClient(cfg.Redis, log)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.RedisClient = redisClient

	rules, err := businessRules(cfg.Scheduling)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Server = app.initializeServer(rules)

	return app, nil
}

// Migrate opens the migration runner, applies fn and closes it again.
func Migrate(cfg *config.Config, log *logrus.Logger, fn func(*database.Migrator) error) error {
	migrator, err := database.NewMigrator(cfg.DB, log)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return fn(migrator)
}

func businessRules(cfg config.SchedulingConfig) (scheduling.Rules, error) {
	start, err := entity.ParseTimeOfDay(cfg.BusinessHoursStart)
	if err != nil {
		return scheduling.Rules{}, fmt.Errorf("invalid BUSINESS_HOURS_START: %w", err)
	}
	end, err := entity.ParseTimeOfDay(cfg.BusinessHoursEnd)
	if err != nil {
		return scheduling.Rules{}, fmt.Errorf("invalid BUSINESS_HOURS_END: %w", err)
	}
	if !start.Before(end) {
		return scheduling.Rules{}, fmt.Errorf("business hours start %s must be before end %s", start, end)
	}
	return scheduling.Rules{BusinessStart: start, BusinessEnd: end}, nil
}

// initializeServer creates and configures the HTTP server
func (app *App) initializeServer(rules scheduling.Rules) *http.Server {
	cfg, log, db := app.Config, app.Log, app.DB

	jwtService := jwt.NewJWTService(cfg.JWT)
	customValidator := validator.NewValidator()

	// Repositories
	scheduleRepo := repository.NewProviderScheduleRepository()
	blockRepo := repository.NewScheduleBlockRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	waitingListRepo := repository.NewWaitingListRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Services
	metrics := service.NewMetricsService()
	auditService := service.NewAuditService(log, auditLogRepo)
	availabilityCache := service.NewAvailabilityCache(app.RedisClient, log, metrics, cfg.Scheduling.AvailabilityCacheTTL)
	app.Locker = service.NewRedisBookingLocker(app.RedisClient, log, metrics, cfg.Scheduling.BookingLockTTL)

	// Usecases
	scheduleUsecase := usecase.NewProviderScheduleUsecase(db, log, scheduleRepo, blockRepo, appointmentRepo, auditService, availabilityCache)
	blockUsecase := usecase.NewScheduleBlockUsecase(db, log, blockRepo, auditService, availabilityCache)
	availabilityUsecase := usecase.NewAvailabilityUsecase(db, log, scheduleRepo, blockRepo, appointmentRepo, availabilityCache)
	appointmentUsecase := usecase.NewAppointmentUsecase(
		db, log, appointmentRepo, scheduleRepo, blockRepo,
		auditService, availabilityCache, app.Locker, metrics, rules, usecase.LocalClock,
	)
	waitingListUsecase := usecase.NewWaitingListUsecase(db, log, waitingListRepo, appointmentUsecase, auditService)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Handlers
	scheduleHandler := handler.NewScheduleHandler(scheduleUsecase, customValidator)
	blockHandler := handler.NewBlockHandler(blockUsecase, customValidator)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityUsecase)
	appointmentHandler := handler.NewAppointmentHandler(appointmentUsecase, customValidator)
	waitingListHandler := handler.NewWaitingListHandler(waitingListUsecase, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)

	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	corsMiddleware := middleware.NewCORSMiddleware()

	router := deliveryHttp.NewRouter(
		log, metrics,
		scheduleHandler, blockHandler, availabilityHandler,
		appointmentHandler, waitingListHandler, auditLogHandler,
		authMiddleware, corsMiddleware,
	)

	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and blocks until it is shut down.
func (app *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		app.Close()
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	app.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	app.Close()

	app.Log.Info("Server shutdown complete")
	return nil
}

// Close releases the booking locker, database and redis connections.
func (app *App) Close() {
	if app.Locker != nil {
		app.Locker.Stop()
	}

	if app.DB != nil {
		if sqlDB, err := app.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				app.Log.Warnf("Failed to close database: %v", err)
			}
		}
	}

	if app.RedisClient != nil {
		if err := app.RedisClient.Close(); err != nil {
			app.Log.Warnf("Failed to close redis: %v", err)
		}
	}
}
