package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Harshitk-cp/balancereports/internal/api/handlers"
	mw "github.com/Harshitk-cp/balancereports/internal/api/middleware"
	"github.com/Harshitk-cp/balancereports/internal/buildconfig"
	"github.com/Harshitk-cp/balancereports/internal/cache"
	"github.com/Harshitk-cp/balancereports/internal/config"
	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/Harshitk-cp/balancereports/internal/service"
	"github.com/Harshitk-cp/balancereports/internal/store"
	"github.com/bsm/redislock"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router    *chi.Mux
	Reports   *service.ReportService
	Audit     *service.AuditService
	Sweeper   *service.CacheSweeper
	Listener  *service.InvalidationListener
	redis     *redis.Client
	startTime time.Time
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// routerDeps is everything the HTTP surface needs, independent of how it was built.
type routerDeps struct {
	db        Pinger
	reports   handlers.ReportGenerator
	audit     *service.AuditService
	logger    *zap.Logger
	jwtSecret string
	rps       float64
	burst     int
	startTime time.Time
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	sessions := store.NewSessionProvider(db)
	ledgerStore := store.NewLedgerStore()
	departmentStore := store.NewDepartmentStore()
	auditStore := store.NewAuditStore(db)

	app := &App{startTime: time.Now()}

	// Report cache: in-process by default, Redis when configured.
	var reportCache *cache.ReportCache
	if addr := config.RedisAddr(); addr != "" {
		app.redis = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.RedisPassword(),
			DB:       config.RedisDB(),
		})
		reportCache = cache.New(cache.NewRedisStore(app.redis), config.ReportCacheTTL(), logger).
			WithLocker(redislock.New(app.redis))
		logger.Info("report cache backed by redis", zap.String("addr", addr))
	} else {
		reportCache = cache.New(cache.NewMemoryStore(), config.ReportCacheTTL(), logger)
		logger.Info("report cache backed by memory")
	}

	// Services
	auditSvc := service.NewAuditService(auditStore, logger, config.AuditWriteTimeout())
	reportSvc := service.NewReportService(sessions, ledgerStore, departmentStore, reportCache, auditSvc, logger, service.ReportOptions{
		Timeout:       config.ReportTimeout(),
		SlowThreshold: config.ReportSlowThreshold(),
	})

	sweeper := service.NewCacheSweeper(reportCache, logger)
	sweeper.SetInterval(config.CacheSweepInterval())
	listener := service.NewInvalidationListener(
		store.NewNotificationListener(db, config.LedgerNotifyChannel()), reportSvc, logger)

	app.Reports = reportSvc
	app.Audit = auditSvc
	app.Sweeper = sweeper
	app.Listener = listener
	app.Router = newRouter(routerDeps{
		db:        db,
		reports:   reportSvc,
		audit:     auditSvc,
		logger:    logger,
		jwtSecret: config.JWTSecret(),
		rps:       config.RateLimitRPS(),
		burst:     config.RateLimitBurst(),
		startTime: app.startTime,
	})
	return app
}

// Start launches the background services.
func (app *App) Start() {
	app.Sweeper.Start()
	app.Listener.Start()
}

// Stop halts background services and flushes pending audit writes.
func (app *App) Stop() {
	app.Listener.Stop()
	app.Sweeper.Stop()
	app.Audit.Wait()
	if app.redis != nil {
		_ = app.redis.Close()
	}
}

func newRouter(d routerDeps) *chi.Mux {
	reportHandler := handlers.NewReportHandler(d.reports, d.audit, d.logger)
	auditLogHandler := handlers.NewAuditLogHandler(d.audit, d.audit, d.logger)
	exportHandler := handlers.NewExportHandler(d.audit, d.logger)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(mw.RequestID)                 // Generate/extract request ID first
	r.Use(middleware.RealIP)            // Extract real IP
	r.Use(mw.Metrics)                   // Collect metrics
	r.Use(mw.Logging(d.logger))         // Log all requests
	r.Use(middleware.Recoverer)         // Recover from panics
	r.Use(mw.RateLimit(d.rps, d.burst)) // Rate limiting

	// Health (no auth)
	r.Get("/health", healthHandler(d.db, d.startTime))

	// Metrics (no auth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/balance-reports", func(r chi.Router) {
		r.Use(mw.JWTAuth(d.jwtSecret, d.audit))
		r.Use(mw.TenantScope(d.audit))

		r.Get("/"+domain.ReportProfitLoss.Slug(), reportHandler.ProfitLoss)
		r.Get("/"+domain.ReportBalanceSheet.Slug(), reportHandler.BalanceSheet)
		r.Get("/"+domain.ReportCashFlow.Slug(), reportHandler.CashFlow)
		r.Get("/audit-logs", auditLogHandler.List)
		r.Post("/export", exportHandler.Export)
	})

	return r
}

func healthHandler(db Pinger, startTime time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":         "ok",
			"build":          buildconfig.Get(),
			"uptime_seconds": time.Since(startTime).Seconds(),
		})
	}
}

// Ensure stores and services satisfy interfaces at compile time.
var (
	_ domain.SessionProvider    = (*store.SessionProvider)(nil)
	_ domain.LedgerStore        = (*store.LedgerStore)(nil)
	_ domain.DepartmentStore    = (*store.DepartmentStore)(nil)
	_ domain.AuditStore         = (*store.AuditStore)(nil)
	_ service.ChangeFeed        = (*store.NotificationListener)(nil)
	_ service.ReportCache       = (*cache.ReportCache)(nil)
	_ service.Purger            = (*cache.ReportCache)(nil)
	_ cache.Locker              = (*redislock.Client)(nil)
	_ cache.Store               = (*cache.MemoryStore)(nil)
	_ cache.Store               = (*cache.RedisStore)(nil)
	_ handlers.ReportGenerator  = (*service.ReportService)(nil)
	_ handlers.AuditRecorder    = (*service.AuditService)(nil)
	_ handlers.AuditLogLister   = (*service.AuditService)(nil)
	_ mw.DenialRecorder         = (*service.AuditService)(nil)
	_ service.TenantInvalidator = (*service.ReportService)(nil)
)
