package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"dstech-dashboard/internal/analytics/application"
	"dstech-dashboard/internal/analytics/infrastructure/cache"
	"dstech-dashboard/internal/analytics/infrastructure/sqlstore"
	analyticshttp "dstech-dashboard/internal/analytics/interfaces/http"
	"dstech-dashboard/internal/audit"
	"dstech-dashboard/internal/auth"
	"dstech-dashboard/internal/clients/infrastructure/sqlrepo"
	clientshttp "dstech-dashboard/internal/clients/interfaces/http"
	"dstech-dashboard/internal/config"
	"dstech-dashboard/internal/live"
	"dstech-dashboard/internal/observability/metrics"
	"dstech-dashboard/internal/platform/database"
	"dstech-dashboard/internal/platform/logging"
	"dstech-dashboard/internal/platform/redis"
	"dstech-dashboard/internal/reporting"
	"dstech-dashboard/internal/reporting/archive"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("dashboard stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, dialect, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, database.Pool{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		ConnLifetime: cfg.Database.ConnLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("historian connected", zap.String("driver", dialect.Driver()))

	if cfg.Database.EnsureSchema && dialect == database.SQLite {
		if err := sqlstore.EnsureSQLiteSchema(ctx, db); err != nil {
			return fmt.Errorf("historian schema: %w", err)
		}
	}
	metrics.Init(db, logger)

	aliasRepo, err := sqlrepo.NewAliasRepository(db, dialect)
	if err != nil {
		return err
	}
	if err := aliasRepo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("client alias schema: %w", err)
	}
	auditRepo, err := audit.NewRepository(db, dialect)
	if err != nil {
		return err
	}
	if err := auditRepo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("audit schema: %w", err)
	}

	source, closeSource, err := buildSource(ctx, cfg, db, dialect, loc, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	service, err := application.NewService(source,
		application.WithLocation(loc),
		application.WithClientDirectory(aliasRepo),
		application.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	router := mux.NewRouter()
	router.Use(accessLog(logger))

	if cfg.Auth.Enabled {
		users, err := auth.LoadUsers(cfg.Auth.UsersFile)
		if err != nil {
			return err
		}
		login, err := auth.NewLoginHandler(users, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL, auditRepo, logger)
		if err != nil {
			return err
		}
		router.Handle("/api/v1/auth/login", login).Methods(http.MethodPost)
		router.Use(auth.NewMiddleware([]byte(cfg.Auth.JWTSecret), auth.NewDefaultPolicy(nil, nil)).Middleware)
		logger.Info("authentication enabled", zap.Int("users", users.Len()))
	} else {
		logger.Warn("authentication disabled")
	}

	dashboardHandler, err := analyticshttp.NewHandler(service, logger)
	if err != nil {
		return err
	}
	dashboardHandler.Register(router)

	clientsHandler, err := clientshttp.NewHandler(aliasRepo, auditRepo, logger)
	if err != nil {
		return err
	}
	clientsHandler.Register(router)

	scheduler, err := buildScheduler(ctx, cfg, service, auditRepo, logger)
	if err != nil {
		return err
	}
	reportHandler, err := reporting.NewHandler(service, scheduler, auditRepo, logger)
	if err != nil {
		return err
	}
	reportHandler.Register(router)
	if scheduler != nil {
		go scheduler.Start(ctx)
	}

	router.Handle("/api/v1/audit", audit.NewHandler(auditRepo)).Methods(http.MethodGet)

	broker := live.NewBroker()
	publisher, err := live.NewPublisher(service, broker, cfg.Live.Interval, logger)
	if err != nil {
		return err
	}
	go publisher.Run(ctx)
	router.Handle("/api/v1/live/stream", live.NewStreamHandler(broker)).Methods(http.MethodGet)
	router.Handle("/api/v1/live/ws", live.NewSocketHandler(broker, originChecker(cfg.HTTP.CORSOrigins), logger)).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/healthz", healthz(db)).Methods(http.MethodGet)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           withCORS(recovery(router, logger), cfg.HTTP.CORSOrigins),
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTP.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildSource(ctx context.Context, cfg config.Config, db *sql.DB, dialect database.Dialect, loc *time.Location, logger *zap.Logger) (application.Source, func(), error) {
	opts := []sqlstore.Option{sqlstore.WithLogger(logger)}
	if cfg.Database.WallClock {
		opts = append(opts, sqlstore.WithWallClock(loc))
	}
	store, err := sqlstore.NewStore(db, dialect, opts...)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Cache.Disabled {
		return store, func() {}, nil
	}

	var (
		rows    cache.Store = cache.NewMemoryStore()
		closeFn             = func() {}
	)
	if cfg.Cache.RedisAddr != "" {
		client, err := redis.NewClient(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		redisStore, err := cache.NewRedisStore(client)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		rows = redisStore
		closeFn = closeRedis(client, logger)
		logger.Info("row cache on redis", zap.String("addr", cfg.Cache.RedisAddr))
	}
	cached, err := cache.NewSource(store, rows, cfg.Cache.TTL, logger)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return cached, closeFn, nil
}

func closeRedis(client *goredis.Client, logger *zap.Logger) func() {
	return func() {
		if err := client.Close(); err != nil {
			logger.Warn("redis close failed", zap.Error(err))
		}
	}
}

func buildScheduler(ctx context.Context, cfg config.Config, builder reporting.ReportBuilder, auditLogger audit.Logger, logger *zap.Logger) (*reporting.Scheduler, error) {
	if !cfg.ReportsEnabled() {
		return nil, nil
	}
	var (
		store archive.Archive
		err   error
	)
	if cfg.Reports.S3Bucket != "" {
		store, err = archive.NewS3Archive(ctx, archive.S3Config{
			Bucket:       cfg.Reports.S3Bucket,
			Prefix:       cfg.Reports.S3Prefix,
			Region:       cfg.Reports.S3Region,
			Endpoint:     cfg.Reports.S3Endpoint,
			UsePathStyle: cfg.Reports.S3PathStyle,
		})
	} else {
		store, err = archive.NewFileArchive(cfg.Reports.StorageRoot)
	}
	if err != nil {
		return nil, fmt.Errorf("report archive: %w", err)
	}

	formats := make([]reporting.Format, 0, len(cfg.Reports.Formats))
	for _, raw := range cfg.Reports.Formats {
		format, err := reporting.ParseFormat(raw)
		if err != nil {
			return nil, err
		}
		formats = append(formats, format)
	}
	scheduler, err := reporting.NewScheduler(builder, store, cfg.Reports.DailyAt, formats, auditLogger, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("daily report archive enabled",
		zap.String("backend", store.Backend()),
		zap.String("daily_at", cfg.Reports.DailyAt),
	)
	return scheduler, nil
}

func healthz(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "historian unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
