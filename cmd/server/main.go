package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/smart-planner/internal/cache"
	"github.com/benvon/smart-planner/internal/config"
	"github.com/benvon/smart-planner/internal/database"
	"github.com/benvon/smart-planner/internal/handlers"
	"github.com/benvon/smart-planner/internal/logger"
	"github.com/benvon/smart-planner/internal/middleware"
	"github.com/benvon/smart-planner/internal/queue"
	"github.com/benvon/smart-planner/internal/services/oidc"
	"github.com/benvon/smart-planner/internal/services/planner"
	"github.com/benvon/smart-planner/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

const serviceName = "smart-planner-api"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	migrateFlag := flag.Bool("migrate", true, "Apply database migrations on startup")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(cfg.LogFormat, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("day_start", cfg.Planner.DayStart),
		zap.Bool("auto_group", cfg.Planner.AutoGroup),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracingEnabled := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(ctx, telemetry.Settings{
				ServiceName: serviceName,
				Endpoint:    cfg.OTELEndpoint,
				Insecure:    true,
				SampleRatio: cfg.OTELSampleRatio,
			})
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracingEnabled = true
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := tp.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	if *migrateFlag {
		applied, err := db.Migrate(ctx)
		if err != nil {
			zapLogger.Fatal("failed_to_apply_migrations", zap.Error(err))
		}
		zapLogger.Info("migrations_applied", zap.Strings("files", applied))
	}

	// Redis backs the timeline cache and the shared rate limiter. Without it
	// timelines are rebuilt on every request and limits are per process.
	var redisClient *redis.Client
	var timelineCache planner.TimelineCache
	var redisPinger handlers.HealthPinger
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			zapLogger.Warn("redis_unavailable_running_without_cache", zap.Error(err))
			redisClient = nil
		} else {
			zapLogger.Info("connected_to_redis")
			defer func() {
				if err := redisClient.Close(); err != nil {
					zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
				}
			}()
			timelineCache = cache.NewTimelineCache(redisClient, cfg.Planner.TimelineCacheTTL)
			redisPinger = handlers.PingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			})
		}
	}

	// RabbitMQ carries classification jobs. Without it tasks keep their
	// fallback placement and reclassification requests return 503.
	var jobs queue.Enqueuer
	var queuePinger handlers.HealthPinger
	var jobQueue *queue.RabbitMQQueue
	if cfg.RabbitMQURL != "" {
		jobQueue, err = queue.DialWithRetry(ctx, cfg.RabbitMQURL, zapLogger, 10)
		if err != nil {
			zapLogger.Warn("rabbitmq_unavailable_classification_disabled", zap.Error(err))
			jobQueue = nil
		} else {
			defer func() {
				if err := jobQueue.Close(); err != nil {
					zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
				}
			}()
			jobs = jobQueue
			queuePinger = jobQueue
		}
	} else {
		zapLogger.Warn("rabbitmq_not_configured_classification_disabled")
	}

	userRepo := database.NewUserRepository(db)
	plannerService := planner.NewService(planner.Deps{
		Boards: database.NewBoardRepository(db),
		Tasks:  database.NewTaskRepository(db),
		Groups: database.NewGroupRepository(db),
		Breaks: database.NewBreakRepository(db),
		Cache:  timelineCache,
		Jobs:   jobs,
	}, planner.SettingsFromConfig(cfg.Planner), zapLogger)

	httpClient := &http.Client{Timeout: 10 * time.Second}
	oidcProvider := oidc.NewProvider(cfg.OIDC(), httpClient)
	verifier := oidc.NewVerifier(oidc.NewJWKSManager(time.Hour), oidcProvider)
	oidcClient := oidc.NewClient(ctx, oidcProvider)
	if !cfg.OIDC().Enabled() {
		zapLogger.Warn("oidc_not_configured_api_will_reject_requests")
	}

	rateLimitMW, err := middleware.RateLimit(redisClient, cfg.RateLimit, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}
	authMW := middleware.Auth(verifier, userRepo, zapLogger)

	authHandler := handlers.NewAuthHandler(oidcProvider, oidcClient, zapLogger)
	healthChecker := handlers.NewHealthChecker(db, redisPinger, queuePinger, zapLogger)

	r := mux.NewRouter()

	// gorilla/mux runs middleware in registration order, first registered outermost
	if tracingEnabled {
		r.Use(otelmux.Middleware(serviceName))
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.CORSOrigins, zapLogger))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize, zapLogger))
	r.Use(middleware.ContentType(zapLogger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	apiRouter := r.PathPrefix("/api/v1").Subrouter()

	authRouter := apiRouter.PathPrefix("/auth").Subrouter()
	publicAuthRouter := authRouter.PathPrefix("").Subrouter()
	publicAuthRouter.Use(rateLimitMW)
	authHandler.RegisterPublicRoutes(publicAuthRouter)

	meRouter := authRouter.PathPrefix("/me").Subrouter()
	meRouter.Use(authMW, rateLimitMW)
	meRouter.HandleFunc("", authHandler.GetMe).Methods("GET")

	protected := map[string]interface{ RegisterRoutes(*mux.Router) }{
		"/tasks":  handlers.NewTaskHandler(plannerService, zapLogger),
		"/groups": handlers.NewGroupHandler(plannerService, zapLogger),
		"/breaks": handlers.NewBreakHandler(plannerService, zapLogger),
		"/plan":   handlers.NewPlanHandler(plannerService, zapLogger),
	}
	for prefix, h := range protected {
		sub := apiRouter.PathPrefix(prefix).Subrouter()
		sub.Use(authMW, rateLimitMW)
		h.RegisterRoutes(sub)
	}

	// Preflight requests for any path; CORS has already written the headers
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   35 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	if jobQueue != nil && cfg.DLQRetention > 0 {
		dlqGC := queue.NewGarbageCollector(jobQueue, time.Hour, cfg.DLQRetention, zapLogger)
		go func() {
			if err := dlqGC.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("started_dlq_garbage_collector",
			zap.Duration("interval", time.Hour),
			zap.Duration("retention", cfg.DLQRetention),
		)
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

var version = "dev"

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"version":%q,"timestamp":%q}`, version, time.Now().UTC().Format(time.RFC3339))
}
