package main

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/clevery/dayplanner/libs/config"
	"github.com/clevery/dayplanner/libs/db"
	"github.com/clevery/dayplanner/libs/grpcx"
	"github.com/clevery/dayplanner/libs/httpx"
	"github.com/clevery/dayplanner/libs/kafkax"
	"github.com/clevery/dayplanner/libs/metrics"
	otelx "github.com/clevery/dayplanner/libs/otel"
	"github.com/clevery/dayplanner/libs/runtime"
	"github.com/clevery/dayplanner/services/planner-service/internal/agenda"
	"github.com/clevery/dayplanner/services/planner-service/internal/consumer"
	"github.com/clevery/dayplanner/services/planner-service/internal/handlers"
	"github.com/clevery/dayplanner/services/planner-service/internal/inbox"
	"github.com/clevery/dayplanner/services/planner-service/internal/outbox"
	"github.com/clevery/dayplanner/services/planner-service/internal/planner"
	"github.com/clevery/dayplanner/services/planner-service/internal/sources"
	"github.com/clevery/dayplanner/services/planner-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if _, err := config.LoadFile(config.String("CONFIG_FILE", "")); err != nil {
		panic(err)
	}
	service := config.String("SERVICE_NAME", "planner-service")
	port, err := config.Port("PORT", "8085")
	if err != nil {
		panic(err)
	}
	grpcPort, err := config.Port("GRPC_PORT", "9095")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, db.Options{
		MaxConns:        int32(config.Int("DB_MAX_CONNS", 10)),
		MinConns:        int32(config.Int("DB_MIN_CONNS", 1)),
		MaxConnLifetime: config.Duration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
		MaxConnIdleTime: config.Duration("DB_MAX_CONN_IDLE", 5*time.Minute),
	})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	reg := metrics.NewRegistry(service)
	repo := storage.NewRepository(pool)
	plannerSvc := planner.NewService(repo, []sources.Source{
		sources.NewActivities(repo, logger),
		sources.NewCalendarItems(repo),
		sources.NewRoutineBlocks(repo),
	}, reg, logger)

	brokers := config.String("KAFKA_BROKERS", "")
	outboxRepo := outbox.NewRepository()
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, reg, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: config.Duration("OUTBOX_POLL_EVERY", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go outboxPublisher.Run(ctx)

	inboxRepo := inbox.NewRepository(pool)
	if topic := strings.TrimSpace(config.String("KAFKA_CONSUME_TOPIC", consumer.UserRegisteredTopic)); topic != "" && brokers != "" {
		registered := consumer.New(logger, inboxRepo, reg, consumer.Config{
			Brokers: brokers,
			GroupID: config.String("KAFKA_GROUP_ID", service),
			Topic:   topic,

			RetryBackoff: config.Duration("KAFKA_RETRY_BACKOFF", time.Second),
			MaxBackoff:   config.Duration("KAFKA_RETRY_MAX_BACKOFF", 30*time.Second),
		}, consumer.UserRegisteredHandler(repo, logger))
		go registered.Run(ctx)
	}

	if config.Bool("AGENDA_ENABLED", true) {
		agendaLoc, err := time.LoadLocation(config.String("AGENDA_TZ", "UTC"))
		if err != nil {
			logger.Warn("invalid AGENDA_TZ, using UTC", "err", err)
			agendaLoc = time.UTC
		}
		job, err := agenda.NewJob(repo, plannerSvc, outbox.NewWriter(pool, outboxRepo), logger, agenda.Config{
			Schedule:  config.String("AGENDA_CRON", "0 6 * * *"),
			Location:  agendaLoc,
			BatchSize: config.Int("AGENDA_BATCH_SIZE", 100),
		})
		if err != nil {
			logger.Error("agenda job disabled", "err", err)
		} else {
			go job.Run(ctx)
		}
	}

	checks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	}

	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	var rateLimitMW httpx.Middleware
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()

		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "planner:rl"))
		rateLimitMW = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		rateLimitMW = rl.Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("/metrics", reg.Handler())
	handlers.New(plannerSvc, repo, outboxRepo, logger).Routes(mux)

	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowedMethods:   config.List("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders:   config.List("CORS_ALLOWED_HEADERS", "Content-Type,X-Request-Id,X-Account-Id"),
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           config.Duration("CORS_MAX_AGE", 10*time.Minute),
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20))),
		httpx.WithTimeout(config.Duration("REQUEST_TIMEOUT", 10*time.Second)),
		rateLimitMW,
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "planner")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", ":"+grpcPort)
	if err != nil {
		logger.Error("grpc listen failed", "err", err)
		panic(err)
	}
	healthSrv := grpcx.NewHealthServer(logger, db.ReadyCheck(pool), config.Duration("GRPC_HEALTH_EVERY", 5*time.Second))
	go func() {
		if err := healthSrv.Serve(ctx, lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
