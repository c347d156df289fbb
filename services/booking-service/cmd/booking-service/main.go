package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/randevya/salonbook/libs/config"
	"github.com/randevya/salonbook/libs/db"
	"github.com/randevya/salonbook/libs/httpx"
	"github.com/randevya/salonbook/libs/kafkax"
	otelx "github.com/randevya/salonbook/libs/otel"
	"github.com/randevya/salonbook/libs/runtime"
	"github.com/randevya/salonbook/services/booking-service/internal/handlers"
	"github.com/randevya/salonbook/services/booking-service/internal/metrics"
	"github.com/randevya/salonbook/services/booking-service/internal/outbox"
	"github.com/randevya/salonbook/services/booking-service/internal/scheduling"
	"github.com/randevya/salonbook/services/booking-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
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
	slotStepMinutes, err := config.Int("SLOT_STEP_MINUTES", 30)
	if err != nil {
		panic(err)
	}
	limitPerMinute, err := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		panic(err)
	}
	requestTimeout, err := config.Duration("REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		panic(err)
	}
	pollEvery, err := config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second)
	if err != nil {
		panic(err)
	}
	salonTZ := config.String("SALON_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(salonTZ)
	if err != nil {
		logger.Error("invalid SALON_TIMEZONE; using UTC", "value", salonTZ, "err", err)
		loc = time.UTC
	}

	maxConns, err := config.Int("DB_MAX_CONNS", 10)
	if err != nil {
		panic(err)
	}
	pool, err := db.OpenWithOptions(ctx, dbURL, db.Options{MaxConns: int32(maxConns)})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	bookingRepo := storage.NewBookingRepository(pool)
	staffRepo := storage.NewStaffRepository(pool, logger)
	outboxRepo := outbox.NewRepository(pool)

	brokers := config.String("KAFKA_BROKERS", "")
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: pollEvery,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBooking(reg)

	validator := scheduling.NewBookingValidator(staffRepo, staffRepo, bookingRepo, logger)
	bookingHandler := handlers.NewBookingHandler(bookingRepo, outboxRepo, staffRepo, validator, bookingMetrics, logger, handlers.Options{
		SlotStep: time.Duration(slotStepMinutes) * time.Minute,
		Location: loc,
	})

	checks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "kafka", Check: kafkax.ReadyCheck(brokers, config.Bool("KAFKA_REQUIRED", false))},
	}

	var limiter httpx.Limiter
	if redisURL := strings.TrimSpace(config.String("REDIS_URL", "")); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			panic(err)
		}
		rdb := redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		limiter = httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "salonbook"))
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", opts.Addr)
	} else {
		limiter = httpx.NewMemoryRateLimiter(limitPerMinute, time.Minute)
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	publicRoutes := httpx.RateLimit(limiter, logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
	mux.Handle("/api/v1/public/slots", publicRoutes(http.HandlerFunc(bookingHandler.Slots)))
	mux.Handle("/api/v1/appointments", routeByMethod(
		publicRoutes(http.HandlerFunc(bookingHandler.Create)),
		http.HandlerFunc(bookingHandler.List),
	))
	mux.Handle("/api/v1/appointments/cancel", publicRoutes(http.HandlerFunc(bookingHandler.Cancel)))
	mux.Handle("/api/v1/appointments/token", publicRoutes(http.HandlerFunc(bookingHandler.ByToken)))
	mux.HandleFunc("/api/v1/appointments/status", bookingHandler.UpdateStatus)
	mux.HandleFunc("/api/v1/staff/booked", bookingHandler.Booked)
	mux.HandleFunc("/api/v1/salons/calendar", bookingHandler.Calendar)

	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: config.List("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "X-Request-Id", "Idempotency-Key", "X-Salon-Id"},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(requestTimeout),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("booking service configured", "salon_timezone", loc.String(), "slot_step_minutes", slotStepMinutes)
	if err := runtime.Serve(ctx, srv, logger, 10*time.Second); err != nil {
		logger.Error("booking service exited", "err", err)
	}
}

// routeByMethod sends POST to create and everything else to list; each handler checks its own method.
func routeByMethod(create, list http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			create.ServeHTTP(w, r)
			return
		}
		list.ServeHTTP(w, r)
	})
}
