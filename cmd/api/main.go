package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/craverscorner/food-ordering-website/internal/auth"
	"github.com/craverscorner/food-ordering-website/internal/cart"
	"github.com/craverscorner/food-ordering-website/internal/cartsync"
	"github.com/craverscorner/food-ordering-website/internal/catalog"
	"github.com/craverscorner/food-ordering-website/internal/checkout"
	"github.com/craverscorner/food-ordering-website/internal/common"
	"github.com/craverscorner/food-ordering-website/internal/config"
	"github.com/craverscorner/food-ordering-website/internal/coupon"
	"github.com/craverscorner/food-ordering-website/internal/db"
	"github.com/craverscorner/food-ordering-website/internal/events"
	"github.com/craverscorner/food-ordering-website/internal/health"
	"github.com/craverscorner/food-ordering-website/internal/obs"
	"github.com/craverscorner/food-ordering-website/internal/order"
	"github.com/craverscorner/food-ordering-website/internal/payment"
	"github.com/craverscorner/food-ordering-website/internal/ratelimit"
	"github.com/craverscorner/food-ordering-website/internal/resilience"
	"github.com/craverscorner/food-ordering-website/internal/security"
)

func main() {
	cfg := config.MustLoad()

	logger := obs.NewLogger(cfg.ObsLogFormat, cfg.ObsLogLevel).With().Str("env", cfg.AppEnv).Logger()

	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)
	httpMetrics := obs.NewHTTPMetrics(cfg.MetricsNamespace, nil, nil)

	tracingEnabled := cfg.ObsTracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "craverscorner-api",
			Endpoint:      cfg.ObsTracingEndpoint,
			SamplingRatio: cfg.ObsSamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "craverscorner-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:      redisOpts.Addr,
		Username:  redisOpts.Username,
		Password:  redisOpts.Password,
		DB:        redisOpts.DB,
		TLSConfig: redisOpts.TLSConfig,
	})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close asynq client")
		}
	}()

	catalogSvc := &catalog.Service{
		Pool:  pool,
		Cache: catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
	}
	catalogHandler := &catalog.Handler{Svc: catalogSvc}
	catalogAdmin := &catalog.AdminHandler{Svc: catalogSvc}

	couponStore := &coupon.PGStore{Pool: pool}
	couponSvc := &coupon.Service{Store: couponStore}
	couponHandler := &coupon.Handler{Svc: couponSvc}
	couponAdmin := &coupon.AdminHandler{Store: couponStore}

	sessions := &cart.SessionStore{R: redisClient, TTL: cfg.CartTTL}
	snapshots := &cart.PGSnapshotStore{Pool: pool}
	cartSvc := &cart.Service{
		Sessions:  sessions,
		Snapshots: snapshots,
		Menu:      catalogSvc,
		Coupons:   couponSvc,
		Sync:      cartsync.Scheduler{Client: asynqClient, Debounce: cfg.CartSyncDebounce},
	}
	cartHandler := &cart.Handler{Svc: cartSvc}

	orderStore := &order.PGStore{Pool: pool}
	orderHandler := &order.Handler{Store: orderStore}
	orderAdmin := &order.AdminHandler{Store: orderStore}

	notifiers := []events.Notifier{events.LogNotifier{Log: logger}}
	if cfg.EmailEnabled {
		notifiers = append(notifiers, events.EmailNotifier{Sender: common.NopEmailSender{}})
	}
	bus := &events.Bus{
		Store:     &events.PGStore{Pool: pool},
		Notifiers: notifiers,
	}

	gateway := payment.Stripe{
		SecretKey: cfg.StripeSecretKey,
		BaseURL:   cfg.StripeBaseURL,
		HTTP: resilience.HTTPClient{
			Client:      &http.Client{Timeout: cfg.OutboundTimeout},
			Breaker:     resilience.NewBreaker(cfg.CircuitMinRequests, cfg.CircuitFailureRate, cfg.CircuitOpenFor).WithTarget("stripe").WithLogger(logger),
			BaseBackoff: cfg.RetryBase,
			MaxAttempts: cfg.RetryMaxAttempts,
			Jitter:      cfg.RetryJitterPercent,
			Timeout:     cfg.OutboundTimeout,
		},
	}

	orchestrator := &checkout.Orchestrator{
		Gateway:  gateway,
		Attempts: &checkout.AttemptStore{R: redisClient, TTL: cfg.AttemptTTL},
		Orders:   orderStore,
		Carts:    cartSvc,
		Events:   bus,
		Currency: cfg.CurrencyCode,
		Log:      logger,
	}
	checkoutHandler := &checkout.Handler{Svc: orchestrator}

	authMiddleware := auth.Middleware{Verifier: auth.Verifier{
		Secret:    []byte(cfg.AuthJWTSecret),
		Issuer:    cfg.AuthIssuer,
		Audience:  cfg.AuthAudience,
		ClockSkew: cfg.AuthClockSkew,
	}}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	paymentLimiter, err := ratelimit.New(redisClient, cfg.PaymentRateLimitWindow, cfg.PaymentRateLimitMax, "rl:payment")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}
	rateLimit := ratelimit.Handler{
		Limiter: paymentLimiter,
		OnError: func(err error) { logger.Error().Err(err).Msg("rate limit store") },
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers{EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", cart.SessionHeader, "Idempotency-Key"},
		ExposedHeaders:   []string{"Link", "X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	healthHandler := health.Handler{
		Checker:      health.Checks{Pool: pool, Redis: redisClient},
		DBTimeout:    500 * time.Millisecond,
		RedisTimeout: 300 * time.Millisecond,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api", func(api chi.Router) {
		api.Use(authMiddleware.Authenticate)

		api.Group(func(pay chi.Router) {
			pay.Use(rateLimit.Middleware)
			pay.With(idem.Middleware).Post("/create-payment-intent", checkoutHandler.CreateIntent)
			pay.Post("/confirm-payment", checkoutHandler.ConfirmPayment)
		})

		api.Route("/v1", func(v chi.Router) {
			v.Get("/menu", catalogHandler.Menu)
			v.Get("/menu/{id}", catalogHandler.MenuItem)
			v.Get("/categories", catalogHandler.Categories)
			v.Post("/coupons/preview", couponHandler.Preview)

			v.Route("/cart", func(c chi.Router) {
				c.Get("/", cartHandler.Get)
				c.Group(func(g chi.Router) {
					g.Use(idem.Middleware)
					g.Delete("/", cartHandler.Clear)
					g.Post("/items", cartHandler.AddItem)
					g.Patch("/items/{itemId}", cartHandler.UpdateItem)
					g.Delete("/items/{itemId}", cartHandler.RemoveItem)
					g.Post("/apply-coupon", cartHandler.ApplyCoupon)
					g.Delete("/coupon", cartHandler.RemoveCoupon)
					g.With(authMiddleware.RequireAuth).Post("/merge", cartHandler.Merge)
				})
			})

			v.Group(func(authed chi.Router) {
				authed.Use(authMiddleware.RequireAuth)
				authed.Get("/orders", orderHandler.List)
				authed.Get("/orders/{orderId}", orderHandler.Get)
			})

			v.Route("/admin", func(admin chi.Router) {
				admin.Use(authMiddleware.RequireAuth)
				admin.Use(authMiddleware.RequireRole("admin"))
				admin.Post("/menu", catalogAdmin.CreateMenuItem)
				admin.Put("/menu/{id}", catalogAdmin.UpdateMenuItem)
				admin.Delete("/menu/{id}", catalogAdmin.DeleteMenuItem)
				admin.Post("/categories", catalogAdmin.CreateCategory)
				admin.Put("/categories/{id}", catalogAdmin.UpdateCategory)
				admin.Delete("/categories/{id}", catalogAdmin.DeleteCategory)
				admin.Get("/coupons", couponAdmin.List)
				admin.Post("/coupons", couponAdmin.Create)
				admin.Put("/coupons/{code}", couponAdmin.Update)
				admin.Delete("/coupons/{code}", couponAdmin.Delete)
				admin.Get("/orders", orderAdmin.List)
				admin.Patch("/orders/{orderId}/status", orderAdmin.PatchStatus)
			})
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-runCtx.Done():
		// Fail readiness first so load balancers drain before the listener closes.
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
		logger.Info().Msg("server stopped")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
