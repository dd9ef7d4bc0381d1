package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insurez/internal/backend"
	"insurez/internal/catalog"
	"insurez/internal/config"
	"insurez/internal/guides"
	"insurez/internal/handlers"
	"insurez/internal/logger"
	"insurez/internal/middleware"
	"insurez/internal/quotecache"
	"insurez/internal/rules"
	sentryutil "insurez/internal/sentry"
)

func main() {
	// Load configuration from .env and environment variables
	config.Load()

	// Initialize Sentry (non-blocking if SENTRY_DSN is empty)
	sentryutil.Init()
	defer sentryutil.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Rule table: embedded default unless RULES_FILE overrides it
	if config.Cfg.RulesFile != "" {
		t, err := rules.LoadFile(config.Cfg.RulesFile)
		if err != nil {
			logger.Error("rules: could not load override, using embedded table", logger.Fields{"path": config.Cfg.RulesFile, "error": err.Error()})
			sentryutil.CaptureError(err, map[string]string{"phase": "rules-load"})
		} else {
			logger.Info("rules: loaded", logger.Fields{"path": config.Cfg.RulesFile, "version": t.Version})
		}
	}
	logger.Info("rules: active", logger.Fields{"version": rules.Default().Version})

	handlers.InitCounter(config.Cfg.CounterFile)

	if err := guides.LoadAll(config.Cfg.GuidesDir); err != nil {
		logger.Warn("guides: load problem", logger.Fields{"dir": config.Cfg.GuidesDir, "error": err.Error()})
	}

	handlers.SetQuoteCache(newQuoteCache(ctx))

	// Catalog sources: backend first so its records win duplicates
	httpClient := &http.Client{Timeout: config.Cfg.BackendTimeout}
	var sources []catalog.Source
	if config.Cfg.BackendURL != "" {
		client := backend.New(config.Cfg.BackendURL,
			backend.WithHTTPClient(httpClient),
			backend.WithUserAgent(config.Cfg.UserAgent),
		)
		handlers.SetBackend(client)
		sources = append(sources, &catalog.BackendSource{Client: client})
	}
	for _, u := range config.Cfg.ProviderSources {
		sources = append(sources, &catalog.ProviderPage{URL: u, Client: httpClient, UserAgent: config.Cfg.UserAgent})
	}

	cat := catalog.New(config.Cfg.CatalogRefreshInterval, sources...)
	cat.OnRefresh = handlers.SetLastRefresh
	handlers.SetCatalog(cat)
	if config.Cfg.CatalogRefreshEnabled && len(sources) > 0 {
		cat.Start(ctx)
	} else {
		logger.Info("catalog: refresh disabled, serving seed list", logger.Fields{"policies": len(cat.All())})
	}

	// Rate limiter from config
	limiter := handlers.NewRateLimiter(
		config.Cfg.RateLimitRPS,
		config.Cfg.RateLimitBurst,
		time.Second,
	)

	mux := http.NewServeMux()

	// Pricing and recommendations
	mux.HandleFunc("/api/premium", handlers.PremiumHandler)
	mux.HandleFunc("/api/recommend", handlers.RecommendHandler)
	mux.HandleFunc("/api/report", handlers.ReportHandler)
	mux.HandleFunc("/api/parse-policy", handlers.ParsePolicyHandler)
	mux.HandleFunc("/api/rules", handlers.RulesHandler)
	mux.HandleFunc("/api/calculators", handlers.CalculatorsHandler)
	mux.HandleFunc("/api/calculators/", handlers.CalculatorHandler)

	// Catalog and content
	mux.HandleFunc("/api/policies", handlers.PoliciesHandler)
	mux.HandleFunc("/api/policies/", handlers.PolicyHandler)
	mux.HandleFunc("/api/guides", handlers.GuidesHandler)
	mux.HandleFunc("/api/guides/", handlers.GuideHandler)
	mux.HandleFunc("/api/encode-profile", handlers.EncodeProfileHandler)
	mux.HandleFunc("/api/decode-profile", handlers.DecodeProfileHandler)

	// Accounts and claims (proxied to the backend)
	mux.HandleFunc("/api/auth/login", handlers.LoginHandler)
	mux.HandleFunc("/api/claims", handlers.ClaimsHandler)
	mux.HandleFunc("/api/claims/", handlers.ClaimHandler)

	// Infra
	mux.HandleFunc("/api/health", handlers.HealthDetailedHandler)
	mux.HandleFunc("/api/healthz", handlers.HealthHandler)
	mux.HandleFunc("/api/stats", handlers.StatsHandler)
	mux.HandleFunc("/api/catalog-status", handlers.CatalogStatusHandler)

	// Admin routes (protected by ADMIN_API_KEY)
	mux.HandleFunc("/api/admin/analytics", handlers.RequireAdmin(handlers.AnalyticsHandler))
	mux.HandleFunc("/api/admin/claims", handlers.RequireAdmin(handlers.AdminClaimsHandler))
	mux.HandleFunc("/api/admin/claims/", handlers.RequireAdmin(handlers.AdminClaimDecisionHandler))
	mux.HandleFunc("/api/admin/policies", handlers.RequireAdmin(handlers.AdminPoliciesHandler))
	mux.HandleFunc("/api/admin/policies/", handlers.RequireAdmin(handlers.AdminPoliciesHandler))

	mux.HandleFunc("/", handlers.NotFoundHandler)

	// Outermost first: RequestID → Recovery → AccessLog → SecurityHeaders → Gzip → Rate Limiter
	var handler http.Handler = limiter.Middleware(mux)
	if config.Cfg.GzipEnabled {
		handler = middleware.Gzip(handler)
	}
	handler = middleware.SecurityHeaders(handler)
	handler = middleware.AccessLog(handler)
	handler = middleware.Recovery(handler)
	handler = middleware.RequestID(handler)

	srv := &http.Server{
		Addr:              ":" + config.Cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server starting", logger.Fields{"port": config.Cfg.Port})
		fmt.Printf("Insurez running on http://localhost:%s\n", config.Cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", logger.Fields{"error": err.Error()})
			sentryutil.CaptureError(err, map[string]string{"phase": "listen"})
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("server shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", logger.Fields{"error": err.Error()})
	}
	handlers.FlushCounter()
}

// newQuoteCache prefers Redis when REDIS_ADDR is set and reachable, and
// falls back to an in-process cache otherwise.
func newQuoteCache(ctx context.Context) quotecache.Cache {
	if config.Cfg.RedisAddr != "" {
		rc := quotecache.NewRedis(config.Cfg.RedisAddr, config.Cfg.QuoteCacheTTL)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		err := rc.Ping(pingCtx)
		if err == nil {
			logger.Info("quote cache: redis", logger.Fields{"addr": config.Cfg.RedisAddr})
			return rc
		}
		logger.Warn("quote cache: redis unreachable, using memory", logger.Fields{"addr": config.Cfg.RedisAddr, "error": err.Error()})
		rc.Close()
	}
	return quotecache.NewMemory(config.Cfg.QuoteCacheTTL, 10_000)
}
