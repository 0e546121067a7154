package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"factory-ops/internal/audit"
	"factory-ops/internal/auth"
	directoryrepo "factory-ops/internal/directory/infrastructure/postgres"
	"factory-ops/internal/observability/metrics"
	regapp "factory-ops/internal/registry/application"
	registryrepo "factory-ops/internal/registry/infrastructure/postgres"
	registryhttp "factory-ops/internal/registry/interfaces/http"
	stockapp "factory-ops/internal/stock/application"
	stockrepo "factory-ops/internal/stock/infrastructure/postgres"
	stockhttp "factory-ops/internal/stock/interfaces/http"
	toolapp "factory-ops/internal/toollife/application"
	toolliferepo "factory-ops/internal/toollife/infrastructure/postgres"
	toollifehttp "factory-ops/internal/toollife/interfaces/http"
	"factory-ops/internal/toollife/notify"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	toolRepo := registryrepo.NewToolRepository(db)
	usageRepo := toolliferepo.NewUsageLogRepository(db)
	alertRepo := toolliferepo.NewAlertRepository(db)
	stockRepo := stockrepo.NewStockRepository(db)
	userRepo := directoryrepo.NewUserRepository(db)

	notifyCfg, err := notify.LoadConfig()
	if err != nil {
		logger.Fatalf("notify config error: %v", err)
	}
	gateway := buildGateway(notifyCfg, userRepo, logger)

	toolLifeOpts := []toolapp.ServiceOption{
		toolapp.WithLogger(logger),
		toolapp.WithDispatchTimeout(notifyCfg.DispatchTimeout),
	}
	if gateway != nil {
		toolLifeOpts = append(toolLifeOpts, toolapp.WithNotifier(gateway))
	}
	toolLifeService, err := toolapp.NewService(toolRepo, usageRepo, alertRepo, toolLifeOpts...)
	if err != nil {
		logger.Fatalf("tool-life service error: %v", err)
	}
	defer toolLifeService.Close()

	registryService, err := regapp.NewService(toolRepo, usageRepo)
	if err != nil {
		logger.Fatalf("registry service error: %v", err)
	}
	stockService, err := stockapp.NewService(stockRepo)
	if err != nil {
		logger.Fatalf("stock service error: %v", err)
	}

	toolLifeHandler, err := toollifehttp.NewHandler(toolLifeService, auditRepo)
	if err != nil {
		logger.Fatalf("tool-life handler error: %v", err)
	}
	registryHandler, err := registryhttp.NewHandler(registryService, auditRepo)
	if err != nil {
		logger.Fatalf("registry handler error: %v", err)
	}
	stockHandler, err := stockhttp.NewHandler(stockService, auditRepo)
	if err != nil {
		logger.Fatalf("stock handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/tool-life/", toolLifeHandler)
	mux.Handle("/api/v1/tools", registryHandler)
	mux.Handle("/api/v1/tools/", registryHandler)
	mux.Handle("/api/v1/stock", stockHandler)
	mux.Handle("/api/v1/stock/", stockHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

// buildGateway assembles the notification gateway from whatever channels are
// configured. Returns nil when neither email nor push is usable; alerts then
// stay PENDING until a manual notify.
func buildGateway(cfg notify.Config, directory notify.SupervisorDirectory, logger *log.Logger) *notify.Gateway {
	opts := []notify.GatewayOption{notify.WithLogger(logger)}
	if cfg.EmailConfigured() {
		email, err := notify.NewSMTPChannel(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
		if err != nil {
			logger.Fatalf("smtp channel error: %v", err)
		}
		opts = append(opts, notify.WithEmailChannel(email))
	}
	if cfg.PushConfigured() {
		push, err := notify.NewFCMChannel(cfg.Push.ServerKey, notify.WithEndpoint(cfg.Push.Endpoint))
		if err != nil {
			logger.Fatalf("fcm channel error: %v", err)
		}
		opts = append(opts, notify.WithPushChannel(push, directory))
	}
	if cfg.EmailTemplate != "" {
		template, err := notify.NewTemplate(cfg.EmailTemplate)
		if err != nil {
			logger.Fatalf("notify template error: %v", err)
		}
		opts = append(opts, notify.WithTemplate(template))
	}

	gateway, err := notify.NewGateway(opts...)
	if err != nil {
		logger.Printf("notification gateway disabled: %v", err)
		return nil
	}
	return gateway
}

type config struct {
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
