package main

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/rezapearce/kiddyguard-solana-zcash/internal/api"
	"github.com/rezapearce/kiddyguard-solana-zcash/internal/clients/groq"
	"github.com/rezapearce/kiddyguard-solana-zcash/internal/config"
	"github.com/rezapearce/kiddyguard-solana-zcash/internal/db"
	"github.com/rezapearce/kiddyguard-solana-zcash/internal/middleware"
	"github.com/rezapearce/kiddyguard-solana-zcash/internal/services"
	"github.com/rezapearce/kiddyguard-solana-zcash/internal/storage"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	sqlDB, err := db.Open(cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	if err := db.RunMigrations(sqlDB, cfg.MigrationsDir); err != nil {
		return err
	}
	store, err := db.NewSQLiteStore(sqlDB)
	if err != nil {
		return err
	}

	// A missing Groq key is not fatal: analysis falls back to the local
	// rule-based verdict and records that provenance.
	var analyzer services.RiskAnalyzer
	if client, err := groq.NewClient(groq.Config{
		APIKey:  cfg.GroqAPIKey,
		Model:   cfg.GroqModel,
		BaseURL: cfg.GroqBaseURL,
		Timeout: cfg.GroqTimeout,
	}, log); err != nil {
		log.Warn("remote analyzer disabled", zap.Error(err))
	} else {
		analyzer = client
	}

	payments := services.NewPaymentService(store, log)
	analysis := services.NewAnalysisService(store, analyzer, log)
	worker := services.NewAnalysisWorker(analysis, log)
	worker.Start()
	defer worker.Stop()

	sessions := services.NewSessionService(store, payments, worker, cfg.ScreeningAmount, log)
	screenings := services.NewScreeningService(store, log)
	clinic := services.NewClinicService(store, log)
	reviews := services.NewReviewService(store)

	auth := middleware.NewAuth(cfg.JWTSecret)
	authSvc := services.NewAuthService(store, auth.SignToken)

	evidence := storage.NewEvidenceStore(cfg.EvidenceDir, cfg.StorageCredential)

	mux := http.NewServeMux()
	api.NewRouter(api.Deps{
		Auth:       authSvc,
		Screenings: screenings,
		Sessions:   sessions,
		Clinic:     clinic,
		Payments:   payments,
		Reviews:    reviews,
		Evidence:   evidence,
		Log:        log,
		Version:    os.Getenv("KG_COMMIT"),
	}).Register(mux)

	handler := middleware.SecureHeaders(middleware.CORS(middleware.NoStore(auth.WithAuth(mux))))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("server listening", zap.String("addr", cfg.Addr))
	return srv.ListenAndServe()
}
