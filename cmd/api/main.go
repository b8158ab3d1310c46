package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bryanwahyu/carbon-validator/internal/application"
	appanalysis "github.com/bryanwahyu/carbon-validator/internal/application/analysis"
	appgis "github.com/bryanwahyu/carbon-validator/internal/application/gis"
	appprojects "github.com/bryanwahyu/carbon-validator/internal/application/projects"
	"github.com/bryanwahyu/carbon-validator/internal/config"
	"github.com/bryanwahyu/carbon-validator/internal/domain/ai"
	"github.com/bryanwahyu/carbon-validator/internal/domain/documents"
	"github.com/bryanwahyu/carbon-validator/internal/domain/projects"
	"github.com/bryanwahyu/carbon-validator/internal/infra/ai/gemini"
	"github.com/bryanwahyu/carbon-validator/internal/infra/ai/openai"
	"github.com/bryanwahyu/carbon-validator/internal/infra/db/memory"
	mysqlp "github.com/bryanwahyu/carbon-validator/internal/infra/db/mysql"
	"github.com/bryanwahyu/carbon-validator/internal/infra/db/postgres"
	"github.com/bryanwahyu/carbon-validator/internal/infra/httpserver"
	"github.com/bryanwahyu/carbon-validator/internal/infra/storage"
	"github.com/bryanwahyu/carbon-validator/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()
	checks := map[string]middleware.HealthChecker{}

	repo, db, err := openRepository(ctx, cfg)
	if err != nil {
		logger.Fatal("database init error", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	if db != nil {
		defer db.Close()
		checks["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	var docs documents.Store
	if cfg.Minio.Enabled {
		store, err := storage.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logger.Fatal("minio init error", zap.Error(err))
		}
		docs = store
	} else {
		docs = storage.NewMemoryStore()
	}

	completer, err := newCompleter(cfg.LLM)
	if err != nil {
		logger.Fatal("completion client init error", zap.String("provider", cfg.LLM.Provider), zap.Error(err))
	}
	if p, ok := completer.(interface{ Ping(context.Context) error }); ok {
		checks["llm"] = middleware.CheckFunc(p.Ping)
	}

	analysis := &appanalysis.Service{
		Completer:  completer,
		Repo:       repo,
		Documents:  docs,
		Logger:     logger.Named("analysis"),
		GISAware:   cfg.Analysis.GISAware,
		Concurrent: cfg.Analysis.Concurrent,
	}

	handler := httpserver.NewRouter(httpserver.Options{
		Analysis:     analysis,
		GIS:          &appgis.Service{Repo: repo, Logger: logger.Named("gis")},
		Projects:     &appprojects.Service{Repo: repo},
		Documents:    docs,
		Logger:       logger.Named("http"),
		APIKeys:      cfg.Server.APIKeys,
		RateLimit:    cfg.Server.RateLimit,
		RateRefill:   cfg.Server.RateRefill,
		CORSOrigins:  cfg.Server.CORSOrigins,
		HealthChecks: checks,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	// three sequential completions can take several minutes
	writeTimeout := 3*cfg.LLM.Timeout + 30*time.Second
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logger.Info("server listening",
			zap.String("addr", addr),
			zap.String("db", cfg.Database.Driver),
			zap.String("llm", cfg.LLM.Provider),
			zap.String("model", cfg.LLM.Model),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func openRepository(ctx context.Context, cfg *config.Config) (projects.Repository, *sql.DB, error) {
	switch cfg.Database.Driver {
	case "memory":
		return memory.New(application.SystemClock{}), nil, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewProjectRepository(db), db, nil
	default:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, err
		}
		if err := mysqlp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return mysqlp.NewProjectRepository(db), db, nil
	}
}

func newCompleter(cfg config.LLMConfig) (ai.Completer, error) {
	if cfg.Provider == "gemini" {
		c, err := gemini.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	c, err := openai.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}
