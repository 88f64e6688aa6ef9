package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pitfalls-server/catalog"
	"pitfalls-server/config"
	"pitfalls-server/db"
	"pitfalls-server/handlers"
	"pitfalls-server/middleware"
	"pitfalls-server/survey"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.GinMode != gin.ReleaseMode {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		// No logger yet.
		os.Stderr.WriteString("Error loading configuration: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		os.Stderr.WriteString("Error building logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Fatal("unable to load catalog", zap.Error(err))
	}

	ctx := context.Background()
	store, err := db.InitDB(ctx, db.Driver(cfg.DB.Driver), cfg.DB.DSN, logger)
	if err != nil {
		logger.Fatal("unable to connect to database", zap.Error(err))
	}
	defer store.Close()
	if err := store.CreateSchema(ctx); err != nil {
		logger.Fatal("error creating database schema", zap.Error(err))
	}

	auth, err := middleware.NewAuthenticator(middleware.AdminAuthConfig{
		Password:      cfg.Admin.Password,
		PasswordHash:  cfg.Admin.PasswordHash,
		JWTSigningKey: cfg.Admin.JWTSigningKey,
		Issuer:        cfg.Admin.Issuer,
		TokenTTL:      cfg.Admin.TokenTTL,
	}, logger)
	if err != nil {
		logger.Fatal("unable to set up admin auth", zap.Error(err))
	}

	svc := survey.NewService(cat, store, logger, survey.WithShuffle(cfg.ShuffleQuestions))

	gin.SetMode(cfg.GinMode)
	router, err := handlers.NewRouter(svc, auth, logger)
	if err != nil {
		logger.Fatal("unable to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Goroutine to gracefully shut down the server
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	logger.Info("pitfalls server starting", zap.String("addr", cfg.ServerPort), zap.String("db_driver", cfg.DB.Driver))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server startup error", zap.Error(err))
	}
	logger.Info("server exited gracefully")
}
