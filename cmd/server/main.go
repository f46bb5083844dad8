/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the contract payment schedule server. Handles
  configuration, dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (flags, environment, optional config file)
  2. Build the zap logger
  3. Initialize SQLite store
  4. Optionally load the dev seed data set
  5. Configure HTTP router
  6. Start server with graceful shutdown

CONFIGURATION:
  Via viper, in precedence order: flags > environment (RECAUDACION_*)
  > config file (./config.yaml) > defaults.

  port       HTTP server port (default: 8080)
  db         SQLite database path (default: recaudacion.db)
             Use ":memory:" for in-memory database
  log_level  zap level: debug, info, warn, error (default: info)
  seed       Load the dev data set on startup (default: false)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server --db="./data/recaudacion.db"

  # Run an in-memory dev instance with sample data
  ./server --db=":memory:" --seed

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/TLArrow401/ProyTray4-Recaudacion-sub000/api"
	"github.com/TLArrow401/ProyTray4-Recaudacion-sub000/store/sqlite"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.GetString("log_level"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Initialize store
	store, err := sqlite.New(cfg.GetString("db"))
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	if cfg.GetBool("seed") {
		if err := loadSeedData(context.Background(), store); err != nil {
			logger.Fatal("failed to load seed data", zap.Error(err))
		}
		logger.Info("dev seed data loaded")
	}

	// Wire handler and router
	handler := api.NewHandler(store, logger)
	router := api.NewRouter(handler)

	port := cfg.GetInt("port")
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.Int("port", port),
			zap.String("db", cfg.GetString("db")))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func loadConfig() (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("port", 8080)
	v.SetDefault("db", "recaudacion.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("seed", false)

	pflag.Int("port", 8080, "HTTP server port")
	pflag.String("db", "recaudacion.db", "SQLite database path")
	pflag.String("log_level", "info", "Log level: debug, info, warn, error")
	pflag.Bool("seed", false, "Load dev seed data on startup")
	pflag.Parse()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return nil, err
	}

	v.SetEnvPrefix("RECAUDACION")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		// The config file is optional.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return v, nil
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}
