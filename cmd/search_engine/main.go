package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-inner-hits/api"
	"github.com/gcbaptista/go-inner-hits/config"
	"github.com/gcbaptista/go-inner-hits/internal/engine"
	"github.com/gcbaptista/go-inner-hits/internal/logger"
	"github.com/gcbaptista/go-inner-hits/internal/metrics"
)

const version = "1.0.0"

func main() {
	var (
		help        = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		configPath  = flag.String("config", "", "Path to a YAML configuration file")
		port        = flag.Int("port", 0, "Port to run the server on (overrides the config file)")
		dataDir     = flag.String("data-dir", "", "Directory to store index data (overrides the config file)")
	)
	flag.Parse()

	if *help {
		fmt.Printf("Go Inner Hits - a document search server with nested and parent/child inner hits\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s                                # Start server on default port 8080\n", os.Args[0])
		fmt.Printf("  %s --config config/local.yaml     # Load settings from a file\n", os.Args[0])
		fmt.Printf("  %s --port 9000 --data-dir /tmp/ih # Override port and data directory\n", os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("Go Inner Hits v%s\n", version)
		return
	}

	cfg := config.DefaultServerConfig()
	if *configPath != "" {
		loaded, err := config.LoadServerConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *port > 0 {
		cfg.HTTP.Port = *port
	}
	if *dataDir != "" {
		cfg.Storage.DataDir = *dataDir
	}

	log, err := logger.NewLogger(cfg.Logging.Env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg config.ServerConfig, log *zap.Logger) error {
	metrics.RegisterSearchMetrics()
	metrics.RegisterHTTPMetrics()

	log.Info("starting search engine",
		zap.String("data_dir", cfg.Storage.DataDir),
		zap.Int("inner_hits_workers", cfg.Search.InnerHitsWorkers),
		zap.Int("timeout_ms", cfg.Search.TimeoutMs),
		zap.Int64("cache_max_cost", cfg.Cache.ResolutionMaxCost))

	searchEngine, err := engine.NewEngine(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}
	defer searchEngine.Close()

	if cfg.Logging.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(),
		api.CORSMiddleware(),
		api.RequestSizeLimitMiddleware(cfg.HTTP.MaxRequestSize),
		api.LoggingMiddleware(log))
	api.SetupRoutes(router, searchEngine, log)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", zap.Int("timeout_sec", cfg.HTTP.ShutdownSec))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
