package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/holoocg/holo-server-go/internal/catalog"
	"github.com/holoocg/holo-server-go/internal/config"
	"github.com/holoocg/holo-server-go/internal/game"
	"github.com/holoocg/holo-server-go/internal/game/rules"
	"github.com/holoocg/holo-server-go/internal/repository"
	"github.com/holoocg/holo-server-go/internal/server"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	envPath    = flag.String("env", ".env", "path to an optional dotenv file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load env file: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting holo server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	cards, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("failed to load card catalog", zap.Error(err))
	}
	logger.Info("card catalog loaded",
		zap.String("path", cfg.Catalog.Path),
		zap.Int("cards", cards.Len()),
	)

	categories, err := parseCategories(cfg.Engine.ReplacementCategories)
	if err != nil {
		logger.Fatal("invalid engine configuration", zap.Error(err))
	}

	opts := game.MatchOptions{
		MaxIterations:         cfg.Engine.MaxIterations,
		ReplacementCategories: categories,
	}

	if cfg.Database.Enabled() {
		db, err := repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		stats := db.Stats()
		logger.Info("database connection pool initialized",
			zap.Int32("total_conns", stats.TotalConns()),
			zap.Int32("idle_conns", stats.IdleConns()),
		)

		eventLog := repository.NewEventLogRepository(db.Pool(), logger)
		if err := eventLog.EnsureSchema(ctx); err != nil {
			logger.Fatal("failed to prepare event log schema", zap.Error(err))
		}
		opts.Sink = eventLog
	} else {
		logger.Warn("database not configured; resolved events are not persisted")
	}

	if cfg.Replay.Enabled {
		opts.Recorder = game.NewReplayRecorder(logger, cfg.Replay.Directory)
		logger.Info("replay recording enabled", zap.String("directory", cfg.Replay.Directory))
	}

	matchMgr := game.NewManager(cards, opts, logger)
	service := server.NewMatchService(matchMgr, cfg.Engine.StartingLife, cfg.Engine.OpeningHand, logger)
	logger.Info("match manager initialized",
		zap.Int("max_iterations", cfg.Engine.MaxIterations),
		zap.Int("starting_life", cfg.Engine.StartingLife),
	)

	hub := server.NewHub(service, cfg.Server.WebSocket, logger)
	go hub.Run(ctx)

	grpcServer, healthServer := server.NewGRPCServer(cfg.Server.GRPC, logger)

	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	// Start gRPC server
	go func() {
		logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPC.Address))
		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()

	// Start WebSocket server
	go func() {
		if wsErr := server.StartWebSocketServer(ctx, cfg.Server.WebSocket, hub, logger); wsErr != nil {
			logger.Error("WebSocket server error", zap.Error(wsErr))
		}
	}()

	logger.Info("holo server initialized",
		zap.String("version", version),
		zap.String("grpc_address", cfg.Server.GRPC.Address),
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
	)

	// Wait for termination signal
	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	healthServer.Shutdown()
	cancel()

	for _, id := range matchMgr.MatchIDs() {
		if err := matchMgr.RemoveMatch(id); err != nil {
			logger.Warn("failed to close match", zap.String("match_id", id), zap.Error(err))
		}
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(cfg.Server.ShutdownTimeout):
		logger.Warn("graceful stop timed out; forcing shutdown",
			zap.Duration("timeout", cfg.Server.ShutdownTimeout))
		grpcServer.Stop()
	}

	logger.Info("holo server stopped")
}

// parseCategories resolves configured category names. An empty list keeps
// replacement enabled for every category.
func parseCategories(names []string) ([]rules.EventCategory, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]rules.EventCategory, 0, len(names))
	for _, name := range names {
		c, ok := rules.ParseEventCategory(name)
		if !ok {
			return nil, fmt.Errorf("unknown replacement category %q", name)
		}
		out = append(out, c)
	}
	return out, nil
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
