package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/sync/errgroup"

	"quizroom/internal/config"
	"quizroom/internal/game"
	"quizroom/internal/results"
	"quizroom/internal/ws"
)

const version = "v1.0.0"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
		configFlag  = flag.String("config", "", "Path to YAML config file (overrides CONFIG_PATH env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`quizroom - real-time multiplayer quiz server

Usage: %s [options]

Options:
  -h, --help       Show this help message
  -v, --version    Show version information
  --port PORT      Port to listen on (default: 8080 or PORT env var)
  --config PATH    Path to YAML config file

Environment Variables:
  PORT                      Port to listen on (default: 8080)
  CONFIG_PATH               Path to YAML config file
  PUBLIC_BASE_URL           Base URL used in QR join links (default: http://localhost:8080)
  RESULTS_DIR               Directory for finished-game summaries (default: ./results)
  QUESTION_DEFAULT_TIME_MS  Default per-question time limit (default: 20000)
  COUNTDOWN_MS              Lobby countdown before the first question (default: 3000)
  AUTO_ADVANCE_MS           Reveal duration before auto-advance (default: 3000)
  MIN_PLAYERS_TO_START      Minimum joined players to start a game (default: 1)
  MAX_PLAYERS               Player cap per session (default: 100)
  ORPHAN_SWEEP_INTERVAL_MS  Orphaned-session sweep interval (default: 60000)

Examples:
  %s                  Start server with default settings
  %s --port 3000      Start server on port 3000
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("quizroom %s\n", version)
		return
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)
	logger := zerologlog.Logger

	configPath := *configFlag
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
	}
	if *portFlag != "" {
		cfg.Port = *portFlag
	}

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		logger.Info().Str("path", path).Int("status", c.Writer.Status()).Dur("dur", time.Since(start)).Msg("http")
	})

	// Game core wiring
	registry := game.NewRegistry(cfg.PinLength)
	directory := game.NewDirectory()
	limiter := game.NewRateLimiter(cfg.RateLimits)
	resultsStore := results.NewStore(cfg.ResultsDir)

	sock := ws.New(limiter)
	router := game.NewRouter(sock)
	engine := game.NewEngine(cfg, registry, directory, router, resultsStore, logger)
	sock.SetEngine(engine)
	io := sock.Mount(r)
	defer io.Close()

	// Liveness
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	// Joinable session snapshot for the lobby browser
	r.GET("/active-games", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"games": registry.ListJoinable()})
	})

	// QR code for the join URL of a live PIN
	r.GET("/qr/:pin", func(c *gin.Context) {
		pin := c.Param("pin")
		if !game.ValidPinFormat(pin) {
			c.JSON(http.StatusBadRequest, gin.H{"code": "invalid-pin", "message": "the PIN must be six digits"})
			return
		}
		png, err := qrcode.Encode(cfg.PublicBaseURL+"/join/"+pin, qrcode.Medium, 256)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": "error", "message": "could not render QR code"})
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("port", cfg.Port).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sweeper := game.NewSweeper(engine, time.Duration(cfg.OrphanSweepIntervalMs)*time.Millisecond, logger)
		sweeper.Run(ctx)
		return nil
	})
	g.Go(func() error {
		limiter.Run(ctx, time.Duration(cfg.RatePruneIntervalMs)*time.Millisecond)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		engine.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
