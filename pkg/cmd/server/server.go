package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/slipangle/rallyarcade/log"
	"github.com/slipangle/rallyarcade/pkg/config"
	"github.com/slipangle/rallyarcade/pkg/storage"
	"github.com/slipangle/rallyarcade/pkg/track"
	"github.com/slipangle/rallyarcade/pkg/utils/cache/loadercache"
)

var renderRate int

func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "starts the websocket session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer()
		},
	}
	cmd.Flags().StringVarP(&config.ServerAddr,
		"addr",
		"a",
		"localhost:8085",
		"websocket server listen address")
	cmd.Flags().IntVar(&renderRate,
		"render-rate",
		60,
		"snapshots sent to clients per second")
	cmd.Flags().BoolVar(&config.RecordGhost,
		"record-ghost",
		true,
		"record ghosts during attempts")
	cmd.Flags().BoolVar(&config.GhostEnabled,
		"ghost",
		true,
		"replay the stored ghost alongside each player")
	cmd.Flags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	cmd.Flags().StringVar(&config.LogFormat,
		"log-format",
		"json",
		"controls the log output format")
	cmd.Flags().StringVar(&config.LogFilter,
		"log-filter",
		"",
		"zapfilter rules for the dev logger")
	return cmd
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

func setupLogger() {
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		if config.LogFilter != "" {
			logger = log.DevLoggerWithRules(
				os.Stderr,
				parseLogLevel(config.LogLevel, log.DebugLevel),
				config.LogFilter,
				log.WithCaller(true),
				log.AddCallerSkip(1))
		} else {
			logger = log.DevLogger(
				os.Stderr,
				parseLogLevel(config.LogLevel, log.DebugLevel),
				log.WithCaller(true),
				log.AddCallerSkip(1))
		}
	}
	log.ResetDefault(logger)
}

//nolint:funlen // by design
func startServer() error {
	setupLogger()
	if config.TrackFile == "" {
		return fmt.Errorf("no track file given (use --track)")
	}

	trackCache := loadercache.New(
		loadercache.WithLoader[string, track.Track](
			func(path string) (*track.Track, error) {
				return track.LoadFile(path)
			}),
		loadercache.WithExpiration[string, track.Track](time.Hour),
	)
	trk, err := trackCache.Get(context.Background(), config.TrackFile)
	if err != nil {
		return err
	}
	store, err := storage.NewFileStore(config.DataDir,
		storage.WithLogger(log.Default().Named("store")))
	if err != nil {
		return err
	}

	host := newSessionHost(trk, store, hostSettings{
		renderRate:   renderRate,
		physicsRate:  config.PhysicsRate,
		recordGhost:  config.RecordGhost,
		ghostEnabled: config.GhostEnabled,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/session", host.handleSession)
	mux.HandleFunc("/watch", host.handleWatch)
	mux.HandleFunc("/sessions", host.handleList)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:              config.ServerAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting websocket server",
			log.String("addr", config.ServerAddr),
			log.String("track", trk.Name()),
			log.Int("renderRate", renderRate))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("Got signal, shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	host.close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server shutdown", log.ErrorField(err))
	}
	return nil
}
