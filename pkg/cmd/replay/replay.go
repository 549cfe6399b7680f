package replay

import (
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/slipangle/rallyarcade/log"
	"github.com/slipangle/rallyarcade/pkg/config"
	"github.com/slipangle/rallyarcade/pkg/sim"
	"github.com/slipangle/rallyarcade/pkg/storage"
	"github.com/slipangle/rallyarcade/pkg/track"
)

func NewReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "replays the stored ghost of a track and prints a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return replayGhost()
		},
	}
	cmd.Flags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	cmd.Flags().StringVar(&config.LogFormat,
		"log-format",
		"text",
		"controls the log output format")
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
		logger = log.DevLogger(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}
	log.ResetDefault(logger)
}

type replaySummary struct {
	frames   int
	distance float64
	maxSpeed float64
	maxSlip  float64
}

func replayGhost() error {
	setupLogger()
	if config.TrackFile == "" {
		return fmt.Errorf("no track file given (use --track)")
	}
	trk, err := track.LoadFile(config.TrackFile)
	if err != nil {
		return err
	}
	store, err := storage.NewFileStore(config.DataDir)
	if err != nil {
		return err
	}
	trace, err := store.Ghost(trk.Name())
	if err != nil {
		return fmt.Errorf("no ghost stored for track %s: %w", trk.Name(), err)
	}

	log.Info("Replaying ghost",
		log.String("track", trace.TrackName),
		log.String("id", trace.ID),
		log.Int("samples", len(trace.Samples)),
		log.Float64("stageTime", trace.StageTime))

	player := sim.NewGhostPlayer(trace)
	frameDt := 1.0 / float64(trace.FrameRate)
	summary := replaySummary{}
	prev := player.State.Position
	for player.Active() {
		player.Advance(frameDt)
		summary.frames++
		summary.distance += prev.Distance(player.State.Position)
		summary.maxSpeed = math.Max(summary.maxSpeed, player.State.Speed)
		summary.maxSlip = math.Max(summary.maxSlip, math.Abs(player.State.SlipAngle))
		prev = player.State.Position
	}

	fmt.Printf("ghost %s on %s\n", trace.ID, trace.TrackName)
	fmt.Printf("  stage time: %.3fs (%d samples at %d fps)\n",
		trace.StageTime, len(trace.Samples), trace.FrameRate)
	fmt.Printf("  distance:   %.1f units\n", summary.distance)
	fmt.Printf("  max speed:  %.1f units/s\n", summary.maxSpeed)
	fmt.Printf("  max slip:   %.2f rad\n", summary.maxSlip)
	return nil
}
