package run

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/slipangle/rallyarcade/log"
	"github.com/slipangle/rallyarcade/pkg/config"
	"github.com/slipangle/rallyarcade/pkg/sim"
	"github.com/slipangle/rallyarcade/pkg/storage"
	"github.com/slipangle/rallyarcade/pkg/track"
)

var (
	scriptFile string
	frameRate  int
)

func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "runs a headless session driven by a scripted input file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScripted()
		},
	}
	cmd.Flags().StringVarP(&scriptFile,
		"script",
		"s",
		"",
		"path of the input script (yaml)")
	cmd.Flags().IntVar(&frameRate,
		"frame-rate",
		60,
		"simulated render frames per second")
	cmd.Flags().StringVar(&config.DriverName,
		"driver",
		"scripted",
		"name used for leaderboard submissions")
	cmd.Flags().BoolVar(&config.RecordGhost,
		"record-ghost",
		true,
		"record a ghost during the attempt")
	cmd.Flags().Float64Var(&config.MaxFrameSecs,
		"max-frame",
		sim.DefaultMaxFrameDelta,
		"upper clamp for a single frame delta in seconds")
	cmd.Flags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	cmd.Flags().StringVar(&config.LogFormat,
		"log-format",
		"text",
		"controls the log output format")
	//nolint:errcheck // cannot fail on own flag
	cmd.MarkFlagRequired("script")
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

//nolint:funlen // by design
func runScripted() error {
	setupLogger()
	if config.TrackFile == "" {
		return fmt.Errorf("no track file given (use --track)")
	}
	trk, err := track.LoadFile(config.TrackFile)
	if err != nil {
		return err
	}
	script, err := loadScript(scriptFile)
	if err != nil {
		return err
	}
	store, err := storage.NewFileStore(config.DataDir)
	if err != nil {
		return err
	}

	log.Info("Starting scripted run",
		log.String("track", trk.Name()),
		log.String("script", script.Name),
		log.Float64("duration", script.Duration()))

	session := sim.NewSession(trk,
		sim.WithStore(store),
		sim.WithPhysicsRate(config.PhysicsRate),
		sim.WithMaxFrameDelta(config.MaxFrameSecs),
		sim.WithRecording(config.RecordGhost),
		sim.WithDriverName(config.DriverName))

	frameDt := 1.0 / float64(frameRate)
	elapsed := 0.0
	for elapsed < script.Duration() {
		res := session.Frame(frameDt, script.At(elapsed))
		elapsed += frameDt
		for _, ev := range res.Events {
			logEvent(session, ev)
		}
		if session.Progress().State == sim.StageComplete {
			break
		}
	}

	prog := session.Progress()
	state := session.VehicleState()
	log.Info("Scripted run finished",
		log.String("state", prog.State.String()),
		log.Int("checkpoints", prog.CheckpointIndex),
		log.Float64("simTime", session.SimTime()),
		log.Float64("speed", state.Speed))
	if prog.State == sim.StageComplete {
		fmt.Printf("stage complete in %.3fs (best: %.3fs, new best: %t)\n",
			prog.StageTime, prog.BestTime, prog.NewBest)
	} else {
		fmt.Printf("stage not completed (state %s, checkpoint %d/%d)\n",
			prog.State, prog.CheckpointIndex, prog.CheckpointTotal)
	}
	return nil
}

func logEvent(session *sim.Session, ev sim.Event) {
	switch ev {
	case sim.EventStarted:
		log.Info("Stage started", log.Float64("simTime", session.SimTime()))
	case sim.EventCheckpoint:
		log.Info("Checkpoint passed",
			log.Int("index", session.Progress().CheckpointIndex),
			log.Float64("elapsed", session.Progress().Elapsed))
	case sim.EventComplete:
		log.Info("Stage complete",
			log.Float64("stageTime", session.Progress().StageTime),
			log.Bool("newBest", session.Progress().NewBest))
	}
}
