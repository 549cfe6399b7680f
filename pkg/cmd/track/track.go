package track

import (
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/slipangle/rallyarcade/pkg/model"
	"github.com/slipangle/rallyarcade/pkg/track"
)

func NewTrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "commands for working with track definition files",
	}
	cmd.AddCommand(newCheckCmd())
	return cmd
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <track-file>",
		Short: "validates a track definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkTrack(args[0])
		},
	}
	return cmd
}

func checkTrack(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read track file %s: %w", path, err)
	}
	data, err := track.LoadData(raw)
	if err != nil {
		return err
	}
	trk, buildErr := track.New(data)
	if buildErr != nil {
		fmt.Printf("track file %s is INVALID: %v\n", path, buildErr)
		return buildErr
	}

	bounds := trk.Bounds()
	fmt.Printf("track %q is valid\n", trk.Name())
	fmt.Printf("  outer boundary: %d vertices\n", len(data.Outer))
	fmt.Printf("  inner boundary: %d vertices\n", len(data.Inner))
	fmt.Printf("  bounds: (%.1f,%.1f)-(%.1f,%.1f)\n",
		bounds.MinX, bounds.MinY, bounds.MaxX, bounds.MaxY)
	fmt.Printf("  checkpoints: %d\n", trk.CheckpointCount())
	surfaceKinds := lo.Uniq(lo.Map(data.Surfaces,
		func(s model.SurfaceRegion, _ int) model.SurfaceKind { return s.Kind }))
	fmt.Printf("  surface regions: %d (%v)\n", len(data.Surfaces), surfaceKinds)
	if data.FinishLine == nil {
		fmt.Println("  note: no finish line defined, start line is reused as finish")
	}
	return nil
}
