package run

import (
	"fmt"
	"os"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/slipangle/rallyarcade/pkg/sim"
)

// Segment holds one timed slice of scripted driver input.
type Segment struct {
	Duration  float64 `yaml:"duration"`
	Steer     float64 `yaml:"steer"`
	Throttle  float64 `yaml:"throttle"`
	Brake     float64 `yaml:"brake"`
	Handbrake bool    `yaml:"handbrake"`
}

// Script is a reproducible input sequence for a headless session run.
type Script struct {
	Name     string    `yaml:"name"`
	Segments []Segment `yaml:"segments"`
}

func (s *Script) Duration() float64 {
	return lo.SumBy(s.Segments, func(seg Segment) float64 { return seg.Duration })
}

// At returns the controls active at elapsed time t. Past the end of the
// script all inputs are released.
func (s *Script) At(t float64) sim.Controls {
	for _, seg := range s.Segments {
		if t < seg.Duration {
			return sim.Controls{
				Steer:     seg.Steer,
				Throttle:  seg.Throttle,
				Brake:     seg.Brake,
				Handbrake: seg.Handbrake,
			}
		}
		t -= seg.Duration
	}
	return sim.Controls{}
}

func parseScript(raw []byte) (*Script, error) {
	var script Script
	if err := yaml.Unmarshal(raw, &script); err != nil {
		return nil, fmt.Errorf("could not parse input script: %w", err)
	}
	if len(script.Segments) == 0 {
		return nil, fmt.Errorf("input script has no segments")
	}
	for i, seg := range script.Segments {
		if seg.Duration <= 0 {
			return nil, fmt.Errorf("segment %d has non-positive duration", i)
		}
	}
	return &script, nil
}

func loadScript(path string) (*Script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read input script %s: %w", path, err)
	}
	return parseScript(raw)
}
