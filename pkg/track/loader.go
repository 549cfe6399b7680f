package track

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/slipangle/rallyarcade/pkg/model"
)

// LoadData parses a track authoring document.
func LoadData(raw []byte) (*model.TrackData, error) {
	var data model.TrackData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing track data: %w", err)
	}
	return &data, nil
}

// LoadFile reads and validates a track authoring file.
func LoadFile(path string, opts ...Option) (*Track, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading track file: %w", err)
	}
	data, err := LoadData(raw)
	if err != nil {
		return nil, err
	}
	t, err := New(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("track %s: %w", path, err)
	}
	return t, nil
}
