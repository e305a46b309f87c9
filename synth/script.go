package synth

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/vsbridge/format"
)

// maxIncludeDepth bounds nested include chains.
const maxIncludeDepth = 8

// Script is the document a synthetic script evaluates to.
type Script struct {
	Include []string   `yaml:"include"`
	Clips   []ClipSpec `yaml:"clips"`
}

// ClipSpec describes one output clip.
//
// An empty Format (and zero FormatID) leaves the clip without a constant
// format. Zero Width, Height, Frames or FPSNum are passed through as-is so
// that consumers can reject them.
type ClipSpec struct {
	Format     string   `yaml:"format"`
	FormatID   int      `yaml:"format_id"`
	Width      int      `yaml:"width"`
	Height     int      `yaml:"height"`
	Frames     int      `yaml:"frames"`
	FPSNum     int64    `yaml:"fps_num"`
	FPSDen     int64    `yaml:"fps_den"`
	Pattern    string   `yaml:"pattern"`
	Values     []uint32 `yaml:"values"`
	FailFrames []int    `yaml:"fail_frames"`
	Padding    int      `yaml:"padding"`
}

// Pattern names understood by the generator.
const (
	PatternGradient = "gradient"
	PatternConstant = "constant"
	PatternIndex    = "index"
)

// descriptor resolves the clip's format, or nil for a variable format.
func (c ClipSpec) descriptor() (*format.Descriptor, error) {
	if c.FormatID != 0 {
		if d, ok := format.Lookup(format.ProducerID(c.FormatID)); ok {
			return &d, nil
		}
		// Unregistered ids still describe a one-plane 8-bit clip so the
		// format table is what rejects them.
		return &format.Descriptor{
			ID:             format.ProducerID(c.FormatID),
			Name:           fmt.Sprintf("Format%d", c.FormatID),
			Family:         format.FamilyGray,
			BitsPerSample:  8,
			BytesPerSample: 1,
			NumPlanes:      1,
		}, nil
	}
	if c.Format == "" {
		return nil, nil
	}
	d, ok := format.LookupName(c.Format)
	if !ok {
		return nil, fmt.Errorf("unknown format %q", c.Format)
	}
	return &d, nil
}

func (c ClipSpec) validate() error {
	switch c.Pattern {
	case "", PatternGradient, PatternConstant, PatternIndex:
	default:
		return fmt.Errorf("unknown pattern %q", c.Pattern)
	}
	if c.Width < 0 || c.Height < 0 || c.Frames < 0 || c.Padding < 0 {
		return fmt.Errorf("negative clip dimension")
	}
	return nil
}

// parseScript decodes script and resolves includes. base is the directory
// relative include paths are resolved against.
func parseScript(script []byte, base string, depth int) (*Script, error) {
	if depth > maxIncludeDepth {
		return nil, fmt.Errorf("include depth exceeds %d", maxIncludeDepth)
	}

	var s Script
	if err := yaml.Unmarshal(script, &s); err != nil {
		return nil, fmt.Errorf("syntax error: %w", err)
	}

	var clips []ClipSpec
	for _, inc := range s.Include {
		path := inc
		if !filepath.IsAbs(path) {
			path = filepath.Join(base, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("include %q: %w", inc, err)
		}
		sub, err := parseScript(data, filepath.Dir(path), depth+1)
		if err != nil {
			return nil, fmt.Errorf("include %q: %w", inc, err)
		}
		clips = append(clips, sub.Clips...)
	}
	s.Clips = append(clips, s.Clips...)

	for i, c := range s.Clips {
		if err := c.validate(); err != nil {
			return nil, fmt.Errorf("clip %d: %w", i, err)
		}
		if _, err := c.descriptor(); err != nil {
			return nil, fmt.Errorf("clip %d: %w", i, err)
		}
	}
	return &s, nil
}
