// Package synth provides a synthetic script engine for the frame bridge.
//
// Scripts are YAML documents listing output clips; each clip names a
// producer format, a size, a length, a frame rate and a fill pattern, and
// frames are generated on request. The engine counts every handle it hands
// out so callers can check that sessions release what they acquire:
//
//	eng := synth.NewEngine()
//	ctx, err := eng.Evaluate([]byte(script), "clip.yaml", engine.KeepWorkingDir)
//	...
//	stats := eng.Stats() // live contexts, nodes and frames
//
// Clips from include files come before the including script's own clips.
// With engine.SetWorkingDir, relative includes resolve against the
// directory of the script name.
package synth

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vsbridge/engine"
	"github.com/opd-ai/vsbridge/format"
	"github.com/opd-ai/vsbridge/geometry"
)

// ErrFrameUnavailable indicates the clip has no frame at the requested index.
var ErrFrameUnavailable = errors.New("frame unavailable")

// Stats is a snapshot of the engine's handle accounting.
type Stats struct {
	Initializations int
	Finalizations   int
	Evaluations     int
	LiveContexts    int
	LiveNodes       int
	LiveFrames      int
	FramesRendered  int
}

// Engine implements engine.API with generated clips.
type Engine struct {
	mu     sync.Mutex
	initOK bool
	stats  Stats
}

// Option configures an Engine.
type Option func(*Engine)

// WithInitFailure makes Initialize report failure.
func WithInitFailure() Option {
	return func(e *Engine) {
		e.initOK = false
	}
}

// NewEngine creates a synthetic engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{initOK: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize implements engine.API.
func (e *Engine) Initialize() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Engine.Initialize",
		"ok":       e.initOK,
	}).Debug("Initializing synthetic engine")

	if e.initOK {
		e.stats.Initializations++
	}
	return e.initOK
}

// Finalize implements engine.API.
func (e *Engine) Finalize() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.Finalizations++
	logrus.WithFields(logrus.Fields{
		"function":        "Engine.Finalize",
		"initializations": e.stats.Initializations,
		"finalizations":   e.stats.Finalizations,
	}).Debug("Finalizing synthetic engine")
}

// Evaluate implements engine.API.
func (e *Engine) Evaluate(script []byte, name string, mode engine.WorkingDirMode) (engine.Context, error) {
	base := "."
	if mode == engine.SetWorkingDir && name != "" {
		base = filepath.Dir(name)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "Engine.Evaluate",
		"name":        name,
		"script_size": len(script),
		"base_dir":    base,
	}).Debug("Evaluating synthetic script")

	s, err := parseScript(script, base, 0)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Engine.Evaluate",
			"name":     name,
			"error":    err.Error(),
		}).Debug("Synthetic script evaluation failed")
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	e.mu.Lock()
	e.stats.Evaluations++
	e.stats.LiveContexts++
	e.mu.Unlock()

	return &scriptContext{engine: e, clips: s.Clips}, nil
}

// Stats returns a snapshot of the handle accounting.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Engine) adjust(f func(*Stats)) {
	e.mu.Lock()
	f(&e.stats)
	e.mu.Unlock()
}

type scriptContext struct {
	engine   *Engine
	clips    []ClipSpec
	released bool
}

func (c *scriptContext) OutputNode(index int) (engine.Node, bool) {
	if c.released || index < 0 || index >= len(c.clips) {
		return nil, false
	}
	clip := c.clips[index]
	d, _ := clip.descriptor()

	failing := make(map[int]bool, len(clip.FailFrames))
	for _, n := range clip.FailFrames {
		failing[n] = true
	}

	c.engine.adjust(func(s *Stats) { s.LiveNodes++ })
	return &clipNode{engine: c.engine, clip: clip, desc: d, failing: failing}, true
}

func (c *scriptContext) Release() {
	if c.released {
		return
	}
	c.released = true
	c.engine.adjust(func(s *Stats) { s.LiveContexts-- })
}

type clipNode struct {
	engine   *Engine
	clip     ClipSpec
	desc     *format.Descriptor
	failing  map[int]bool
	released bool
}

func (n *clipNode) VideoInfo() engine.VideoInfo {
	return engine.VideoInfo{
		Format:    n.desc,
		Width:     n.clip.Width,
		Height:    n.clip.Height,
		NumFrames: n.clip.Frames,
		FPSNum:    n.clip.FPSNum,
		FPSDen:    n.clip.FPSDen,
	}
}

func (n *clipNode) Frame(i int) (engine.Frame, error) {
	switch {
	case n.released:
		return nil, fmt.Errorf("%w: node released", ErrFrameUnavailable)
	case n.desc == nil || n.clip.Width == 0 || n.clip.Height == 0:
		return nil, fmt.Errorf("%w: clip has no constant format", ErrFrameUnavailable)
	case i < 0 || (n.clip.Frames > 0 && i >= n.clip.Frames):
		return nil, fmt.Errorf("%w: frame %d out of range", ErrFrameUnavailable, i)
	case n.failing[i]:
		return nil, fmt.Errorf("%w: frame %d failed to render", ErrFrameUnavailable, i)
	}

	planes := render(n.clip, *n.desc, i)
	n.engine.adjust(func(s *Stats) {
		s.LiveFrames++
		s.FramesRendered++
	})
	return &clipFrame{engine: n.engine, planes: planes}, nil
}

func (n *clipNode) Release() {
	if n.released {
		return
	}
	n.released = true
	n.engine.adjust(func(s *Stats) { s.LiveNodes-- })
}

type plane struct {
	data   []byte
	stride int
}

type clipFrame struct {
	engine   *Engine
	planes   []plane
	released bool
}

func (f *clipFrame) Plane(p int) ([]byte, int) {
	if p < 0 || p >= len(f.planes) {
		return nil, 0
	}
	return f.planes[p].data, f.planes[p].stride
}

func (f *clipFrame) Release() {
	if f.released {
		return
	}
	f.released = true
	f.engine.adjust(func(s *Stats) { s.LiveFrames-- })
}

// render generates frame n of clip.
func render(clip ClipSpec, d format.Descriptor, n int) []plane {
	layout := geometry.SourcePlanes(geometry.Source{Format: d, Width: clip.Width, Height: clip.Height})

	bytes := d.BytesPerSample
	if d.Packed {
		bytes = 1
	}
	mask := uint32(0xFFFFFFFF)
	switch {
	case d.Packed:
		mask = 0xFF
	case d.BitsPerSample < 32:
		mask = 1<<uint(d.BitsPerSample) - 1
	}

	planes := make([]plane, len(layout))
	for p, pg := range layout {
		stride := pg.RowBytes + clip.Padding
		data := make([]byte, stride*pg.Height)
		samples := pg.RowBytes / bytes
		for y := 0; y < pg.Height; y++ {
			row := data[y*stride:]
			for x := 0; x < samples; x++ {
				putSample(row[x*bytes:], bytes, Sample(clip, p, x, y, n)&mask)
			}
		}
		planes[p] = plane{data: data, stride: stride}
	}
	return planes
}

// Sample returns the unmasked value the pattern of clip assigns to sample
// (x, y) of plane p in frame n.
func Sample(clip ClipSpec, p, x, y, n int) uint32 {
	switch clip.Pattern {
	case PatternConstant:
		if p < len(clip.Values) {
			return clip.Values[p]
		}
		return 0
	case PatternIndex:
		return uint32(n)
	default:
		return uint32(x + 2*y + 3*n + 17*p)
	}
}

func putSample(dst []byte, bytes int, v uint32) {
	switch bytes {
	case 1:
		dst[0] = byte(v)
	case 2:
		dst[0] = byte(v)
		dst[1] = byte(v >> 8)
	default:
		dst[0] = byte(v)
		dst[1] = byte(v >> 8)
		dst[2] = byte(v >> 16)
		dst[3] = byte(v >> 24)
	}
}
