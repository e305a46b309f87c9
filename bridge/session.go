// Package bridge converts the frames of one producer clip into consumer
// buffers.
//
// A Session is opened from a script: it evaluates the script, takes one
// output clip, checks that the clip has a finite length, a constant format
// and size, and a frame rate the consumer can store, then fixes the consumer
// layout, packing mode, geometry and transcoder for its whole life. Each
// Frame call pulls one producer frame, converts it and releases it.
//
//	rt := engine.NewRuntime(api)
//	s, err := bridge.Open(rt, bridge.Source{Script: script, Name: path,
//	    Mode: engine.SetWorkingDir}, bridge.Options{Stacked: true})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	buf, err := s.Frame(0)
//
// Sessions are not safe for concurrent use, and the engine behind them may
// not be either: callers sharing one engine between sessions serialize
// Open, Frame and Close themselves.
package bridge

import (
	"errors"
	"fmt"
	"sync"

	"github.com/opd-ai/vsbridge/engine"
	"github.com/opd-ai/vsbridge/format"
	"github.com/opd-ai/vsbridge/geometry"
	"github.com/opd-ai/vsbridge/limits"
	"github.com/opd-ai/vsbridge/transcode"
)

// State is the lifecycle position of a session.
type State int

const (
	// StateUninitialized is a session that has not acquired anything yet.
	StateUninitialized State = iota
	// StateValidated is a session whose clip passed every format check.
	StateValidated
	// StateReady is a session that can serve frames.
	StateReady
	// StateFailed is a session whose construction failed and was unwound.
	StateFailed
	// StateClosed is a session that has released its clip.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateValidated:
		return "validated"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Source is the script a session evaluates.
type Source struct {
	Script []byte
	// Name is the script path, or a display name for inline scripts.
	Name string
	Mode engine.WorkingDirMode
}

// Options tune how the clip is presented to the consumer.
type Options struct {
	// Stacked asks for stacked half-planes instead of doubled width for
	// samples wider than a byte. It has no effect on 8-bit clips or on
	// native layouts.
	Stacked bool
	// OutputIndex selects the script output.
	OutputIndex int
	// NativeFormats enables the wide-sample consumer layouts.
	NativeFormats bool
}

// Session bridges one producer clip. All fields are fixed once Open returns.
type Session struct {
	runtime  *engine.Runtime
	acquired bool
	ctx      engine.Context
	node     engine.Node

	source   geometry.Source
	consumer format.ConsumerID
	mode     geometry.PackingMode
	geometry geometry.FrameGeometry
	kind     transcode.Kind

	state     State
	closeOnce sync.Once
	closeErr  error
}

// Open evaluates src and prepares a session for the selected output.
//
// Any failure releases what was acquired so far (node, context, engine
// reference) before the error is returned.
func Open(rt *engine.Runtime, src Source, opts Options) (*Session, error) {
	s := &Session{runtime: rt, state: StateUninitialized}

	if err := s.acquire(src, opts.OutputIndex); err != nil {
		s.fail()
		return nil, err
	}

	source, consumer, err := validate(s.node.VideoInfo(), opts)
	if err != nil {
		s.fail()
		return nil, err
	}
	s.state = StateValidated

	s.source = source
	s.consumer = consumer
	s.mode, s.geometry = geometry.Resolve(source, consumer, opts.Stacked)
	s.kind = transcode.Select(consumer, s.mode)
	s.state = StateReady

	return s, nil
}

func (s *Session) acquire(src Source, index int) error {
	if err := s.runtime.Acquire(); err != nil {
		return fmt.Errorf("%w: %w", ErrEngineInit, err)
	}
	s.acquired = true

	ctx, err := s.runtime.API().Evaluate(src.Script, src.Name, src.Mode)
	if err != nil {
		return fmt.Errorf("%w.\n%w", ErrScriptEvaluation, err)
	}
	s.ctx = ctx

	node, ok := ctx.OutputNode(index)
	if !ok || node == nil {
		return fmt.Errorf("%w (index:%d)", ErrOutputNode, index)
	}
	s.node = node
	return nil
}

// validate applies the format contract to info.
func validate(info engine.VideoInfo, opts Options) (geometry.Source, format.ConsumerID, error) {
	if info.NumFrames <= 0 {
		return geometry.Source{}, format.Unsupported, ErrInfiniteLength
	}
	if info.Format == nil || info.Width <= 0 || info.Height <= 0 {
		return geometry.Source{}, format.Unsupported, ErrVariableFormat
	}
	if err := limits.ValidateFrameRate(info.FPSNum, info.FPSDen); err != nil {
		if errors.Is(err, limits.ErrValueTooLarge) {
			return geometry.Source{}, format.Unsupported, fmt.Errorf("%w: %w", ErrFrameRateOverflow, err)
		}
		return geometry.Source{}, format.Unsupported, fmt.Errorf("%w: %w", ErrVariableFrameRate, err)
	}

	d := *info.Format
	consumer := format.Map(d.ID, opts.NativeFormats)
	if consumer == format.Unsupported {
		return geometry.Source{}, format.Unsupported, fmt.Errorf("%w: %s", ErrUnsupportedFormat, d.Name)
	}
	if err := geometry.CheckSubsampling(d, info.Width, info.Height); err != nil {
		return geometry.Source{}, format.Unsupported, fmt.Errorf("%w: %w", ErrInvalidDimensions, err)
	}

	source := geometry.Source{
		Format:    d,
		Width:     info.Width,
		Height:    info.Height,
		NumFrames: info.NumFrames,
		FPSNum:    uint32(info.FPSNum),
		FPSDen:    uint32(info.FPSDen),
	}
	_, g := geometry.Resolve(source, consumer, opts.Stacked)
	if err := limits.ValidateDimensions(g.Width, g.Height); err != nil {
		return geometry.Source{}, format.Unsupported, fmt.Errorf("%w: %w", ErrInvalidDimensions, err)
	}
	return source, consumer, nil
}

// Frame converts producer frame n. The index is passed to the producer
// unchecked; its failure becomes ErrFrameFetch. The producer frame is
// released before Frame returns, on success and on failure.
func (s *Session) Frame(n int) (*transcode.Buffer, error) {
	if s.state != StateReady {
		return nil, fmt.Errorf("%w: state %s", ErrSessionClosed, s.state)
	}

	src, err := s.node.Frame(n)
	if err != nil {
		if src != nil {
			src.Release()
		}
		return nil, fmt.Errorf("%w: frame %d: %w", ErrFrameFetch, n, err)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: frame %d", ErrFrameFetch, n)
	}
	defer src.Release()

	planes := make([]transcode.Plane, s.source.Format.NumPlanes)
	for p := range planes {
		data, stride := src.Plane(p)
		planes[p] = transcode.Plane{Data: data, Stride: stride}
	}

	dst := transcode.NewBuffer(s.geometry)
	if err := s.kind.Transcode(planes, dst); err != nil {
		return nil, fmt.Errorf("%w: frame %d: %w", ErrTranscode, n, err)
	}
	return dst, nil
}

// Close releases the node, the context and the engine reference. It is
// safe to call more than once; later calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.release()
		s.state = StateClosed
	})
	return s.closeErr
}

func (s *Session) fail() {
	_ = s.release()
	s.state = StateFailed
}

func (s *Session) release() error {
	if s.node != nil {
		s.node.Release()
		s.node = nil
	}
	if s.ctx != nil {
		s.ctx.Release()
		s.ctx = nil
	}
	if s.acquired {
		s.acquired = false
		return s.runtime.Release()
	}
	return nil
}

// Geometry returns the consumer geometry.
func (s *Session) Geometry() geometry.FrameGeometry { return s.geometry }

// Mode returns the resolved packing mode.
func (s *Session) Mode() geometry.PackingMode { return s.mode }

// Kind returns the selected transcoder.
func (s *Session) Kind() transcode.Kind { return s.kind }

// Consumer returns the consumer layout.
func (s *Session) Consumer() format.ConsumerID { return s.consumer }

// Source returns the validated producer properties.
func (s *Session) Source() geometry.Source { return s.source }

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }
