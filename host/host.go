// Package host embeds frame bridge sessions in a host application.
//
// A Host owns the process-wide engine runtime and a registry of open
// sessions addressed by opaque handles. Every entry point that reaches the
// script engine (OpenSource, Frame, Close, Shutdown) runs under one lock,
// because the engine's process state is not known to be safe for concurrent
// use. The host decodes paths and inline scripts from the caller's text
// encoding, reads script files, and logs what the core leaves unlogged.
package host

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vsbridge/bridge"
	"github.com/opd-ai/vsbridge/engine"
	"github.com/opd-ai/vsbridge/geometry"
	"github.com/opd-ai/vsbridge/transcode"
)

// Function names reported in error messages, after the script functions
// the host registers.
const (
	FunctionImport = "VSImport"
	FunctionEval   = "VSEval"
)

// Handle addresses one open session.
type Handle uuid.UUID

// String returns the canonical UUID form.
func (h Handle) String() string {
	return uuid.UUID(h).String()
}

// ParseHandle parses the string form of a Handle.
func ParseHandle(s string) (Handle, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return Handle{}, fmt.Errorf("%w: %q", ErrUnknownHandle, s)
	}
	return Handle(id), nil
}

// OpenRequest carries the arguments of one open call.
type OpenRequest struct {
	// Source is a script path, or the script text when Inline is set.
	Source string `json:"source"`
	Inline bool   `json:"inline"`
	// Stacked selects stacked half-planes for samples wider than a byte.
	Stacked     bool `json:"stacked"`
	OutputIndex int  `json:"index"`
	// TextEncoding is the IANA name of the encoding of Source and
	// ScriptName. Empty uses the host default.
	TextEncoding string `json:"encoding,omitempty"`
	// ScriptName names an inline script in engine diagnostics.
	ScriptName string `json:"script_name,omitempty"`
}

// Function returns the name of the script function the request stands for.
func (r OpenRequest) Function() string {
	if r.Inline {
		return FunctionEval
	}
	return FunctionImport
}

// SessionInfo summarises an open session.
type SessionInfo struct {
	Handle   Handle
	Geometry geometry.FrameGeometry
	Producer string
	Mode     geometry.PackingMode
	Kind     transcode.Kind
}

// entry is one registered session and the function that opened it.
type entry struct {
	session *bridge.Session
	fn      string
}

// Host is the embedding shell around bridge sessions.
type Host struct {
	mu       sync.Mutex
	runtime  *engine.Runtime
	sessions map[Handle]*entry
	closed   bool

	nativeFormats bool
	textEncoding  string
	readFile      func(string) ([]byte, error)
}

// Option configures a Host.
type Option func(*Host)

// WithNativeFormats enables the wide-sample consumer layouts.
func WithNativeFormats(enabled bool) Option {
	return func(h *Host) {
		h.nativeFormats = enabled
	}
}

// WithTextEncoding sets the encoding used when a request names none.
func WithTextEncoding(name string) Option {
	return func(h *Host) {
		h.textEncoding = name
	}
}

// New creates a host around the engine api.
func New(api engine.API, opts ...Option) *Host {
	h := &Host{
		runtime:  engine.NewRuntime(api),
		sessions: make(map[Handle]*entry),
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(h)
	}

	logrus.WithFields(logrus.Fields{
		"function":       "New",
		"native_formats": h.nativeFormats,
		"text_encoding":  h.textEncoding,
	}).Info("Created frame bridge host")

	return h
}

// OpenSource opens a session and returns its handle. Errors are prefixed
// with the request's function name.
func (h *Host) OpenSource(req OpenRequest) (Handle, error) {
	fn := req.Function()

	logrus.WithFields(logrus.Fields{
		"function":     "Host.OpenSource",
		"script_func":  fn,
		"inline":       req.Inline,
		"stacked":      req.Stacked,
		"output_index": req.OutputIndex,
		"encoding":     req.TextEncoding,
	}).Debug("Opening source")

	if req.Source == "" {
		return Handle{}, fmt.Errorf("%s: %w", fn, ErrNoSource)
	}

	src, err := h.source(req)
	if err != nil {
		h.logOpenFailure(fn, err)
		return Handle{}, fmt.Errorf("%s: %w", fn, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return Handle{}, fmt.Errorf("%s: %w", fn, ErrHostClosed)
	}

	s, err := bridge.Open(h.runtime, src, bridge.Options{
		Stacked:       req.Stacked,
		OutputIndex:   req.OutputIndex,
		NativeFormats: h.nativeFormats,
	})
	if err != nil {
		h.logOpenFailure(fn, err)
		return Handle{}, fmt.Errorf("%s: %w", fn, err)
	}

	handle := Handle(uuid.New())
	h.sessions[handle] = &entry{session: s, fn: fn}

	g := s.Geometry()
	logrus.WithFields(logrus.Fields{
		"function":    "Host.OpenSource",
		"handle":      handle.String(),
		"producer":    s.Source().Format.Name,
		"consumer":    g.Format.String(),
		"mode":        s.Mode().String(),
		"transcoder":  s.Kind().String(),
		"width":       g.Width,
		"height":      g.Height,
		"num_frames":  g.NumFrames,
		"fps_num":     g.FPSNum,
		"fps_den":     g.FPSDen,
		"sessions":    len(h.sessions),
		"engine_refs": h.runtime.Refs(),
	}).Info("Source opened")

	return handle, nil
}

// source decodes the request and loads the script text.
func (h *Host) source(req OpenRequest) (bridge.Source, error) {
	enc := req.TextEncoding
	if enc == "" {
		enc = h.textEncoding
	}

	text, err := decodeText(req.Source, enc)
	if err != nil {
		return bridge.Source{}, err
	}
	name, err := decodeText(req.ScriptName, enc)
	if err != nil {
		return bridge.Source{}, err
	}

	if req.Inline {
		return bridge.Source{Script: []byte(text), Name: name, Mode: engine.SetWorkingDir}, nil
	}

	script, err := h.readFile(text)
	if err != nil {
		return bridge.Source{}, fmt.Errorf("%w.\n%w", bridge.ErrScriptEvaluation, err)
	}
	return bridge.Source{Script: script, Name: text, Mode: engine.SetWorkingDir}, nil
}

func (h *Host) logOpenFailure(fn string, err error) {
	logrus.WithFields(logrus.Fields{
		"function":    "Host.OpenSource",
		"script_func": fn,
		"error":       err.Error(),
	}).Warn("Failed to open source")
}

// Geometry returns the consumer geometry of a session.
func (h *Host) Geometry(handle Handle) (geometry.FrameGeometry, error) {
	s, err := h.lookup(handle)
	if err != nil {
		return geometry.FrameGeometry{}, err
	}
	return s.Geometry(), nil
}

// Info returns a summary of a session.
func (h *Host) Info(handle Handle) (SessionInfo, error) {
	s, err := h.lookup(handle)
	if err != nil {
		return SessionInfo{}, err
	}
	return SessionInfo{
		Handle:   handle,
		Geometry: s.Geometry(),
		Producer: s.Source().Format.Name,
		Mode:     s.Mode(),
		Kind:     s.Kind(),
	}, nil
}

func (h *Host) lookup(handle Handle) (*bridge.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.sessions[handle]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}
	return e.session, nil
}

// Frame converts frame n of a session. The returned buffer belongs to the
// caller. Errors carry the name of the function that opened the session.
func (h *Host) Frame(handle Handle, n int) (*transcode.Buffer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.sessions[handle]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}

	buf, err := e.session.Frame(n)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Host.Frame",
			"handle":   handle.String(),
			"frame":    n,
			"error":    err.Error(),
		}).Warn("Frame request failed")
		return nil, fmt.Errorf("%s: %w", e.fn, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Host.Frame",
		"handle":   handle.String(),
		"frame":    n,
	}).Debug("Frame converted")

	return buf, nil
}

// Close closes and unregisters a session.
func (h *Host) Close(handle Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.sessions[handle]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}
	delete(h.sessions, handle)

	err := e.session.Close()
	logrus.WithFields(logrus.Fields{
		"function":    "Host.Close",
		"handle":      handle.String(),
		"sessions":    len(h.sessions),
		"engine_refs": h.runtime.Refs(),
	}).Info("Session closed")
	return err
}

// Sessions returns the number of open sessions.
func (h *Host) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Shutdown closes every session and refuses further opens. It returns the
// first close error, if any.
func (h *Host) Shutdown() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var first error
	for handle, e := range h.sessions {
		if err := e.session.Close(); err != nil && first == nil {
			first = err
		}
		delete(h.sessions, handle)
	}
	h.closed = true

	logrus.WithFields(logrus.Fields{
		"function":    "Host.Shutdown",
		"engine_refs": h.runtime.Refs(),
	}).Info("Host shut down")
	return first
}
