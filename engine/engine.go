// Package engine defines the boundary to the script-evaluation engine that
// runs the producer graph.
//
// The engine itself is external: it compiles a script, exposes the script's
// output nodes and yields frames on request. This package only names the
// calls the bridge makes and provides Runtime, the process-wide reference
// count around the engine's initialise/finalise pair.
package engine

import "github.com/opd-ai/vsbridge/format"

// WorkingDirMode controls the working directory during script evaluation.
type WorkingDirMode int

const (
	// KeepWorkingDir evaluates in the process working directory.
	KeepWorkingDir WorkingDirMode = iota
	// SetWorkingDir evaluates with the script's own directory as working directory.
	SetWorkingDir
)

// VideoInfo is what the engine reports about an output node.
//
// Format is nil when the node's format varies between frames. Width or
// Height is zero when the size varies. NumFrames is zero for unbounded
// clips and FPSNum is zero for variable frame rate. Values are int64 so the
// bridge can see and reject rates that do not fit 32 bits.
type VideoInfo struct {
	Format    *format.Descriptor
	Width     int
	Height    int
	NumFrames int
	FPSNum    int64
	FPSDen    int64
}

// API is the process-wide entry point of the engine.
type API interface {
	// Initialize prepares the engine for use and reports success.
	Initialize() bool
	// Finalize tears the engine down after the last Initialize is balanced.
	Finalize()
	// Evaluate compiles and runs script. name is the script's path or a
	// display name for inline scripts. A failed evaluation returns an error
	// carrying the engine's diagnostic text.
	Evaluate(script []byte, name string, mode WorkingDirMode) (Context, error)
}

// Context is one evaluated script.
type Context interface {
	// OutputNode returns the node registered at index, or false if none.
	OutputNode(index int) (Node, bool)
	Release()
}

// Node is one output clip of a script.
type Node interface {
	VideoInfo() VideoInfo
	// Frame renders frame n synchronously. A nil frame with a non-nil error
	// means the producer had no frame at that index.
	Frame(n int) (Frame, error)
	Release()
}

// Frame is one rendered producer frame.
type Frame interface {
	// Plane returns the read view and row stride in bytes of plane p.
	Plane(p int) (data []byte, stride int)
	Release()
}
