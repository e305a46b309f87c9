package bridge

import "errors"

// Sentinel errors for bridge sessions.
// These errors enable reliable error classification using errors.Is().

// Configuration errors. The caller must fix the script and reopen.
var (
	// ErrEngineInit indicates the script engine could not be initialized.
	ErrEngineInit = errors.New("failed to initialize script engine")

	// ErrScriptEvaluation indicates the script failed to evaluate. The
	// engine's diagnostic text follows the sentinel in the message.
	ErrScriptEvaluation = errors.New("failed to evaluate script")

	// ErrOutputNode indicates the script has no output at the requested index.
	ErrOutputNode = errors.New("failed to get clip")
)

// Format contract violations.
var (
	// ErrInfiniteLength indicates a clip without a finite, positive frame count.
	ErrInfiniteLength = errors.New("input clip has infinite length")

	// ErrVariableFormat indicates a clip whose format or size is not constant.
	ErrVariableFormat = errors.New("input clip is not constant format")

	// ErrVariableFrameRate indicates a zero frame-rate numerator or denominator.
	ErrVariableFrameRate = errors.New("input clip is not constant framerate")

	// ErrFrameRateOverflow indicates a frame-rate term beyond 32 bits.
	ErrFrameRateOverflow = errors.New("input clip frame rate out of range")

	// ErrUnsupportedFormat indicates no consumer layout exists for the clip format.
	ErrUnsupportedFormat = errors.New("input clip is unsupported format")

	// ErrInvalidDimensions indicates a frame size the consumer layout cannot hold.
	ErrInvalidDimensions = errors.New("input clip has invalid dimensions")
)

// Per-frame errors. The session stays usable.
var (
	// ErrFrameFetch indicates the producer returned no frame for the index.
	ErrFrameFetch = errors.New("failed to get frame from script engine")

	// ErrTranscode indicates the producer frame did not match the session geometry.
	ErrTranscode = errors.New("failed to convert frame")
)

// Lifecycle errors.
var (
	// ErrSessionClosed indicates a frame request on a closed session.
	ErrSessionClosed = errors.New("session is closed")
)
