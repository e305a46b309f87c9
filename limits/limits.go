package limits

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MaxFrameRateComponent is the largest frame-rate numerator or denominator
	// a consumer can store (its fields are unsigned 32-bit).
	MaxFrameRateComponent = math.MaxUint32

	// MaxDimension is the largest declared width or height of a consumer frame
	// (its fields are signed 32-bit).
	MaxDimension = math.MaxInt32

	// FrameAlign is the alignment in bytes of every destination row pitch.
	FrameAlign = 64
)

var (
	// ErrValueZero indicates a value that must be positive was zero or negative.
	ErrValueZero = errors.New("value must be positive")

	// ErrValueTooLarge indicates a value exceeds its upper bound.
	ErrValueTooLarge = errors.New("value too large")
)

// ValidateFrameRateComponent validates one frame-rate term against MaxFrameRateComponent.
// The name is included in the error for context.
func ValidateFrameRateComponent(name string, v int64) error {
	if v <= 0 {
		return fmt.Errorf("%w: %s is %d", ErrValueZero, name, v)
	}
	if v > MaxFrameRateComponent {
		return fmt.Errorf("%w: %s %d exceeds limit %d", ErrValueTooLarge, name, v, uint64(MaxFrameRateComponent))
	}
	return nil
}

// ValidateFrameRate validates numerator and denominator, numerator first.
func ValidateFrameRate(num, den int64) error {
	if err := ValidateFrameRateComponent("fpsnum", num); err != nil {
		return err
	}
	return ValidateFrameRateComponent("fpsden", den)
}

// ValidateDimensions validates a declared frame size against MaxDimension.
func ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: frame size %dx%d", ErrValueZero, width, height)
	}
	if width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: frame size %dx%d exceeds limit %d", ErrValueTooLarge, width, height, MaxDimension)
	}
	return nil
}

// AlignStride rounds rowBytes up to the next multiple of FrameAlign.
func AlignStride(rowBytes int) int {
	if rowBytes <= 0 {
		return 0
	}
	return (rowBytes + FrameAlign - 1) / FrameAlign * FrameAlign
}
