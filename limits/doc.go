// Package limits provides centralized numeric bounds for the frame bridge.
// This package keeps the frame-rate range, the frame dimension bounds and the
// destination row alignment in one place so the session, the transcoders and
// the host enforce the same values.
//
// # Bounds
//
//   - MaxFrameRateComponent (4294967295): frame-rate numerator and denominator
//     must each fit the consumer's unsigned 32-bit fields.
//
//   - MaxDimension (2147483647): the largest width or height the consumer can
//     declare in its signed 32-bit fields; stacked and doubled-width layouts
//     are checked against it after the multiplication.
//
//   - FrameAlign (64 bytes): destination row pitch alignment, matching what
//     legacy consumers expect from their own frame allocator.
//
// # Validation Functions
//
// Each validation function reports which bound was violated:
//
//	err := limits.ValidateFrameRate(num, den)
//	if errors.Is(err, limits.ErrValueTooLarge) {
//	    // numerator or denominator overflowed uint32
//	}
package limits
