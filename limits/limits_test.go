package limits

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"
)

// TestMaxFrameRateComponentMatchesUint32 verifies the frame-rate bound is the
// full unsigned 32-bit range.
func TestMaxFrameRateComponentMatchesUint32(t *testing.T) {
	if uint64(MaxFrameRateComponent) != uint64(math.MaxUint32) {
		t.Errorf("MaxFrameRateComponent = %d, want %d", uint64(MaxFrameRateComponent), uint64(math.MaxUint32))
	}
}

func TestValidateFrameRate(t *testing.T) {
	tests := []struct {
		name    string
		num     int64
		den     int64
		wantErr error
	}{
		{"ntsc film", 24000, 1001, nil},
		{"upper bound", math.MaxUint32, math.MaxUint32, nil},
		{"zero numerator", 0, 1, ErrValueZero},
		{"zero denominator", 30, 0, ErrValueZero},
		{"negative numerator", -1, 1, ErrValueZero},
		{"numerator overflow", math.MaxUint32 + 1, 1, ErrValueTooLarge},
		{"denominator overflow", 30, math.MaxUint32 + 1, ErrValueTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFrameRate(tt.num, tt.den)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateFrameRate(%d, %d) = %v, want nil", tt.num, tt.den, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateFrameRate(%d, %d) = %v, want %v", tt.num, tt.den, err, tt.wantErr)
			}
		})
	}
}

// TestValidateFrameRateNamesTerm verifies the error identifies which term overflowed.
func TestValidateFrameRateNamesTerm(t *testing.T) {
	err := ValidateFrameRate(30, math.MaxUint32+1)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); !strings.Contains(got, "fpsden") {
		t.Errorf("error %q does not name fpsden", got)
	}
}

func TestValidateDimensions(t *testing.T) {
	if err := ValidateDimensions(1920, 1080); err != nil {
		t.Errorf("1920x1080: unexpected error %v", err)
	}
	if err := ValidateDimensions(0, 1080); !errors.Is(err, ErrValueZero) {
		t.Errorf("0x1080: got %v, want ErrValueZero", err)
	}
	if err := ValidateDimensions(64, 0); !errors.Is(err, ErrValueZero) {
		t.Errorf("64x0: got %v, want ErrValueZero", err)
	}
	// Doubled-width 16-bit sources exceed 65535 and must still pass.
	if err := ValidateDimensions(80000, 2); err != nil {
		t.Errorf("80000x2: unexpected error %v", err)
	}
	if strconv.IntSize == 64 {
		oversized := MaxDimension
		oversized++
		if err := ValidateDimensions(oversized, 2); !errors.Is(err, ErrValueTooLarge) {
			t.Errorf("oversized width: got %v, want ErrValueTooLarge", err)
		}
	}
}

func TestAlignStride(t *testing.T) {
	cases := map[int]int{
		0:   0,
		1:   64,
		63:  64,
		64:  64,
		65:  128,
		192: 192,
	}
	for in, want := range cases {
		if got := AlignStride(in); got != want {
			t.Errorf("AlignStride(%d) = %d, want %d", in, got, want)
		}
	}
}
