// Package geometry derives the consumer frame geometry for a producer source.
//
// A producer plane with samples wider than one byte reaches a legacy consumer
// in one of two shapes: DoubledWidth, where each sample's bytes sit side by
// side and the declared width grows, or Stacked, where the plane is split in
// a most-significant half-plane on top of a least-significant half-plane and
// the declared height doubles. Hosts with wide-sample layouts take the plane
// as is (Native). The mode is resolved once per source.
package geometry

import (
	"fmt"

	"github.com/opd-ai/vsbridge/format"
)

// PackingMode selects how multi-byte samples are carried to the consumer.
type PackingMode int

const (
	// Native keeps the sample width; the consumer understands it directly.
	Native PackingMode = iota
	// DoubledWidth stores each multi-byte sample as consecutive 8-bit samples.
	DoubledWidth
	// Stacked stores MSB and LSB half-planes on top of each other.
	Stacked
)

// String returns the mode name.
func (m PackingMode) String() string {
	switch m {
	case Native:
		return "native"
	case DoubledWidth:
		return "doubled-width"
	case Stacked:
		return "stacked"
	default:
		return fmt.Sprintf("PackingMode(%d)", int(m))
	}
}

// Source holds the validated, constant properties of a producer clip.
type Source struct {
	Format    format.Descriptor
	Width     int
	Height    int
	NumFrames int
	FPSNum    uint32
	FPSDen    uint32
}

// FrameGeometry is the consumer view of a source, fixed for a session.
type FrameGeometry struct {
	Width     int
	Height    int
	NumFrames int
	FPSNum    uint32
	FPSDen    uint32
	Format    format.ConsumerID
}

// PlaneGeometry is the copy rectangle of one plane.
type PlaneGeometry struct {
	RowBytes    int
	Height      int
	SampleBytes int
	BottomUp    bool
}

// Resolve picks the packing mode and the consumer geometry for src.
//
// Rules, first match wins: packed consumer layouts are Native; one-byte
// samples are Native whatever stacked says; native wide-sample layouts are
// Native; stacked doubles the height; otherwise the width is multiplied by
// the sample byte width. Frame count and rate pass through unchanged.
func Resolve(src Source, consumer format.ConsumerID, stacked bool) (PackingMode, FrameGeometry) {
	g := FrameGeometry{
		Width:     src.Width,
		Height:    src.Height,
		NumFrames: src.NumFrames,
		FPSNum:    src.FPSNum,
		FPSDen:    src.FPSDen,
		Format:    consumer,
	}

	bytes := src.Format.BytesPerSample
	switch {
	case consumer.IsPacked(), src.Format.Packed:
		return Native, g
	case bytes <= 1:
		return Native, g
	case consumer.IsNative():
		return Native, g
	case stacked:
		g.Height = src.Height * 2
		return Stacked, g
	default:
		g.Width = src.Width * bytes
		return DoubledWidth, g
	}
}

// Planes returns the per-plane copy geometry of a consumer frame.
func Planes(g FrameGeometry) []PlaneGeometry {
	info := g.Format.Info()
	if info.Packed {
		return []PlaneGeometry{{
			RowBytes:    g.Width * info.PixelBytes,
			Height:      g.Height,
			SampleBytes: info.PixelBytes,
			BottomUp:    info.BottomUp,
		}}
	}

	planes := make([]PlaneGeometry, info.NumPlanes)
	for p := range planes {
		w, h := g.Width, g.Height
		if p > 0 {
			w >>= info.SubSamplingW
			h >>= info.SubSamplingH
		}
		planes[p] = PlaneGeometry{
			RowBytes:    w * info.SampleBytes,
			Height:      h,
			SampleBytes: info.SampleBytes,
			BottomUp:    info.BottomUp,
		}
	}
	return planes
}

// SourcePlanes returns the per-plane geometry of a producer frame.
func SourcePlanes(src Source) []PlaneGeometry {
	d := src.Format
	if d.Packed {
		return []PlaneGeometry{{
			RowBytes:    src.Width * d.BytesPerSample,
			Height:      src.Height,
			SampleBytes: d.BytesPerSample,
		}}
	}

	planes := make([]PlaneGeometry, d.NumPlanes)
	for p := range planes {
		planes[p] = PlaneGeometry{
			RowBytes:    d.PlaneWidth(p, src.Width) * d.BytesPerSample,
			Height:      d.PlaneHeight(p, src.Height),
			SampleBytes: d.BytesPerSample,
		}
	}
	return planes
}

// CheckSubsampling reports whether width and height are multiples of the
// chroma subsampling of d. Plane math assumes they are.
func CheckSubsampling(d format.Descriptor, width, height int) error {
	if d.Family != format.FamilyYUV && d.ID != format.CompatYUY2 {
		return nil
	}
	mw, mh := 1<<d.SubSamplingW, 1<<d.SubSamplingH
	if width%mw != 0 || height%mh != 0 {
		return fmt.Errorf("frame size %dx%d is not a multiple of %dx%d for %s",
			width, height, mw, mh, d.Name)
	}
	return nil
}
