// Package transcode copies producer planes into consumer buffers.
//
// Three strategies exist: a plain planar blit, a stacked split of 16-bit
// planes into MSB and LSB half-planes, and reassembly of planar RGB into
// packed bottom-up BGR. All are pure functions of their source and
// destination planes, so one Kind can serve any number of frames and
// sessions at once.
package transcode

import (
	"errors"
	"fmt"

	"github.com/opd-ai/vsbridge/format"
	"github.com/opd-ai/vsbridge/geometry"
)

var (
	// ErrPlaneCount indicates fewer source planes than the strategy reads.
	ErrPlaneCount = errors.New("not enough source planes")

	// ErrShortPlane indicates a plane buffer smaller than its geometry.
	ErrShortPlane = errors.New("plane buffer too small")
)

// Kind selects one of the transcoding strategies.
type Kind int

const (
	// Blit copies every plane row by row. It covers Native and DoubledWidth.
	Blit Kind = iota
	// Stack splits 16-bit planes into MSB (top) and LSB (bottom) half-planes.
	Stack
	// PackBGR interleaves R, G, B planes into one bottom-up BGR plane.
	PackBGR
)

// String returns the strategy name.
func (k Kind) String() string {
	switch k {
	case Blit:
		return "blit"
	case Stack:
		return "stack"
	case PackBGR:
		return "pack-bgr"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Select picks the strategy for a consumer layout and packing mode.
func Select(consumer format.ConsumerID, mode geometry.PackingMode) Kind {
	switch {
	case consumer == format.BGR24:
		return PackBGR
	case mode == geometry.Stacked:
		return Stack
	default:
		return Blit
	}
}

// Transcode writes one producer frame into dst.
func (k Kind) Transcode(src []Plane, dst *Buffer) error {
	switch k {
	case Blit:
		return blit(src, dst)
	case Stack:
		return stack(src, dst)
	case PackBGR:
		return packBGR(src, dst)
	default:
		return fmt.Errorf("unknown transcoder %d", int(k))
	}
}

func checkSource(src []Plane, p, rowBytes, height int) error {
	if p >= len(src) {
		return fmt.Errorf("%w: need plane %d, have %d", ErrPlaneCount, p, len(src))
	}
	if height == 0 {
		return nil
	}
	need := (height-1)*src[p].Stride + rowBytes
	if src[p].Stride < rowBytes || len(src[p].Data) < need {
		return fmt.Errorf("%w: source plane %d has %d bytes (stride %d), need %d",
			ErrShortPlane, p, len(src[p].Data), src[p].Stride, need)
	}
	return nil
}

func checkDest(dst *Buffer, p int) error {
	pl := &dst.Planes[p]
	if pl.Height == 0 {
		return nil
	}
	need := (pl.Height-1)*pl.Stride + pl.RowBytes
	if pl.Stride < pl.RowBytes || len(pl.Data) < need {
		return fmt.Errorf("%w: destination plane %d has %d bytes, need %d",
			ErrShortPlane, p, len(pl.Data), need)
	}
	return nil
}

// blit copies each plane rectangle. Bottom-up destination planes take the
// source rows in reverse storage order; the bytes themselves are unchanged.
func blit(src []Plane, dst *Buffer) error {
	for p := range dst.Planes {
		pl := &dst.Planes[p]
		if err := checkSource(src, p, pl.RowBytes, pl.Height); err != nil {
			return err
		}
		if err := checkDest(dst, p); err != nil {
			return err
		}
		s := src[p]
		for y := 0; y < pl.Height; y++ {
			copy(dst.Row(p, y), s.Data[y*s.Stride:y*s.Stride+pl.RowBytes])
		}
	}
	return nil
}

// stack writes the MSB half-plane over the top half of each destination
// plane and the LSB half-plane over the bottom half.
func stack(src []Plane, dst *Buffer) error {
	for p := range dst.Planes {
		pl := &dst.Planes[p]
		height := pl.Height / 2
		samples := pl.RowBytes
		if err := checkSource(src, p, 2*samples, height); err != nil {
			return err
		}
		if err := checkDest(dst, p); err != nil {
			return err
		}
		s := src[p]
		for y := 0; y < height; y++ {
			row := s.Data[y*s.Stride : y*s.Stride+2*samples]
			StackRow(pl.Stored(y), pl.Stored(height+y), row)
		}
	}
	return nil
}

// packBGR reads planes R, G, B (0, 1, 2) and writes [B, G, R] triplets.
// The destination stores scanlines bottom-up, so source row y lands on the
// stored row height-1-y.
func packBGR(src []Plane, dst *Buffer) error {
	if len(dst.Planes) != 1 {
		return fmt.Errorf("%w: packed destination has %d planes", ErrPlaneCount, len(dst.Planes))
	}
	width := dst.Geometry.Width
	height := dst.Geometry.Height
	for p := 0; p < 3; p++ {
		if err := checkSource(src, p, width, height); err != nil {
			return err
		}
	}
	if err := checkDest(dst, 0); err != nil {
		return err
	}

	r, g, b := src[0], src[1], src[2]
	for y := 0; y < height; y++ {
		out := dst.Row(0, y)
		rr := r.Data[y*r.Stride:]
		gg := g.Data[y*g.Stride:]
		bb := b.Data[y*b.Stride:]
		for x := 0; x < width; x++ {
			out[3*x] = bb[x]
			out[3*x+1] = gg[x]
			out[3*x+2] = rr[x]
		}
	}
	return nil
}
