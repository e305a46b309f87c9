package transcode

import (
	"github.com/opd-ai/vsbridge/geometry"
	"github.com/opd-ai/vsbridge/limits"
)

// Plane is a read view of one producer plane.
type Plane struct {
	Data   []byte
	Stride int
}

// DestPlane is one plane of a consumer buffer.
//
// Rows are addressed in storage order by Stored and in display order by
// Buffer.Row; the two differ only for bottom-up planes.
type DestPlane struct {
	Data     []byte
	Stride   int
	RowBytes int
	Height   int
	BottomUp bool
}

// Stored returns storage row s without stride padding.
func (p *DestPlane) Stored(s int) []byte {
	off := s * p.Stride
	return p.Data[off : off+p.RowBytes]
}

// Buffer is one consumer frame. It is owned by the caller once returned.
type Buffer struct {
	Geometry geometry.FrameGeometry
	Planes   []DestPlane
}

// NewBuffer allocates a consumer frame for g with every row pitch aligned
// to limits.FrameAlign.
func NewBuffer(g geometry.FrameGeometry) *Buffer {
	layout := geometry.Planes(g)
	b := &Buffer{
		Geometry: g,
		Planes:   make([]DestPlane, len(layout)),
	}
	for i, pg := range layout {
		stride := limits.AlignStride(pg.RowBytes)
		b.Planes[i] = DestPlane{
			Data:     make([]byte, stride*pg.Height),
			Stride:   stride,
			RowBytes: pg.RowBytes,
			Height:   pg.Height,
			BottomUp: pg.BottomUp,
		}
	}
	return b
}

// Row returns displayed row y of plane p, top row first.
func (b *Buffer) Row(p, y int) []byte {
	pl := &b.Planes[p]
	if pl.BottomUp {
		return pl.Stored(pl.Height - 1 - y)
	}
	return pl.Stored(y)
}

// Bytes returns the frame payload without stride padding: every plane's rows
// in storage order, planes concatenated.
func (b *Buffer) Bytes() []byte {
	n := 0
	for i := range b.Planes {
		n += b.Planes[i].RowBytes * b.Planes[i].Height
	}
	out := make([]byte, 0, n)
	for i := range b.Planes {
		pl := &b.Planes[i]
		for s := 0; s < pl.Height; s++ {
			out = append(out, pl.Stored(s)...)
		}
	}
	return out
}
