package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/vsbridge/format"
)

func source(t *testing.T, id format.ProducerID, w, h int) Source {
	t.Helper()
	d, ok := format.Lookup(id)
	require.True(t, ok)
	return Source{Format: d, Width: w, Height: h, NumFrames: 10, FPSNum: 30000, FPSDen: 1001}
}

func TestResolve_Rules(t *testing.T) {
	tests := []struct {
		name       string
		id         format.ProducerID
		native     bool
		stacked    bool
		wantMode   PackingMode
		wantWidth  int
		wantHeight int
	}{
		{"8-bit ignores stacked", format.YUV420P8, false, true, Native, 64, 32},
		{"8-bit native host", format.YUV444P8, true, false, Native, 64, 32},
		{"wide on native host", format.YUV420P10, true, true, Native, 64, 32},
		{"wide stacked", format.YUV444P10, false, true, Stacked, 64, 64},
		{"wide doubled", format.YUV422P16, false, false, DoubledWidth, 128, 32},
		{"gray16 doubled", format.Gray16, false, false, DoubledWidth, 128, 32},
		{"rgb24 always native", format.RGB24, false, true, Native, 64, 32},
		{"bgr32 compat native", format.CompatBGR32, false, true, Native, 64, 32},
		{"yuy2 compat native", format.CompatYUY2, false, true, Native, 64, 32},
		{"float native host", format.YUV444PS, true, true, Native, 64, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := source(t, tt.id, 64, 32)
			consumer := format.Map(tt.id, tt.native)
			require.NotEqual(t, format.Unsupported, consumer)

			mode, g := Resolve(src, consumer, tt.stacked)
			assert.Equal(t, tt.wantMode, mode)
			assert.Equal(t, tt.wantWidth, g.Width)
			assert.Equal(t, tt.wantHeight, g.Height)
			assert.Equal(t, src.NumFrames, g.NumFrames)
			assert.Equal(t, uint32(30000), g.FPSNum)
			assert.Equal(t, uint32(1001), g.FPSDen)
			assert.Equal(t, consumer, g.Format)
		})
	}
}

// Native and doubled-width planes carry every source row byte for byte; a
// stacked plane has twice the rows and one byte per source sample.
func TestPlanes_RoundTripProperties(t *testing.T) {
	for _, id := range format.Known() {
		for _, native := range []bool{false, true} {
			for _, stacked := range []bool{false, true} {
				consumer := format.Map(id, native)
				if consumer == format.Unsupported {
					continue
				}
				src := source(t, id, 64, 32)
				mode, g := Resolve(src, consumer, stacked)
				dst := Planes(g)
				srcPlanes := SourcePlanes(src)
				if id == format.RGB24 {
					// Three planes reassembled into one packed plane.
					require.Len(t, dst, 1)
					assert.Equal(t, src.Width*3, dst[0].RowBytes)
					assert.Equal(t, src.Height, dst[0].Height)
					continue
				}
				require.Len(t, dst, len(srcPlanes), "%s", id)

				bytes := src.Format.BytesPerSample
				for p := range dst {
					sp, dp := srcPlanes[p], dst[p]
					pixels := sp.RowBytes / bytes
					switch mode {
					case Stacked:
						assert.Equal(t, 2*sp.Height, dp.Height, "%s plane %d", id, p)
						assert.Equal(t, sp.RowBytes/bytes, dp.RowBytes, "%s plane %d", id, p)
					default:
						assert.Equal(t, sp.Height, dp.Height, "%s plane %d", id, p)
						assert.Equal(t, pixels, dp.RowBytes/bytes, "%s plane %d", id, p)
					}
				}
			}
		}
	}
}

func TestPlanes_PackedOrientation(t *testing.T) {
	g := FrameGeometry{Width: 8, Height: 4, Format: format.BGR32}
	planes := Planes(g)
	require.Len(t, planes, 1)
	assert.True(t, planes[0].BottomUp)
	assert.Equal(t, 32, planes[0].RowBytes)

	g.Format = format.YUY2
	planes = Planes(g)
	assert.False(t, planes[0].BottomUp)
	assert.Equal(t, 16, planes[0].RowBytes)
}

func TestCheckSubsampling(t *testing.T) {
	d, _ := format.Lookup(format.YUV420P8)
	assert.NoError(t, CheckSubsampling(d, 64, 64))
	assert.Error(t, CheckSubsampling(d, 63, 64))
	assert.Error(t, CheckSubsampling(d, 64, 33))

	d411, _ := format.Lookup(format.YUV411P8)
	assert.Error(t, CheckSubsampling(d411, 66, 3))
	assert.NoError(t, CheckSubsampling(d411, 68, 3))

	gray, _ := format.Lookup(format.Gray16)
	assert.NoError(t, CheckSubsampling(gray, 3, 3))

	yuy2, _ := format.Lookup(format.CompatYUY2)
	assert.Error(t, CheckSubsampling(yuy2, 3, 2))
}

func TestPackingMode_String(t *testing.T) {
	assert.Equal(t, "stacked", Stacked.String())
	assert.Equal(t, "doubled-width", DoubledWidth.String())
	assert.Equal(t, "native", Native.String())
	assert.Equal(t, "PackingMode(9)", PackingMode(9).String())
}
