package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_KnownFormats(t *testing.T) {
	tests := []struct {
		producer ProducerID
		legacy   ConsumerID
		native   ConsumerID
	}{
		{Gray8, Y8, Y8},
		{Gray16, Y8, Y16},
		{GrayH, Unsupported, Unsupported},
		{GrayS, Unsupported, Y32},
		{YUV420P8, I420, I420},
		{YUV420P9, I420, ConsumerYUV420P16},
		{YUV420P10, I420, ConsumerYUV420P16},
		{YUV420P16, I420, ConsumerYUV420P16},
		{YUV422P8, YV16, YV16},
		{YUV422P9, YV16, ConsumerYUV422P16},
		{YUV422P10, YV16, ConsumerYUV422P16},
		{YUV422P16, YV16, ConsumerYUV422P16},
		{YUV444P8, YV24, YV24},
		{YUV444P9, YV24, ConsumerYUV444P16},
		{YUV444P10, YV24, ConsumerYUV444P16},
		{YUV444P16, YV24, ConsumerYUV444P16},
		{YUV444PH, Unsupported, Unsupported},
		{YUV444PS, Unsupported, ConsumerYUV444PS},
		{YUV410P8, Unsupported, Unsupported},
		{YUV411P8, YV411, YV411},
		{YUV440P8, Unsupported, Unsupported},
		{RGB24, BGR24, BGR24},
		{RGB27, Unsupported, Unsupported},
		{RGB30, Unsupported, Unsupported},
		{RGB48, Unsupported, Unsupported},
		{RGBH, Unsupported, Unsupported},
		{RGBS, Unsupported, Unsupported},
		{CompatBGR32, BGR32, BGR32},
		{CompatYUY2, YUY2, YUY2},
	}

	covered := make(map[ProducerID]bool)
	for _, tt := range tests {
		covered[tt.producer] = true
		t.Run(tt.producer.String(), func(t *testing.T) {
			assert.Equal(t, tt.legacy, Map(tt.producer, false))
			assert.Equal(t, tt.native, Map(tt.producer, true))
			// Deterministic on repeated calls.
			assert.Equal(t, Map(tt.producer, true), Map(tt.producer, true))
		})
	}

	for _, id := range Known() {
		assert.True(t, covered[id], "format %s has no expectation", id)
	}
}

func TestMap_UnknownIDs(t *testing.T) {
	for _, id := range []ProducerID{ProducerNone, -1, 999, CompatYUY2 + 1} {
		assert.Equal(t, Unsupported, Map(id, false))
		assert.Equal(t, Unsupported, Map(id, true))
	}
}

func TestMap_NativeTargetsAreNative(t *testing.T) {
	for _, id := range Known() {
		d, ok := Lookup(id)
		require.True(t, ok)
		legacy := Map(id, false)
		if legacy != Unsupported {
			assert.False(t, legacy.IsNative(), "%s legacy mapping must be 8-bit", id)
			if !legacy.IsPacked() {
				assert.Equal(t, 1, legacy.Info().SampleBytes)
			}
		}
		native := Map(id, true)
		if native.IsNative() {
			assert.Equal(t, d.BytesPerSample, native.Info().SampleBytes, "%s", id)
		}
	}
}

func TestDescriptor_Chroma(t *testing.T) {
	tests := map[ProducerID]ChromaClass{
		YUV420P10:   Chroma420,
		YUV422P8:    Chroma422,
		YUV444P16:   Chroma444,
		YUV411P8:    Chroma411,
		YUV410P8:    Chroma410,
		YUV440P8:    Chroma440,
		Gray16:      ChromaNone,
		RGB24:       ChromaNone,
		CompatYUY2:  ChromaNone,
		CompatBGR32: ChromaNone,
	}
	for id, want := range tests {
		d, ok := Lookup(id)
		require.True(t, ok)
		assert.Equal(t, want, d.Chroma(), "%s", id)
	}
}

func TestDescriptor_PlaneDimensions(t *testing.T) {
	d, ok := LookupName("YUV420P10")
	require.True(t, ok)
	assert.Equal(t, 2, d.BytesPerSample)
	assert.Equal(t, 3, d.NumPlanes)
	assert.Equal(t, 64, d.PlaneWidth(0, 64))
	assert.Equal(t, 32, d.PlaneWidth(1, 64))
	assert.Equal(t, 16, d.PlaneHeight(2, 32))

	rgb, ok := Lookup(RGB24)
	require.True(t, ok)
	assert.Equal(t, 64, rgb.PlaneWidth(2, 64))

	_, ok = LookupName("yuv420p10")
	assert.False(t, ok)
}

func TestDescriptor_SampleBytes(t *testing.T) {
	tests := map[ProducerID]int{
		Gray8:       1,
		YUV420P9:    2,
		YUV444P16:   2,
		GrayH:       2,
		GrayS:       4,
		YUV444PS:    4,
		CompatBGR32: 4,
		CompatYUY2:  2,
	}
	for id, want := range tests {
		d, _ := Lookup(id)
		assert.Equal(t, want, d.BytesPerSample, "%s", id)
	}
}

func TestConsumerID_Info(t *testing.T) {
	assert.True(t, BGR24.Info().BottomUp)
	assert.True(t, BGR32.Info().BottomUp)
	assert.False(t, YUY2.Info().BottomUp)
	assert.Equal(t, 3, BGR24.Info().PixelBytes)
	assert.Equal(t, "Unsupported", ConsumerID(1234).String())
	assert.Equal(t, "I420", I420.String())
}

func TestConsumerID_WideNamesMatchProducers(t *testing.T) {
	tests := map[ConsumerID]ProducerID{
		ConsumerYUV420P16: YUV420P16,
		ConsumerYUV422P16: YUV422P16,
		ConsumerYUV444P16: YUV444P16,
		ConsumerYUV444PS:  YUV444PS,
	}
	for consumer, producer := range tests {
		assert.Equal(t, producer.String(), consumer.String())
		assert.True(t, consumer.IsNative(), "%s", consumer)
		assert.Equal(t, consumer, Map(producer, true))
	}
}
