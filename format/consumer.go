package format

// ConsumerID identifies one of the fixed buffer layouts the host accepts.
type ConsumerID int

const (
	// Unsupported means no consumer layout can represent the producer format.
	Unsupported ConsumerID = iota

	Y8
	I420
	YV16
	YV24
	YV411

	BGR24
	BGR32
	YUY2

	// Native wide-sample layouts, only offered when the host supports them.
	// The planar ones carry a Consumer prefix where a producer format has
	// the same name.
	Y16
	ConsumerYUV420P16
	ConsumerYUV422P16
	ConsumerYUV444P16
	Y32
	ConsumerYUV444PS
)

// ConsumerInfo describes the storage layout of a consumer format.
type ConsumerInfo struct {
	ID   ConsumerID
	Name string
	// NumPlanes is 1 for grayscale and packed layouts, 3 for planar YUV.
	NumPlanes int
	// SampleBytes is the width of one planar sample.
	SampleBytes int
	// PixelBytes is the width of one packed pixel; zero for planar layouts.
	PixelBytes   int
	SubSamplingW int
	SubSamplingH int
	Packed       bool
	// BottomUp layouts store the last displayed row first.
	BottomUp bool
	// Native layouts understand samples wider than one byte directly.
	Native bool
	Float  bool
}

var consumers = map[ConsumerID]ConsumerInfo{
	Unsupported: {ID: Unsupported, Name: "Unsupported"},

	Y8:    {ID: Y8, Name: "Y8", NumPlanes: 1, SampleBytes: 1},
	I420:  {ID: I420, Name: "I420", NumPlanes: 3, SampleBytes: 1, SubSamplingW: 1, SubSamplingH: 1},
	YV16:  {ID: YV16, Name: "YV16", NumPlanes: 3, SampleBytes: 1, SubSamplingW: 1},
	YV24:  {ID: YV24, Name: "YV24", NumPlanes: 3, SampleBytes: 1},
	YV411: {ID: YV411, Name: "YV411", NumPlanes: 3, SampleBytes: 1, SubSamplingW: 2},

	BGR24: {ID: BGR24, Name: "BGR24", NumPlanes: 1, SampleBytes: 1, PixelBytes: 3, Packed: true, BottomUp: true},
	BGR32: {ID: BGR32, Name: "BGR32", NumPlanes: 1, SampleBytes: 1, PixelBytes: 4, Packed: true, BottomUp: true},
	YUY2:  {ID: YUY2, Name: "YUY2", NumPlanes: 1, SampleBytes: 1, PixelBytes: 2, Packed: true},

	Y16:               {ID: Y16, Name: "Y16", NumPlanes: 1, SampleBytes: 2, Native: true},
	ConsumerYUV420P16: {ID: ConsumerYUV420P16, Name: "YUV420P16", NumPlanes: 3, SampleBytes: 2, SubSamplingW: 1, SubSamplingH: 1, Native: true},
	ConsumerYUV422P16: {ID: ConsumerYUV422P16, Name: "YUV422P16", NumPlanes: 3, SampleBytes: 2, SubSamplingW: 1, Native: true},
	ConsumerYUV444P16: {ID: ConsumerYUV444P16, Name: "YUV444P16", NumPlanes: 3, SampleBytes: 2, Native: true},
	Y32:               {ID: Y32, Name: "Y32", NumPlanes: 1, SampleBytes: 4, Native: true, Float: true},
	ConsumerYUV444PS:  {ID: ConsumerYUV444PS, Name: "YUV444PS", NumPlanes: 3, SampleBytes: 4, Native: true, Float: true},
}

// Info returns the layout of the consumer format. Unknown ids report the
// Unsupported layout.
func (c ConsumerID) Info() ConsumerInfo {
	if info, ok := consumers[c]; ok {
		return info
	}
	return consumers[Unsupported]
}

// String returns the consumer format name.
func (c ConsumerID) String() string {
	return c.Info().Name
}

// IsNative reports whether c is a wide-sample layout the host understands directly.
func (c ConsumerID) IsNative() bool {
	return c.Info().Native
}

// IsPacked reports whether c stores all components interleaved in one plane.
func (c ConsumerID) IsPacked() bool {
	return c.Info().Packed
}
