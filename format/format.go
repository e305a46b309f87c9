// Package format describes the pixel formats on both sides of the bridge.
//
// Producer formats follow the extensible taxonomy of the scripted frame
// pipeline: a colour family, a sample type, a bit depth and a chroma
// subsampling factor per format. Consumer formats are the small fixed set of
// buffer layouts the host pipeline accepts. The Format Table (Map) connects
// the two.
package format

import "fmt"

// ColorFamily groups producer formats by how their planes are interpreted.
type ColorFamily int

const (
	// FamilyGray is a single luma plane.
	FamilyGray ColorFamily = iota + 1
	// FamilyYUV is a luma plane followed by two chroma planes.
	FamilyYUV
	// FamilyRGB is three planes in R, G, B order.
	FamilyRGB
	// FamilyCompat is a single packed plane laid out for legacy consumers.
	FamilyCompat
)

// String returns the family name.
func (f ColorFamily) String() string {
	switch f {
	case FamilyGray:
		return "Gray"
	case FamilyYUV:
		return "YUV"
	case FamilyRGB:
		return "RGB"
	case FamilyCompat:
		return "Compat"
	default:
		return "Unknown"
	}
}

// SampleType distinguishes integer from floating point samples.
type SampleType int

const (
	// SampleInteger samples are unsigned integers, little-endian when wider than a byte.
	SampleInteger SampleType = iota
	// SampleFloat samples are IEEE half or single precision floats.
	SampleFloat
)

// ProducerID identifies a producer pixel format.
type ProducerID int

// Producer format identifiers. The zero value is not a valid format.
const (
	ProducerNone ProducerID = iota

	Gray8
	Gray16
	GrayH
	GrayS

	YUV420P8
	YUV422P8
	YUV444P8
	YUV410P8
	YUV411P8
	YUV440P8

	YUV420P9
	YUV422P9
	YUV444P9

	YUV420P10
	YUV422P10
	YUV444P10

	YUV420P16
	YUV422P16
	YUV444P16

	YUV444PH
	YUV444PS

	RGB24
	RGB27
	RGB30
	RGB48
	RGBH
	RGBS

	CompatBGR32
	CompatYUY2
)

// ChromaClass is the chroma subsampling class of a format.
type ChromaClass int

const (
	// ChromaNone applies to grayscale, RGB and packed formats.
	ChromaNone ChromaClass = iota
	Chroma444
	Chroma422
	Chroma420
	Chroma411
	Chroma410
	Chroma440
)

// String returns the conventional J:a:b notation.
func (c ChromaClass) String() string {
	switch c {
	case Chroma444:
		return "4:4:4"
	case Chroma422:
		return "4:2:2"
	case Chroma420:
		return "4:2:0"
	case Chroma411:
		return "4:1:1"
	case Chroma410:
		return "4:1:0"
	case Chroma440:
		return "4:4:0"
	default:
		return "none"
	}
}

// Descriptor is an immutable description of a producer pixel format.
//
// SubSamplingW and SubSamplingH are log2 factors applied to the chroma
// planes: a 4:2:0 format has 1 and 1, a 4:1:1 format has 2 and 0.
type Descriptor struct {
	ID             ProducerID
	Name           string
	Family         ColorFamily
	SampleType     SampleType
	BitsPerSample  int
	BytesPerSample int
	SubSamplingW   int
	SubSamplingH   int
	NumPlanes      int
	Packed         bool
}

// Chroma returns the subsampling class of the descriptor.
func (d Descriptor) Chroma() ChromaClass {
	if d.Family != FamilyYUV {
		return ChromaNone
	}
	switch {
	case d.SubSamplingW == 0 && d.SubSamplingH == 0:
		return Chroma444
	case d.SubSamplingW == 1 && d.SubSamplingH == 0:
		return Chroma422
	case d.SubSamplingW == 1 && d.SubSamplingH == 1:
		return Chroma420
	case d.SubSamplingW == 2 && d.SubSamplingH == 0:
		return Chroma411
	case d.SubSamplingW == 2 && d.SubSamplingH == 2:
		return Chroma410
	case d.SubSamplingW == 0 && d.SubSamplingH == 1:
		return Chroma440
	default:
		return ChromaNone
	}
}

// PlaneWidth returns the width in samples of plane p for a frame of the given luma width.
func (d Descriptor) PlaneWidth(p, width int) int {
	if p == 0 || d.Family != FamilyYUV {
		return width
	}
	return width >> d.SubSamplingW
}

// PlaneHeight returns the height in rows of plane p for a frame of the given luma height.
func (d Descriptor) PlaneHeight(p, height int) int {
	if p == 0 || d.Family != FamilyYUV {
		return height
	}
	return height >> d.SubSamplingH
}

// String returns the format name.
func (d Descriptor) String() string {
	return d.Name
}

func planar(id ProducerID, name string, family ColorFamily, st SampleType, bits, ssw, ssh int) Descriptor {
	bytes := (bits + 7) / 8
	planes := 3
	if family == FamilyGray {
		planes = 1
	}
	return Descriptor{
		ID:             id,
		Name:           name,
		Family:         family,
		SampleType:     st,
		BitsPerSample:  bits,
		BytesPerSample: bytes,
		SubSamplingW:   ssw,
		SubSamplingH:   ssh,
		NumPlanes:      planes,
	}
}

var descriptors = map[ProducerID]Descriptor{
	Gray8:  planar(Gray8, "Gray8", FamilyGray, SampleInteger, 8, 0, 0),
	Gray16: planar(Gray16, "Gray16", FamilyGray, SampleInteger, 16, 0, 0),
	GrayH:  planar(GrayH, "GrayH", FamilyGray, SampleFloat, 16, 0, 0),
	GrayS:  planar(GrayS, "GrayS", FamilyGray, SampleFloat, 32, 0, 0),

	YUV420P8: planar(YUV420P8, "YUV420P8", FamilyYUV, SampleInteger, 8, 1, 1),
	YUV422P8: planar(YUV422P8, "YUV422P8", FamilyYUV, SampleInteger, 8, 1, 0),
	YUV444P8: planar(YUV444P8, "YUV444P8", FamilyYUV, SampleInteger, 8, 0, 0),
	YUV410P8: planar(YUV410P8, "YUV410P8", FamilyYUV, SampleInteger, 8, 2, 2),
	YUV411P8: planar(YUV411P8, "YUV411P8", FamilyYUV, SampleInteger, 8, 2, 0),
	YUV440P8: planar(YUV440P8, "YUV440P8", FamilyYUV, SampleInteger, 8, 0, 1),

	YUV420P9: planar(YUV420P9, "YUV420P9", FamilyYUV, SampleInteger, 9, 1, 1),
	YUV422P9: planar(YUV422P9, "YUV422P9", FamilyYUV, SampleInteger, 9, 1, 0),
	YUV444P9: planar(YUV444P9, "YUV444P9", FamilyYUV, SampleInteger, 9, 0, 0),

	YUV420P10: planar(YUV420P10, "YUV420P10", FamilyYUV, SampleInteger, 10, 1, 1),
	YUV422P10: planar(YUV422P10, "YUV422P10", FamilyYUV, SampleInteger, 10, 1, 0),
	YUV444P10: planar(YUV444P10, "YUV444P10", FamilyYUV, SampleInteger, 10, 0, 0),

	YUV420P16: planar(YUV420P16, "YUV420P16", FamilyYUV, SampleInteger, 16, 1, 1),
	YUV422P16: planar(YUV422P16, "YUV422P16", FamilyYUV, SampleInteger, 16, 1, 0),
	YUV444P16: planar(YUV444P16, "YUV444P16", FamilyYUV, SampleInteger, 16, 0, 0),

	YUV444PH: planar(YUV444PH, "YUV444PH", FamilyYUV, SampleFloat, 16, 0, 0),
	YUV444PS: planar(YUV444PS, "YUV444PS", FamilyYUV, SampleFloat, 32, 0, 0),

	RGB24: planar(RGB24, "RGB24", FamilyRGB, SampleInteger, 8, 0, 0),
	RGB27: planar(RGB27, "RGB27", FamilyRGB, SampleInteger, 9, 0, 0),
	RGB30: planar(RGB30, "RGB30", FamilyRGB, SampleInteger, 10, 0, 0),
	RGB48: planar(RGB48, "RGB48", FamilyRGB, SampleInteger, 16, 0, 0),
	RGBH:  planar(RGBH, "RGBH", FamilyRGB, SampleFloat, 16, 0, 0),
	RGBS:  planar(RGBS, "RGBS", FamilyRGB, SampleFloat, 32, 0, 0),

	CompatBGR32: {
		ID: CompatBGR32, Name: "CompatBGR32", Family: FamilyCompat, SampleType: SampleInteger,
		BitsPerSample: 32, BytesPerSample: 4, NumPlanes: 1, Packed: true,
	},
	CompatYUY2: {
		ID: CompatYUY2, Name: "CompatYUY2", Family: FamilyCompat, SampleType: SampleInteger,
		BitsPerSample: 16, BytesPerSample: 2, SubSamplingW: 1, NumPlanes: 1, Packed: true,
	},
}

var byName = func() map[string]ProducerID {
	m := make(map[string]ProducerID, len(descriptors))
	for id, d := range descriptors {
		m[d.Name] = id
	}
	return m
}()

// Lookup returns the descriptor registered for id.
func Lookup(id ProducerID) (Descriptor, bool) {
	d, ok := descriptors[id]
	return d, ok
}

// LookupName returns the descriptor whose name matches exactly, e.g. "YUV420P10".
func LookupName(name string) (Descriptor, bool) {
	id, ok := byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return descriptors[id], true
}

// Known returns every registered producer id in declaration order.
func Known() []ProducerID {
	ids := make([]ProducerID, 0, len(descriptors))
	for id := Gray8; id <= CompatYUY2; id++ {
		if _, ok := descriptors[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// String returns the registered name of the id.
func (id ProducerID) String() string {
	if d, ok := descriptors[id]; ok {
		return d.Name
	}
	return fmt.Sprintf("ProducerID(%d)", int(id))
}
