// Package framedump writes converted consumer frames to a compressed raw
// stream and reads them back.
//
// A dump is one zstd stream. It starts with a fixed header (the magic
// "VSBD", a format version and the consumer geometry), followed by one
// record per frame: the frame index, then every plane's rows in storage
// order without stride padding. The geometry in the header is enough to
// rebuild the plane layout when reading.
package framedump

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vsbridge/format"
	"github.com/opd-ai/vsbridge/geometry"
	"github.com/opd-ai/vsbridge/transcode"
)

// Magic opens every dump.
const Magic = "VSBD"

// Version is the current dump layout version.
const Version uint16 = 1

// headerSize is magic, version, consumer id and five uint32 geometry fields.
const headerSize = 4 + 2 + 2 + 5*4

var (
	// ErrBadMagic indicates a stream that is not a frame dump.
	ErrBadMagic = errors.New("not a frame dump")

	// ErrVersion indicates a dump layout this package cannot read.
	ErrVersion = errors.New("unsupported dump version")

	// ErrGeometry indicates a frame whose geometry differs from the header.
	ErrGeometry = errors.New("frame geometry does not match dump")

	// ErrTruncated indicates a dump that ends inside a frame record.
	ErrTruncated = errors.New("truncated frame record")
)

func encodeHeader(g geometry.FrameGeometry) []byte {
	hdr := make([]byte, headerSize)
	copy(hdr, Magic)
	binary.LittleEndian.PutUint16(hdr[4:], Version)
	binary.LittleEndian.PutUint16(hdr[6:], uint16(g.Format))
	binary.LittleEndian.PutUint32(hdr[8:], uint32(g.Width))
	binary.LittleEndian.PutUint32(hdr[12:], uint32(g.Height))
	binary.LittleEndian.PutUint32(hdr[16:], uint32(g.NumFrames))
	binary.LittleEndian.PutUint32(hdr[20:], g.FPSNum)
	binary.LittleEndian.PutUint32(hdr[24:], g.FPSDen)
	return hdr
}

func decodeHeader(hdr []byte) (geometry.FrameGeometry, error) {
	if string(hdr[:4]) != Magic {
		return geometry.FrameGeometry{}, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint16(hdr[4:]); v != Version {
		return geometry.FrameGeometry{}, fmt.Errorf("%w: %d", ErrVersion, v)
	}
	g := geometry.FrameGeometry{
		Format:    format.ConsumerID(binary.LittleEndian.Uint16(hdr[6:])),
		Width:     int(binary.LittleEndian.Uint32(hdr[8:])),
		Height:    int(binary.LittleEndian.Uint32(hdr[12:])),
		NumFrames: int(binary.LittleEndian.Uint32(hdr[16:])),
		FPSNum:    binary.LittleEndian.Uint32(hdr[20:]),
		FPSDen:    binary.LittleEndian.Uint32(hdr[24:]),
	}
	if g.Format == format.Unsupported || g.Format.Info().NumPlanes == 0 {
		return geometry.FrameGeometry{}, fmt.Errorf("%w: consumer format %d", ErrBadMagic, g.Format)
	}
	return g, nil
}

// Writer appends frames to a dump.
type Writer struct {
	enc      *zstd.Encoder
	geometry geometry.FrameGeometry
	frames   int
	written  int64
}

// NewWriter writes the dump header for g to w. level is a zstd level
// (1 fastest, 22 smallest); zero selects the library default.
func NewWriter(w io.Writer, g geometry.FrameGeometry, level int) (*Writer, error) {
	opts := []zstd.EOption{zstd.WithEncoderConcurrency(1)}
	if level != 0 {
		opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	}
	enc, err := zstd.NewWriter(w, opts...)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	dw := &Writer{enc: enc, geometry: g}
	if err := dw.write(encodeHeader(g)); err != nil {
		enc.Close()
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":   "NewWriter",
		"format":     g.Format.String(),
		"width":      g.Width,
		"height":     g.Height,
		"num_frames": g.NumFrames,
		"level":      level,
	}).Debug("Frame dump started")

	return dw, nil
}

func (w *Writer) write(p []byte) error {
	n, err := w.enc.Write(p)
	w.written += int64(n)
	if err != nil {
		return fmt.Errorf("write dump: %w", err)
	}
	return nil
}

// WriteFrame appends frame n. The buffer must have the dump's geometry.
func (w *Writer) WriteFrame(n int, buf *transcode.Buffer) error {
	if buf.Geometry != w.geometry {
		return fmt.Errorf("%w: frame %d", ErrGeometry, n)
	}

	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], uint32(n))
	if err := w.write(idx[:]); err != nil {
		return err
	}
	for p := range buf.Planes {
		pl := &buf.Planes[p]
		for s := 0; s < pl.Height; s++ {
			if err := w.write(pl.Stored(s)); err != nil {
				return err
			}
		}
	}
	w.frames++
	return nil
}

// Frames returns the number of frames written.
func (w *Writer) Frames() int { return w.frames }

// Close flushes the compressed stream. It does not close the underlying writer.
func (w *Writer) Close() error {
	err := w.enc.Close()

	logrus.WithFields(logrus.Fields{
		"function":      "Writer.Close",
		"frames":        w.frames,
		"payload_bytes": w.written,
	}).Info("Frame dump finished")

	if err != nil {
		return fmt.Errorf("flush dump: %w", err)
	}
	return nil
}

// Reader reads frames back from a dump.
type Reader struct {
	dec      *zstd.Decoder
	geometry geometry.FrameGeometry
}

// NewReader reads the dump header from r.
func NewReader(r io.Reader) (*Reader, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	hdr := make([]byte, headerSize)
	if _, err := io.ReadFull(dec, hdr); err != nil {
		dec.Close()
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrBadMagic
		}
		return nil, fmt.Errorf("read dump header: %w", err)
	}
	g, err := decodeHeader(hdr)
	if err != nil {
		dec.Close()
		return nil, err
	}
	return &Reader{dec: dec, geometry: g}, nil
}

// Geometry returns the consumer geometry recorded in the header.
func (r *Reader) Geometry() geometry.FrameGeometry { return r.geometry }

// Next returns the next frame and its index. It returns io.EOF after the
// last frame.
func (r *Reader) Next() (int, *transcode.Buffer, error) {
	var idx [4]byte
	if _, err := io.ReadFull(r.dec, idx[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil, io.EOF
		}
		return 0, nil, fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	n := int(binary.LittleEndian.Uint32(idx[:]))

	buf := transcode.NewBuffer(r.geometry)
	for p := range buf.Planes {
		pl := &buf.Planes[p]
		for s := 0; s < pl.Height; s++ {
			if _, err := io.ReadFull(r.dec, pl.Stored(s)); err != nil {
				return 0, nil, fmt.Errorf("%w: frame %d: %w", ErrTruncated, n, err)
			}
		}
	}
	return n, buf, nil
}

// Close releases the decoder.
func (r *Reader) Close() {
	r.dec.Close()
}
