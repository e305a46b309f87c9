package transcode

import (
	"encoding/binary"

	"golang.org/x/sys/cpu"
)

const (
	lowBytes = 0x00FF00FF00FF00FF
)

// laneSamples is the number of 16-bit samples handled per lane: 16 where
// the target has 128-bit vectors, 8 otherwise.
var laneSamples = detectLaneSamples()

func detectLaneSamples() int {
	if cpu.X86.HasSSE2 || cpu.ARM64.HasASIMD {
		return 16
	}
	return 8
}

// LaneSamples reports the lane width used by StackRow on this machine.
func LaneSamples() int {
	return laneSamples
}

// StackRow splits little-endian 16-bit samples in src into their most
// significant bytes (msb) and least significant bytes (lsb). len(msb) and
// len(lsb) give the sample count; src must hold twice as many bytes.
func StackRow(msb, lsb, src []byte) {
	stackRowLanes(msb, lsb, src, laneSamples)
}

func stackRowLanes(msb, lsb, src []byte, lane int) {
	n := len(msb)
	full := n - n%lane
	for x := 0; x < full; x += lane {
		stackLane(msb[x:x+lane], lsb[x:x+lane], src[2*x:2*(x+lane)])
	}
	stackRowScalar(msb[full:n], lsb[full:n], src[2*full:2*n])
}

// stackLane packs one lane four samples at a time: each 64-bit word holds
// four samples, masking keeps the low bytes, shifting exposes the high bytes,
// and pack4 narrows the four 16-bit lanes to bytes.
func stackLane(msb, lsb, src []byte) {
	for i := 0; i < len(msb); i += 4 {
		w := binary.LittleEndian.Uint64(src[2*i:])
		binary.LittleEndian.PutUint32(lsb[i:], pack4(w&lowBytes))
		binary.LittleEndian.PutUint32(msb[i:], pack4((w>>8)&lowBytes))
	}
}

// pack4 narrows four 16-bit lanes whose values fit in a byte.
func pack4(v uint64) uint32 {
	v = (v | v>>8) & 0x0000FFFF0000FFFF
	v = (v | v>>16) & 0x00000000FFFFFFFF
	return uint32(v)
}

func stackRowScalar(msb, lsb, src []byte) {
	for i := range msb {
		lsb[i] = src[2*i]
		msb[i] = src[2*i+1]
	}
}

// UnstackRow rebuilds little-endian 16-bit samples from their byte halves.
func UnstackRow(dst, msb, lsb []byte) {
	for i := range msb {
		dst[2*i] = lsb[i]
		dst[2*i+1] = msb[i]
	}
}
