package zstd

import "math/bits"

var frameMagic = [4]byte{0x28, 0xb5, 0x2f, 0xfd}

// legacyFrameMagic is the v0.7 magic number; seeing it produces a
// specific diagnostic rather than a generic mismatch.
var legacyFrameMagic = [4]byte{0x27, 0xb5, 0x2f, 0xfd}

type frameHeader struct {
	windowSize     uint64
	contentSize    uint64
	hasContentSize bool
	hasChecksum    bool
	singleSegment  bool
}

// decodeFrameHeader parses the frame header at the start of in,
// returning the parsed header and the number of bytes it occupies
// (including the magic number).
func decodeFrameHeader(in []byte) (frameHeader, int, error) {
	var fh frameHeader
	if len(in) < 5 {
		return fh, 0, malformed(0, "frame too short to contain a header", nil)
	}
	switch {
	case in[0] == frameMagic[0] && in[1] == frameMagic[1] && in[2] == frameMagic[2] && in[3] == frameMagic[3]:
		// fall through
	case in[0] == legacyFrameMagic[0] && in[1] == legacyFrameMagic[1] && in[2] == legacyFrameMagic[2] && in[3] == legacyFrameMagic[3]:
		return fh, 0, malformed(0, "v0.7 frame not supported", ErrLegacyFrame)
	default:
		return fh, 0, malformed(0, "magic number mismatch", ErrMagicMismatch)
	}

	off := 4
	fhd := in[off]
	off++

	contentSizeFlag := fhd >> 6
	fh.singleSegment = fhd&(1<<5) != 0
	fh.hasChecksum = fhd&(1<<2) != 0
	dictIDFlag := fhd & 3

	if !fh.singleSegment {
		if off >= len(in) {
			return fh, 0, malformed(int64(off), "truncated window descriptor", nil)
		}
		wd := in[off]
		off++
		exponent := wd >> 3
		mantissa := wd & 7
		base := uint64(1) << (10 + exponent)
		fh.windowSize = base + (base/8)*uint64(mantissa)
	}

	var dictIDLen int
	switch dictIDFlag {
	case 0:
		dictIDLen = 0
	case 1:
		dictIDLen = 1
	case 2:
		dictIDLen = 2
	case 3:
		dictIDLen = 4
	}
	if dictIDLen > 0 {
		if off+dictIDLen > len(in) {
			return fh, 0, malformed(int64(off), "truncated dictionary id", nil)
		}
		var id uint32
		for i := 0; i < dictIDLen; i++ {
			id |= uint32(in[off+i]) << (8 * i)
		}
		off += dictIDLen
		if id != 0 {
			return fh, 0, malformed(int64(off), "custom dictionaries not supported", ErrUnsupportedDictionary)
		}
	}

	var fcsFieldSize int
	switch contentSizeFlag {
	case 0:
		if fh.singleSegment {
			fcsFieldSize = 1
		}
	case 1:
		fcsFieldSize = 2
	case 2:
		fcsFieldSize = 4
	case 3:
		fcsFieldSize = 8
	}
	if fcsFieldSize > 0 {
		if off+fcsFieldSize > len(in) {
			return fh, 0, malformed(int64(off), "truncated content size", nil)
		}
		var v uint64
		for i := 0; i < fcsFieldSize; i++ {
			v |= uint64(in[off+i]) << (8 * i)
		}
		off += fcsFieldSize
		if fcsFieldSize == 2 {
			v += 256
		}
		fh.contentSize = v
		fh.hasContentSize = true
		if fh.singleSegment {
			fh.windowSize = v
		}
	}

	if fh.windowSize > MaxWindowSize {
		return fh, 0, malformed(int64(off), "window size exceeds configured limit", ErrWindowSizeExceeded)
	}

	return fh, off, nil
}

// appendFrameHeader writes the magic number and frame header
// describing contentSize to dst, never a dictionary. windowSize is
// only used to choose the window descriptor when the content isn't
// small enough to use the single-segment form.
func appendFrameHeader(dst []byte, contentSize uint64, knownSize bool, windowSize uint64, checksum bool) ([]byte, error) {
	dst = append(dst, frameMagic[:]...)

	singleSegment := knownSize && contentSize <= windowSize

	var fhd byte
	var fcsFieldSize int
	switch {
	case !knownSize:
		fcsFieldSize = 0
	case contentSize < 256 && !singleSegment:
		fcsFieldSize = 0
	case contentSize < 256:
		fhd |= 0 << 6
		fcsFieldSize = 1
	case contentSize < 65536+256:
		fhd |= 1 << 6
		fcsFieldSize = 2
	case contentSize <= 0xFFFFFFFF:
		fhd |= 2 << 6
		fcsFieldSize = 4
	default:
		fhd |= 3 << 6
		fcsFieldSize = 8
	}
	if checksum {
		fhd |= 1 << 2
	}
	if singleSegment {
		fhd |= 1 << 5
	}
	dst = append(dst, fhd)

	if !singleSegment {
		if windowSize < 1<<MinWindowLog {
			return nil, callerErr("window size below the minimum window log", ErrWindowSizeTooSmall)
		}
		exponent := uint8(bits.Len64(windowSize-1)) - MinWindowLog
		base := uint64(1) << (10 + exponent)
		if windowSize < base {
			return nil, callerErr("window size not representable", ErrWindowSizeTooSmall)
		}
		rem := windowSize - base
		step := base / 8
		if step == 0 || rem%step != 0 {
			return nil, callerErr("window size not expressible as base + mantissa*(base/8)", ErrWindowSizeTooSmall)
		}
		mantissa := rem / step
		if mantissa > 7 {
			return nil, callerErr("window size not expressible as base + mantissa*(base/8)", ErrWindowSizeTooSmall)
		}
		dst = append(dst, exponent<<3|uint8(mantissa))
	}

	if fcsFieldSize > 0 {
		v := contentSize
		if fcsFieldSize == 2 {
			v -= 256
		}
		for i := 0; i < fcsFieldSize; i++ {
			dst = append(dst, byte(v>>(8*i)))
		}
	}

	return dst, nil
}
