package zstd

import (
	"github.com/AlvinKuruvilla/frasc/xxhash64"
)

// Encoder compresses input into a single Zstandard frame. An Encoder
// is not safe for concurrent use by multiple goroutines, but a single
// Encoder may be reused across many EncodeAll calls.
type Encoder struct {
	opts encoderOptions
}

// NewEncoder builds an Encoder from the given options.
func NewEncoder(opts ...EOption) (*Encoder, error) {
	e := &Encoder{}
	e.opts.reset()
	e.opts.apply(opts)
	return e, nil
}

// EncodeAll compresses input as one frame, appending the result to
// dst, and returns the extended slice. Blocks are chunked at
// min(MaxBlockSize, the configured window size): a window smaller
// than MaxBlockSize (set via WithEncoderWindow) genuinely shrinks how
// much input each block carries, rather than being silently bumped up
// to MaxBlockSize. The frame header declares the requested window
// size only when the input is larger than it; otherwise the frame is
// single-segment, carries no window descriptor, and its window is the
// content size.
func (e *Encoder) EncodeAll(input []byte, dst []byte) ([]byte, error) {
	blockSize := int(min(uint64(MaxBlockSize), e.opts.windowSize))

	out, err := appendFrameHeader(dst, uint64(len(input)), true, e.opts.windowSize, e.opts.checksum)
	if err != nil {
		return nil, err
	}

	// encoderContext carries the repeated-offsets triple and the
	// per-channel entropy tables the sequence encoder updates as it
	// resolves matches and chooses modes, reset once per frame the same
	// way decoderContext is.
	ctx := takeEncoderContext()
	defer giveEncoderContext(ctx)

	// Every frame needs at least one block, even an empty one, so the
	// loop always runs once: off starts at 0 and len(input) may be 0.
	for off := 0; off == 0 || off < len(input); off += blockSize {
		end := off + blockSize
		if end > len(input) {
			end = len(input)
		}
		last := end == len(input)

		var err error
		out, err = appendBlock(ctx, out, input[off:end], last)
		if err != nil {
			return nil, err
		}
	}

	if e.opts.checksum {
		out = appendChecksum(out, input)
	}
	return out, nil
}

// appendBlock compresses one block's worth of input and appends its
// header and payload to dst, falling back to a RAW block when
// compression doesn't clear minGain.
func appendBlock(ctx *encoderContext, dst []byte, input []byte, last bool) ([]byte, error) {
	if len(input) < MinBlockSize {
		return appendRaw(dst, input, last), nil
	}
	if allSameByte(input) {
		body := appendBlockHeader(nil, last, BlockRLE, len(input))
		body = append(body, input[0])
		return append(dst, body...), nil
	}

	payload, err := compressBlockBody(ctx, input)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 && len(payload) <= len(input)-minGain(len(input)) {
		dst = appendBlockHeader(dst, last, BlockCompressed, len(payload))
		return append(dst, payload...), nil
	}

	return appendRaw(dst, input, last), nil
}

func appendRaw(dst []byte, input []byte, last bool) []byte {
	dst = appendBlockHeader(dst, last, BlockRaw, len(input))
	return append(dst, input...)
}

func allSameByte(b []byte) bool {
	for i := 1; i < len(b); i++ {
		if b[i] != b[0] {
			return false
		}
	}
	return true
}

// compressBlockBody builds one COMPRESSED block's payload: a literals
// section followed by a sequences section.
func compressBlockBody(ctx *encoderContext, input []byte) ([]byte, error) {
	literals, ll, ml, mo := compressBlockFast(input)

	var body []byte
	body, err := encodeLiteralsSection(ctx, body, literals)
	if err != nil {
		return nil, err
	}
	body, err = appendSequencesSection(ctx, body, ll, ml, mo)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func appendChecksum(dst []byte, content []byte) []byte {
	sum := uint32(xxhash64.Sum64(content))
	return append(dst, byte(sum), byte(sum>>8), byte(sum>>16), byte(sum>>24))
}
