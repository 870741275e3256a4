package zstd

import (
	"github.com/chronos-tachyon/assert"
)

// DOption configures a Decoder.
type DOption func(*decoderOptions)

type decoderOptions struct {
	maxWindowSize uint64
}

func (o *decoderOptions) reset() {
	*o = decoderOptions{
		maxWindowSize: MaxWindowSize,
	}
}

func (o *decoderOptions) apply(opts []DOption) {
	for _, opt := range opts {
		opt(o)
	}
}

// WithDecoderMaxWindow caps the window size a Decoder will accept,
// below the package default of MaxWindowSize. Frames declaring a
// larger window are rejected with ErrWindowSizeExceeded rather than
// allocating the larger buffer they'd need.
func WithDecoderMaxWindow(size uint64) DOption {
	assert.Assertf(size > 0, "invalid window size %d", size)
	return func(o *decoderOptions) { o.maxWindowSize = size }
}

// EOption configures an Encoder.
type EOption func(*encoderOptions)

type encoderOptions struct {
	windowSize uint64
	checksum   bool
}

func (o *encoderOptions) reset() {
	*o = encoderOptions{
		windowSize: MaxBlockSize,
		checksum:   true,
	}
}

func (o *encoderOptions) apply(opts []EOption) {
	for _, opt := range opts {
		opt(o)
	}
}

// WithEncoderWindow sets the window size an Encoder declares in its
// frame header when the input is larger than it (smaller input is
// written as a single-segment frame with no window descriptor), and
// also the size of the blocks EncodeAll chunks input into: blockSize is min(MaxBlockSize, this value), per the
// format's blockSize = min(MAX_BLOCK_SIZE, windowSize) rule. Raising
// it past MaxBlockSize only affects what a decoder is told to budget
// for, since this encoder's match finder never searches across block
// boundaries; lowering it below MaxBlockSize genuinely shrinks every
// block the encoder emits.
func WithEncoderWindow(size uint64) EOption {
	assert.Assertf(size >= 1<<MinWindowLog, "window size %d below the minimum window log", size)
	return func(o *encoderOptions) { o.windowSize = size }
}

// WithEncoderChecksum controls whether EncodeAll appends a trailing
// xxHash64 checksum of the uncompressed content. Enabled by default.
func WithEncoderChecksum(enabled bool) EOption {
	return func(o *encoderOptions) { o.checksum = enabled }
}
