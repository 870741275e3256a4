// Package zstd implements a Zstandard-compatible one-shot compressor
// and decompressor: frame framing, block dispatch, Huffman-coded
// literals, and FSE-coded sequences, built on the fse and huffman
// packages.
//
// Custom dictionaries and window sizes above 2^23 bytes are rejected.
// Streaming across calls is not supported; each call processes one or
// more complete, back-to-back frames.
package zstd

import (
	"errors"
	"log"
)

const debug = false

func println(a ...interface{}) {
	if debug {
		log.Println(a...)
	}
}

func printf(format string, a ...interface{}) {
	if debug {
		log.Printf(format, a...)
	}
}

const (
	// MaxBlockSize is the largest payload a single block may carry.
	MaxBlockSize = 128 << 10

	// MinBlockSize is the smallest input a block compressor will
	// attempt to compress rather than emit as RAW.
	MinBlockSize = 3

	// SizeOfBlockHeader is the width, in bytes, of a block header.
	SizeOfBlockHeader = 3

	// MaxWindowSize is the decode-time ceiling on window size.
	MaxWindowSize = 1 << 23

	// MinWindowLog is the smallest window-descriptor exponent accepted
	// on encode.
	MinWindowLog = 10

	// MaxHuffmanTableLog is the maximum Huffman table log for literals.
	MaxHuffmanTableLog = 11

	// LiteralsLengthTableLog, MatchLengthTableLog and OffsetTableLog
	// are the maximum FSE table logs for each sequence channel.
	LiteralsLengthTableLog = 9
	MatchLengthTableLog    = 9
	OffsetTableLog         = 8
)

var (
	// ErrMagicMismatch indicates the input does not begin with a
	// recognised zstd frame magic number.
	ErrMagicMismatch = errors.New("zstd: magic number mismatch")

	// ErrLegacyFrame indicates a v0.7 (pre-standardization) frame,
	// which this codec does not decode.
	ErrLegacyFrame = errors.New("zstd: legacy (v0.7) frame not supported")

	// ErrWindowSizeExceeded indicates a frame declares a window size
	// above MaxWindowSize.
	ErrWindowSizeExceeded = errors.New("zstd: window size exceeds the configured limit")

	// ErrWindowSizeTooSmall indicates an encode-time requested window
	// size below MinWindowLog.
	ErrWindowSizeTooSmall = errors.New("zstd: window size too small")

	// ErrUnsupportedDictionary indicates a frame declares a non-zero
	// dictionary ID.
	ErrUnsupportedDictionary = errors.New("zstd: custom dictionaries not supported")

	// ErrReservedBlockType indicates a block header names the
	// reserved block type.
	ErrReservedBlockType = errors.New("zstd: reserved block type encountered")

	// ErrCompressedSizeTooBig indicates a block's declared size
	// exceeds MaxBlockSize or the remaining input.
	ErrCompressedSizeTooBig = errors.New("zstd: compressed block size too big")

	// ErrChecksumMismatch indicates the trailing xxHash64 checksum did
	// not match the decompressed content.
	ErrChecksumMismatch = errors.New("zstd: checksum mismatch")

	// ErrOutputTooSmall indicates the caller-provided output range
	// cannot hold the result.
	ErrOutputTooSmall = errors.New("zstd: output buffer too small")
)

// Decompress decodes every complete frame found in input, appending
// the decoded bytes to dst, and returns the extended slice. Any
// trailing bytes that do not form a complete frame are an error.
func Decompress(dst, input []byte, opts ...DOption) ([]byte, error) {
	d, err := NewDecoder(opts...)
	if err != nil {
		return nil, err
	}
	return d.DecodeAll(input, dst)
}

// Compress compresses input as a single frame, appending the result
// to dst, and returns the extended slice.
func Compress(dst, input []byte, opts ...EOption) ([]byte, error) {
	e, err := NewEncoder(opts...)
	if err != nil {
		return nil, err
	}
	return e.EncodeAll(input, dst)
}

// MaxCompressedLength returns the worst-case number of bytes Compress
// may write for an input of length n.
func MaxCompressedLength(n int) int {
	extra := 0
	if n < MaxBlockSize {
		extra = (MaxBlockSize - n) >> 11
	}
	return n + (n >> 8) + extra + frameOverhead
}

// frameOverhead bounds the magic, frame header, a single block header,
// and the trailing checksum.
const frameOverhead = 4 + 14 + SizeOfBlockHeader + 4

// GetDecompressedSize reads the first frame's header from input and
// returns its declared content size, or -1 if the frame does not
// declare one.
func GetDecompressedSize(input []byte) (int64, error) {
	fh, _, err := decodeFrameHeader(input)
	if err != nil {
		return 0, err
	}
	if !fh.hasContentSize {
		return -1, nil
	}
	return int64(fh.contentSize), nil
}
