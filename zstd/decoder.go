package zstd

import (
	"fmt"

	"github.com/AlvinKuruvilla/frasc/bitio"
	"github.com/AlvinKuruvilla/frasc/xxhash64"
)

// Decoder decodes one or more back-to-back Zstandard frames. A
// Decoder is not safe for concurrent use by multiple goroutines, but
// a single Decoder may be reused across many DecodeAll calls.
type Decoder struct {
	opts decoderOptions
}

// NewDecoder builds a Decoder from the given options.
func NewDecoder(opts ...DOption) (*Decoder, error) {
	d := &Decoder{}
	d.opts.reset()
	d.opts.apply(opts)
	return d, nil
}

// DecodeAll decodes every complete frame in input, appending the
// result to dst, and returns the extended slice.
func (d *Decoder) DecodeAll(input []byte, dst []byte) ([]byte, error) {
	out := dst
	for len(input) > 0 {
		var err error
		out, input, err = d.decodeFrame(out, input)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// decodeFrame decodes exactly one frame from the start of input,
// appending its content to out and returning the unconsumed
// remainder of input.
func (d *Decoder) decodeFrame(out []byte, input []byte) (newOut []byte, rest []byte, err error) {
	fh, headerSize, err := decodeFrameHeader(input)
	if err != nil {
		return nil, nil, err
	}
	if fh.windowSize > d.opts.maxWindowSize {
		return nil, nil, malformed(int64(headerSize), "window size exceeds configured limit", ErrWindowSizeExceeded)
	}
	in := input[headerSize:]
	frameOrigin := len(out)
	consumed := int64(headerSize)

	ctx := takeDecoderContext()
	defer giveDecoderContext(ctx)

	for {
		bh, err := decodeBlockHeader(in, consumed)
		if err != nil {
			return nil, nil, err
		}
		in = in[SizeOfBlockHeader:]
		consumed += SizeOfBlockHeader

		switch bh.blockType {
		case BlockRaw:
			if bh.size > len(in) {
				return nil, nil, malformed(consumed, "raw block exceeds remaining input", ErrCompressedSizeTooBig)
			}
			out = append(out, in[:bh.size]...)
			in = in[bh.size:]
			consumed += int64(bh.size)

		case BlockRLE:
			if len(in) < 1 {
				return nil, nil, malformed(consumed, "truncated RLE block", nil)
			}
			value := in[0]
			in = in[1:]
			consumed++
			for i := 0; i < bh.size; i++ {
				out = append(out, value)
			}

		case BlockCompressed:
			if bh.size > len(in) {
				return nil, nil, malformed(consumed, "compressed block exceeds remaining input", ErrCompressedSizeTooBig)
			}
			body := in[:bh.size]
			in = in[bh.size:]
			consumed += int64(bh.size)
			out, err = d.decodeCompressedBlock(ctx, body, out, frameOrigin)
			if err != nil {
				return nil, nil, err
			}

		default:
			return nil, nil, malformed(consumed, "reserved block type encountered", ErrReservedBlockType)
		}

		if len(out)-frameOrigin > MaxWindowSize {
			return nil, nil, malformed(consumed, "decoded frame exceeds the configured window limit", ErrWindowSizeExceeded)
		}

		if bh.last {
			break
		}
	}

	if fh.hasContentSize && uint64(len(out)-frameOrigin) != fh.contentSize {
		return nil, nil, malformed(consumed, "decoded size does not match declared content size", nil)
	}

	if fh.hasChecksum {
		if len(in) < 4 {
			return nil, nil, malformed(consumed, "truncated frame checksum", nil)
		}
		want := uint32(in[0]) | uint32(in[1])<<8 | uint32(in[2])<<16 | uint32(in[3])<<24
		in = in[4:]
		got := uint32(xxhash64.Sum64(out[frameOrigin:]))
		if got != want {
			return nil, nil, malformed(consumed, "checksum mismatch", ErrChecksumMismatch)
		}
	}

	return out, in, nil
}

// decodeCompressedBlock decodes one COMPRESSED block's literals and
// sequences sections and replays them against out, which may already
// hold bytes from earlier blocks of the same frame (frameOrigin marks
// where this frame's own content begins, so match offsets cannot
// reach into a prior frame).
func (d *Decoder) decodeCompressedBlock(ctx *decoderContext, body []byte, out []byte, frameOrigin int) ([]byte, error) {
	literals, litConsumed, err := decodeLiteralsSection(ctx, body)
	if err != nil {
		return nil, err
	}
	rest := body[litConsumed:]

	count, countConsumed, err := decodeSequenceCount(rest)
	if err != nil {
		return nil, err
	}
	rest = rest[countConsumed:]

	var seqs []seqVals
	if count > 0 {
		modeConsumed, err := decodeSeqTables(ctx, rest)
		if err != nil {
			return nil, err
		}
		rest = rest[modeConsumed:]

		var r bitio.Reader
		if err := r.Init(rest); err != nil {
			return nil, fmt.Errorf("zstd: sequence bit stream: %w", err)
		}
		seqs, err = decodeSequences(ctx, &r, count, len(literals))
		if err != nil {
			return nil, err
		}
	}

	return executeSequences(seqs, literals, out, frameOrigin)
}
