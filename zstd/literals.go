package zstd

import (
	"fmt"

	"github.com/AlvinKuruvilla/frasc/huffman"
)

// decodeLiteralsSection parses the literals section at the start of
// in (a compressed block's payload), returning the decoded literals
// and the number of input bytes consumed. The returned slice aliases
// ctx.litScratch (or, for RAW literals with enough trailing slack, in
// itself) and is only valid until the next call.
func decodeLiteralsSection(ctx *decoderContext, in []byte) ([]byte, int, error) {
	if len(in) < 1 {
		return nil, 0, malformed(0, "empty literals section", nil)
	}
	first := in[0]
	subType := LiteralsBlockType(first & 3)
	sizeFormat := (first >> 2) & 3

	switch subType {
	case LiteralsRaw, LiteralsRLE:
		size, headerSize, err := decodeSmallSizeHeader(in, sizeFormat)
		if err != nil {
			return nil, 0, err
		}
		if size > MaxBlockSize {
			return nil, 0, malformed(0, "literals size exceeds MaxBlockSize", nil)
		}
		if subType == LiteralsRaw {
			if headerSize+size > len(in) {
				return nil, 0, malformed(int64(headerSize), "truncated raw literals", nil)
			}
			payload := in[headerSize : headerSize+size]
			// Alias in place when there's 8 bytes of slack past the
			// literal region for the sequence decoder's 8-byte copies;
			// otherwise copy into scratch, zero-padded the same way.
			if len(in)-(headerSize+size) >= 8 {
				return payload, headerSize + size, nil
			}
			ctx.litScratch = append(ctx.litScratch[:0], payload...)
			ctx.litScratch = append(ctx.litScratch, make([]byte, 8)...)
			return ctx.litScratch[:size], headerSize + size, nil
		}
		// RLE
		if headerSize+1 > len(in) {
			return nil, 0, malformed(int64(headerSize), "truncated RLE literals", nil)
		}
		value := in[headerSize]
		ctx.litScratch = append(ctx.litScratch[:0], make([]byte, size+8)...)
		for i := range ctx.litScratch {
			ctx.litScratch[i] = value
		}
		return ctx.litScratch[:size], headerSize + 1, nil

	case LiteralsCompressed, LiteralsTreeless:
		uncompressedSize, compressedSize, singleStream, headerSize, err := decodeCompressedSizeHeader(in, sizeFormat)
		if err != nil {
			return nil, 0, err
		}
		if uncompressedSize > MaxBlockSize {
			return nil, 0, malformed(0, "literals size exceeds MaxBlockSize", nil)
		}
		if headerSize+compressedSize > len(in) {
			return nil, 0, malformed(int64(headerSize), "truncated compressed literals", nil)
		}
		body := in[headerSize : headerSize+compressedSize]

		if subType == LiteralsTreeless {
			if !ctx.huffLoaded {
				return nil, 0, malformed(0, "treeless literals with no Huffman table loaded", nil)
			}
		} else {
			weights, wConsumed, err := huffman.ReadWeights(body)
			if err != nil {
				return nil, 0, malformed(int64(headerSize), "reading Huffman weight table", err)
			}
			dt, err := huffman.BuildDTable(weights)
			if err != nil {
				return nil, 0, malformed(int64(headerSize), "building Huffman table", err)
			}
			ctx.huffTable = dt
			ctx.huffLoaded = true
			body = body[wConsumed:]
		}

		var out []byte
		var derr error
		if singleStream {
			out, derr = huffman.Decompress1X(ctx.huffTable, body, uncompressedSize)
		} else {
			out, derr = huffman.Decompress4X(ctx.huffTable, body, uncompressedSize)
		}
		if derr != nil {
			return nil, 0, malformed(int64(headerSize), "decoding Huffman-coded literals", derr)
		}
		ctx.litScratch = append(out, make([]byte, 8)...)
		return ctx.litScratch[:uncompressedSize], headerSize + compressedSize, nil

	default:
		return nil, 0, malformed(0, "invalid literals block type", nil)
	}
}

// decodeSmallSizeHeader parses the 1/2/3-byte Raw/RLE literals header,
// returning the declared size and the header's own width in bytes.
func decodeSmallSizeHeader(in []byte, sizeFormat byte) (size, headerSize int, err error) {
	switch sizeFormat {
	case 0, 2:
		if len(in) < 1 {
			return 0, 0, malformed(0, "truncated literals header", nil)
		}
		return int(in[0]) >> 3, 1, nil
	case 1:
		if len(in) < 2 {
			return 0, 0, malformed(0, "truncated literals header", nil)
		}
		v := uint16(in[0]) | uint16(in[1])<<8
		return int(v) >> 4, 2, nil
	case 3:
		if len(in) < 3 {
			return 0, 0, malformed(0, "truncated literals header", nil)
		}
		v := uint32(in[0]) | uint32(in[1])<<8 | uint32(in[2])<<16
		return int(v) >> 4, 3, nil
	}
	return 0, 0, malformed(0, "unreachable literals size format", nil)
}

// decodeCompressedSizeHeader parses the 3/4/5-byte Compressed/
// Treeless literals header.
func decodeCompressedSizeHeader(in []byte, sizeFormat byte) (uncompressedSize, compressedSize int, singleStream bool, headerSize int, err error) {
	switch sizeFormat {
	case 0, 1:
		if len(in) < 3 {
			return 0, 0, false, 0, malformed(0, "truncated literals header", nil)
		}
		v := uint32(in[0]) | uint32(in[1])<<8 | uint32(in[2])<<16
		uncompressedSize = int(v>>4) & 0x3FF
		compressedSize = int(v>>14) & 0x3FF
		return uncompressedSize, compressedSize, sizeFormat == 0, 3, nil
	case 2:
		if len(in) < 4 {
			return 0, 0, false, 0, malformed(0, "truncated literals header", nil)
		}
		v := uint32(in[0]) | uint32(in[1])<<8 | uint32(in[2])<<16 | uint32(in[3])<<24
		uncompressedSize = int(v>>4) & 0x3FFF
		compressedSize = int(v>>18) & 0x3FFF
		return uncompressedSize, compressedSize, false, 4, nil
	case 3:
		if len(in) < 5 {
			return 0, 0, false, 0, malformed(0, "truncated literals header", nil)
		}
		v := uint64(in[0]) | uint64(in[1])<<8 | uint64(in[2])<<16 | uint64(in[3])<<24 | uint64(in[4])<<32
		uncompressedSize = int(v>>4) & 0x3FFFF
		compressedSize = int(v>>22) & 0x3FFFF
		return uncompressedSize, compressedSize, false, 5, nil
	}
	return 0, 0, false, 0, malformed(0, fmt.Sprintf("unreachable size format %d", sizeFormat), nil)
}

// encodeLiteralsSection chooses a literals encoding for lits and
// appends it to dst. Before building a fresh Huffman table, it checks
// whether ctx's table from an earlier block in this frame can be
// reused instead (TREELESS, carrying no weight header): either this
// block is small enough that the cheap reuse threshold applies and
// the old table already covers every symbol present, or, for larger
// blocks, reuse turns out to cost no more bits than a freshly built
// table plus its own weight header would.
func encodeLiteralsSection(ctx *encoderContext, dst []byte, lits []byte) ([]byte, error) {
	n := len(lits)
	if n == 0 {
		return appendSmallSizeHeader(dst, LiteralsRaw, 0), nil
	}
	if n <= 63 {
		return append(appendSmallSizeHeader(dst, LiteralsRaw, n), lits...), nil
	}

	var counts [huffman.MaxSymbolValue + 1]uint32
	for _, b := range lits {
		counts[b]++
	}

	if ctx.huffValid && huffCovers(ctx.huffTable, counts[:]) && n <= 1024 {
		return compressLiteralsTreeless(ctx, dst, lits, n)
	}

	ct, err := huffman.BuildCTable(lits, 0)
	switch err {
	case nil:
		// fall through to the Huffman path below
	case huffman.ErrUseRLE:
		return append(appendSmallSizeHeader(dst, LiteralsRLE, n), lits[0]), nil
	case huffman.ErrIncompressible:
		return append(appendSmallSizeHeader(dst, LiteralsRaw, n), lits...), nil
	default:
		return nil, fmt.Errorf("zstd: building literals Huffman table: %w", err)
	}

	weights, err := huffman.WriteWeights(ct)
	if err != nil {
		return nil, fmt.Errorf("zstd: serializing Huffman weights: %w", err)
	}

	if ctx.huffValid && huffCovers(ctx.huffTable, counts[:]) &&
		huffmanBitCost(ctx.huffTable, counts[:]) <= huffmanBitCost(ct, counts[:])+uint64(len(weights))*8 {
		return compressLiteralsTreeless(ctx, dst, lits, n)
	}

	singleStream := n < 256
	var body []byte
	if singleStream {
		body, err = huffman.Compress1X(ct, lits)
	} else {
		body, err = huffman.Compress4X(ct, lits)
	}
	if err != nil {
		return nil, fmt.Errorf("zstd: Huffman-encoding literals: %w", err)
	}
	payload := append(weights, body...)

	if len(payload) >= n {
		return append(appendSmallSizeHeader(dst, LiteralsRaw, n), lits...), nil
	}

	ctx.huffTable = ct
	ctx.huffValid = true
	dst = appendCompressedSizeHeader(dst, LiteralsCompressed, singleStream, n, len(payload))
	return append(dst, payload...), nil
}

// compressLiteralsTreeless encodes lits against ctx's already-loaded
// Huffman table, carrying no weight header, and falls back to raw
// literals if that payload somehow doesn't shrink the input (it
// always should, given the caller already checked coverage and cost).
func compressLiteralsTreeless(ctx *encoderContext, dst []byte, lits []byte, n int) ([]byte, error) {
	singleStream := n < 256
	var body []byte
	var err error
	if singleStream {
		body, err = huffman.Compress1X(ctx.huffTable, lits)
	} else {
		body, err = huffman.Compress4X(ctx.huffTable, lits)
	}
	if err != nil {
		return nil, fmt.Errorf("zstd: Huffman-encoding literals: %w", err)
	}
	if len(body) >= n {
		return append(appendSmallSizeHeader(dst, LiteralsRaw, n), lits...), nil
	}
	dst = appendCompressedSizeHeader(dst, LiteralsTreeless, singleStream, n, len(body))
	return append(dst, body...), nil
}

// huffCovers reports whether every symbol with a nonzero count in
// counts has a codeword in ct, the condition a reused (TREELESS)
// table must satisfy to encode a new block's literals at all.
func huffCovers(ct *huffman.CTable, counts []uint32) bool {
	for sym, c := range counts {
		if c > 0 && ct.Entry(byte(sym)).NBits == 0 {
			return false
		}
	}
	return true
}

// huffmanBitCost estimates, in bits, the size of counts encoded
// against ct: sum over symbols of count * codeword width. It assumes
// ct already covers every symbol present (the caller checks that
// first), since an uncovered symbol has no meaningful width to add.
func huffmanBitCost(ct *huffman.CTable, counts []uint32) uint64 {
	var bits uint64
	for sym, c := range counts {
		if c == 0 {
			continue
		}
		bits += uint64(c) * uint64(ct.Entry(byte(sym)).NBits)
	}
	return bits
}

func appendSmallSizeHeader(dst []byte, bt LiteralsBlockType, size int) []byte {
	if size < 32 {
		return append(dst, byte(bt)|byte(size)<<3)
	}
	if size < 4096 {
		v := uint16(bt) | uint16(size)<<4 | 1<<2
		return append(dst, byte(v), byte(v>>8))
	}
	v := uint32(bt) | uint32(size)<<4 | 3<<2
	return append(dst, byte(v), byte(v>>8), byte(v>>16))
}

func appendCompressedSizeHeader(dst []byte, blockType LiteralsBlockType, singleStream bool, uncompressedSize, compressedSize int) []byte {
	bt := byte(blockType)
	switch {
	case uncompressedSize < 1<<10 && compressedSize < 1<<10:
		fmtBits := byte(0)
		if !singleStream {
			fmtBits = 1
		}
		v := uint32(bt) | uint32(fmtBits)<<2 | uint32(uncompressedSize)<<4 | uint32(compressedSize)<<14
		return append(dst, byte(v), byte(v>>8), byte(v>>16))
	case uncompressedSize < 1<<14 && compressedSize < 1<<14:
		v := uint32(bt) | 2<<2 | uint32(uncompressedSize)<<4 | uint32(compressedSize)<<18
		return append(dst, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	default:
		v := uint64(bt) | 3<<2 | uint64(uncompressedSize)<<4 | uint64(compressedSize)<<22
		return append(dst, byte(v), byte(v>>8), byte(v>>16), byte(v>>24), byte(v>>32))
	}
}
