package zstd

import (
	"errors"
	"fmt"

	"github.com/AlvinKuruvilla/frasc/bitio"
	"github.com/AlvinKuruvilla/frasc/brange"
	"github.com/AlvinKuruvilla/frasc/fse"
)

// longNumberOfSequences is added to the 16-bit count that follows a
// 0xFF tag byte in the sequence-count header's long form.
const longNumberOfSequences = 0x7F00

// seqVals is one decoded (literalsLength, matchLength, offset) triple,
// mirroring the teacher's own seqVals: sequences are decoded into an
// array first and executed (literal copy + match copy) in a second
// pass, rather than interleaving decode and copy.
type seqVals struct {
	ll, ml, mo int
}

// decodeSequenceCount parses the 1/2/3-byte sequence-count field at
// the start of in.
func decodeSequenceCount(in []byte) (count, consumed int, err error) {
	if len(in) < 1 {
		return 0, 0, malformed(0, "truncated sequence count", nil)
	}
	b0 := int(in[0])
	switch {
	case b0 == 0:
		return 0, 1, nil
	case b0 < 128:
		return b0, 1, nil
	case b0 < 255:
		if len(in) < 2 {
			return 0, 0, malformed(0, "truncated sequence count", nil)
		}
		return (b0-128)<<8 + int(in[1]), 2, nil
	default:
		if len(in) < 3 {
			return 0, 0, malformed(0, "truncated sequence count", nil)
		}
		return (int(in[1]) | int(in[2])<<8) + longNumberOfSequences, 3, nil
	}
}

// decodeSeqTables parses the mode descriptor byte and the three
// per-channel table definitions that follow it, updating ctx's
// currently loaded tables. Returns the number of bytes consumed.
func decodeSeqTables(ctx *decoderContext, in []byte) (int, error) {
	if len(in) < 1 {
		return 0, malformed(0, "truncated sequence mode byte", nil)
	}
	mode := in[0]
	off := 1

	llMode := SequenceMode((mode >> 6) & 3)
	ofMode := SequenceMode((mode >> 4) & 3)
	mlMode := SequenceMode((mode >> 2) & 3)

	n, err := decodeOneSeqTable(llMode, in[off:], fse.LiteralsLengthNorm, fse.LiteralsLengthTableLog, fse.MaxLiteralsLengthCode, LiteralsLengthTableLog, &ctx.llTable, &ctx.llValid)
	if err != nil {
		return 0, fmt.Errorf("zstd: literals-length table: %w", err)
	}
	off += n

	n, err = decodeOneSeqTable(ofMode, in[off:], fse.OffsetCodeNorm, fse.OffsetCodeTableLog, fse.MaxOffsetCode, OffsetTableLog, &ctx.ofTable, &ctx.ofValid)
	if err != nil {
		return 0, fmt.Errorf("zstd: offset table: %w", err)
	}
	off += n

	n, err = decodeOneSeqTable(mlMode, in[off:], fse.MatchLengthNorm, fse.MatchLengthTableLog, fse.MaxMatchLengthCode, MatchLengthTableLog, &ctx.mlTable, &ctx.mlValid)
	if err != nil {
		return 0, fmt.Errorf("zstd: match-length table: %w", err)
	}
	off += n

	return off, nil
}

func decodeOneSeqTable(mode SequenceMode, in []byte, predefNorm []int16, predefLog uint8, maxSymbol int, maxTableLog uint8, table **fse.Table, valid *bool) (int, error) {
	switch mode {
	case SeqPredefined:
		// The predefined distributions are fixed arrays with their own
		// symbol counts (29 for the offset channel, independent of the
		// protocol's general MaxOffsetCode); size the table to the
		// distribution actually supplied, not the channel's overall max.
		t, err := fse.BuildTable(predefNorm, len(predefNorm)-1, predefLog)
		if err != nil {
			return 0, err
		}
		*table = t
		*valid = true
		return 0, nil
	case SeqRLE:
		if len(in) < 1 {
			return 0, errors.New("truncated RLE table byte")
		}
		if int(in[0]) > maxSymbol {
			return 0, fmt.Errorf("RLE symbol %d exceeds maximum %d", in[0], maxSymbol)
		}
		norm := make([]int16, maxSymbol+1)
		norm[in[0]] = 1
		t, err := fse.BuildTable(norm, maxSymbol, 0)
		if err != nil {
			return 0, err
		}
		*table = t
		*valid = true
		return 1, nil
	case SeqFSECompressed:
		norm, symbolLen, tableLog, consumed, err := fse.ReadNCount(in, maxSymbol)
		if err != nil {
			return 0, err
		}
		if tableLog > maxTableLog {
			return 0, fmt.Errorf("table log %d exceeds channel maximum %d", tableLog, maxTableLog)
		}
		t, err := fse.BuildTable(norm, symbolLen-1, tableLog)
		if err != nil {
			return 0, err
		}
		*table = t
		*valid = true
		return consumed, nil
	case SeqRepeat:
		if !*valid {
			return 0, errors.New("repeat mode with no table previously loaded")
		}
		return 0, nil
	}
	return 0, fmt.Errorf("invalid sequence mode %d", mode)
}

// decodeSequences decodes count sequences from r, validating that
// their cumulative literals consumption never exceeds litAvail and
// their cumulative output never exceeds MaxBlockSize. ctx.offsets is
// updated in place as repeated-offset resolutions occur.
func decodeSequences(ctx *decoderContext, r *bitio.Reader, count, litAvail int) ([]seqVals, error) {
	if count == 0 {
		return nil, nil
	}
	if !ctx.llValid || !ctx.ofValid || !ctx.mlValid {
		return nil, errors.New("zstd: sequence decode with a channel table missing")
	}

	var llState, ofState, mlState fse.State
	llState.Init(r, ctx.llTable)
	ofState.Init(r, ctx.ofTable)
	mlState.Init(r, ctx.mlTable)

	seqs := make([]seqVals, count)
	totalOut := 0
	litRemain := litAvail

	for i := 0; i < count; i++ {
		r.Fill()

		codeLL := llState.Symbol()
		codeML := mlState.Symbol()
		codeOF := ofState.Symbol()

		offEntry := fse.OffsetCodeTable[codeOF]
		offset := int(offEntry.BaseLine)
		if codeOF > 0 {
			offset += int(r.ReadBits(offEntry.AddBits))
		}

		mlEntry := fse.MatchLengthCodeTable[codeML]
		matchLength := int(mlEntry.BaseLine)
		if mlEntry.AddBits > 0 {
			matchLength += int(r.ReadBits(mlEntry.AddBits))
		}

		llEntry := fse.LiteralsLengthCodeTable[codeLL]
		litLength := int(llEntry.BaseLine)
		if llEntry.AddBits > 0 {
			litLength += int(r.ReadBits(llEntry.AddBits))
		}

		if codeOF <= 1 {
			// offset currently holds the raw Offset_Value (1, 2 or 3)
			// for these two codes; shift into the 0-indexed selector
			// domain the repeat-offset resolution below is written in.
			selector := offset - 1
			if codeLL == 0 {
				selector++
			}
			if selector != 0 {
				var temp int
				if selector == 3 {
					temp = ctx.offsets[0] - 1
				} else {
					temp = ctx.offsets[selector]
				}
				if temp == 0 {
					temp = 1
				}
				if selector != 1 {
					ctx.offsets[2] = ctx.offsets[1]
				}
				ctx.offsets[1] = ctx.offsets[0]
				ctx.offsets[0] = temp
				offset = temp
			} else {
				offset = ctx.offsets[0]
			}
		} else {
			// Offset_Value for these codes is always > 3; the real
			// offset folds in the -3 adjustment the low two codes
			// reserve for repeat selection.
			offset -= 3
			ctx.offsets[2] = ctx.offsets[1]
			ctx.offsets[1] = ctx.offsets[0]
			ctx.offsets[0] = offset
		}

		if offset == 0 && matchLength > 0 {
			return nil, errors.New("zstd: zero offset with non-zero match length")
		}

		litRemain -= litLength
		if litRemain < 0 {
			return nil, fmt.Errorf("zstd: sequence %d wants %d literal bytes, only %d available", i, litLength, litRemain+litLength)
		}
		totalOut += litLength + matchLength
		if totalOut > MaxBlockSize {
			return nil, fmt.Errorf("zstd: block output %d exceeds MaxBlockSize", totalOut)
		}

		seqs[i] = seqVals{ll: litLength, ml: matchLength, mo: offset}

		if i == count-1 {
			break
		}

		r.Fill()
		llState.Update(r)
		mlState.Update(r)
		ofState.Update(r)
	}

	if err := r.Close(); err != nil {
		return nil, fmt.Errorf("zstd: sequence bit stream: %w", err)
	}
	return seqs, nil
}

// executeSequences replays seqs against literals and the growing
// frame output out, appending literalsLength bytes from literals then
// matchLength bytes copied back from offset bytes before the current
// write position, for each sequence, followed by the literals
// residue. frameOrigin is the absolute index in out where the current
// frame's content begins; a match may not reach before it.
func executeSequences(seqs []seqVals, literals []byte, out []byte, frameOrigin int) ([]byte, error) {
	litPos := 0
	for _, sv := range seqs {
		if litPos+sv.ll > len(literals) {
			return nil, errors.New("zstd: literals underrun during sequence execution")
		}
		out = append(out, literals[litPos:litPos+sv.ll]...)
		litPos += sv.ll

		if sv.ml == 0 {
			continue
		}
		dst := len(out)
		src := dst - sv.mo
		if src < frameOrigin {
			return nil, errors.New("zstd: match offset reaches before frame origin")
		}
		out = append(out, make([]byte, sv.ml)...)
		rng := brange.New(out, len(out))
		rng.CopyWithin(dst, src, sv.ml)
	}
	if litPos < len(literals) {
		out = append(out, literals[litPos:]...)
	}
	return out, nil
}

// codeForValue returns the largest index i such that table[i].BaseLine
// <= value, the code that a canonical base/extra-bits table assigns
// to value (baselines are strictly increasing, so the search is a
// simple forward scan over a small, fixed table).
func codeForValue(table []fse.BaseOffset, value uint32) uint8 {
	code := 0
	for i, e := range table {
		if e.BaseLine > value {
			break
		}
		code = i
	}
	return uint8(code)
}

// appendSequencesSection encodes count sequences, drawn in parallel
// from ll, ml and mo, choosing a mode per channel the same way
// decodeOneSeqTable accepts one on the way in: RLE when every
// sequence in the block shares one code, REPEAT when the table ctx
// is already carrying for that channel still assigns a nonzero
// probability to every code this block uses, a freshly built FSE
// table sized to this block's own histogram otherwise, and the fixed
// PREDEFINED distribution only as a fallback. Match offsets are
// resolved against ctx.offsets first, substituting a repeated-offset
// selector wherever a match reuses one of the three most recent
// offsets.
func appendSequencesSection(ctx *encoderContext, dst []byte, ll, ml, mo []int) ([]byte, error) {
	count := len(ll)
	dst = appendSequenceCount(dst, count)
	if count == 0 {
		return dst, nil
	}

	ofValues := resolveOffsetValues(ctx, ll, mo)

	llCodes := make([]uint8, count)
	mlCodes := make([]uint8, count)
	ofCodes := make([]uint8, count)
	for i := range ll {
		llCodes[i] = codeForValue(fse.LiteralsLengthCodeTable, uint32(ll[i]))
		mlCodes[i] = codeForValue(fse.MatchLengthCodeTable, uint32(ml[i]))
		ofCode := highBit32(ofValues[i])
		if int(ofCode) > fse.MaxOffsetCode {
			return nil, fmt.Errorf("zstd: match offset %d exceeds the offset channel's maximum code", mo[i])
		}
		ofCodes[i] = uint8(ofCode)
	}

	llMode, llHeader, llTable, err := chooseSequenceChannel(llCodes, fse.MaxLiteralsLengthCode, LiteralsLengthTableLog, fse.LiteralsLengthNorm, fse.LiteralsLengthTableLog, &ctx.llTable, &ctx.llNorm, &ctx.llValid)
	if err != nil {
		return nil, fmt.Errorf("zstd: choosing literals-length mode: %w", err)
	}
	ofMode, ofHeader, ofTable, err := chooseSequenceChannel(ofCodes, fse.MaxOffsetCode, OffsetTableLog, fse.OffsetCodeNorm, fse.OffsetCodeTableLog, &ctx.ofTable, &ctx.ofNorm, &ctx.ofValid)
	if err != nil {
		return nil, fmt.Errorf("zstd: choosing offset-code mode: %w", err)
	}
	mlMode, mlHeader, mlTable, err := chooseSequenceChannel(mlCodes, fse.MaxMatchLengthCode, MatchLengthTableLog, fse.MatchLengthNorm, fse.MatchLengthTableLog, &ctx.mlTable, &ctx.mlNorm, &ctx.mlValid)
	if err != nil {
		return nil, fmt.Errorf("zstd: choosing match-length mode: %w", err)
	}

	dst = append(dst, byte(llMode)<<6|byte(ofMode)<<4|byte(mlMode)<<2)
	dst = append(dst, llHeader...)
	dst = append(dst, ofHeader...)
	dst = append(dst, mlHeader...)

	var bw bitio.Writer
	bw.Reset(nil)

	var llState, mlState, ofState fse.CState
	llState.InitFirst(llTable, llCodes[count-1])
	mlState.InitFirst(mlTable, mlCodes[count-1])
	ofState.InitFirst(ofTable, ofCodes[count-1])
	writeExtraBits(&bw, count-1, ll, ml, ofValues, llCodes, mlCodes, ofCodes)

	for i := count - 2; i >= 0; i-- {
		ofState.Encode(&bw, ofCodes[i])
		mlState.Encode(&bw, mlCodes[i])
		llState.Encode(&bw, llCodes[i])
		writeExtraBits(&bw, i, ll, ml, ofValues, llCodes, mlCodes, ofCodes)
	}
	mlState.Flush(&bw)
	ofState.Flush(&bw)
	llState.Flush(&bw)
	body := bw.Close()

	return append(dst, body...), nil
}

// chooseSequenceChannel picks one channel's sequence mode from its
// per-sequence codes, the inverse of decodeOneSeqTable: build the
// histogram, emit RLE for a degenerate (single-symbol) block, reuse
// whatever table is already sitting in *table/*norm/*valid under
// REPEAT when it still covers every code this block uses, otherwise
// normalize a fresh table at tableLog and emit it COMPRESSED, falling
// back to the channel's PREDEFINED distribution only when
// normalization can't represent the histogram and the predefined
// table happens to cover these codes anyway. *table/*norm/*valid are
// updated to whatever gets chosen, so the next block's REPEAT check
// runs against it.
func chooseSequenceChannel(codes []uint8, generalMaxSymbol int, tableLog uint8, predefNorm []int16, predefLog uint8, table **fse.CTable, norm *[]int16, valid *bool) (SequenceMode, []byte, *fse.CTable, error) {
	first := codes[0]
	allSame := true
	counts := make([]uint32, generalMaxSymbol+1)
	for _, c := range codes {
		counts[c]++
		if c != first {
			allSame = false
		}
	}

	if allSame {
		n := make([]int16, generalMaxSymbol+1)
		n[first] = 1
		ct, err := fse.BuildCTable(n, generalMaxSymbol, 0)
		if err != nil {
			return 0, nil, nil, err
		}
		*table, *norm, *valid = ct, n, true
		return SeqRLE, []byte{first}, ct, nil
	}

	if *valid && channelCovers(*norm, codes) {
		return SeqRepeat, nil, *table, nil
	}

	if n, err := fse.Normalize(counts, generalMaxSymbol, tableLog); err == nil {
		if header, err := fse.WriteNCount(n, generalMaxSymbol, tableLog); err == nil {
			if ct, err := fse.BuildCTable(n, generalMaxSymbol, tableLog); err == nil {
				*table, *norm, *valid = ct, n, true
				return SeqFSECompressed, header, ct, nil
			}
		}
	}

	if channelCovers(predefNorm, codes) {
		ct, err := fse.BuildCTable(predefNorm, len(predefNorm)-1, predefLog)
		if err != nil {
			return 0, nil, nil, err
		}
		*table, *norm, *valid = ct, predefNorm, true
		return SeqPredefined, nil, ct, nil
	}

	return 0, nil, nil, errors.New("zstd: no sequence mode could represent this channel's symbols")
}

// channelCovers reports whether every code in codes has a nonzero
// entry in norm, the condition a REPEAT (or reused PREDEFINED) table
// needs to satisfy to assign a state to every symbol a decoder would
// ask it to decode.
func channelCovers(norm []int16, codes []uint8) bool {
	for _, c := range codes {
		if int(c) >= len(norm) || norm[c] == 0 {
			return false
		}
	}
	return true
}

// writeExtraBits writes sequence i's literals-length, match-length and
// offset extra bits, in that order; the decoder reads the stream
// backward, so it sees them as offset, match length, literals length.
// ofValues holds the already-resolved wire Offset_Value for each
// sequence (ll and ml are still needed here for the literals-length
// and match-length channels).
func writeExtraBits(bw *bitio.Writer, i int, ll, ml []int, ofValues []uint32, llCodes, mlCodes, ofCodes []uint8) {
	llEntry := fse.LiteralsLengthCodeTable[llCodes[i]]
	if llEntry.AddBits > 0 {
		bw.AddBits(uint32(ll[i])-llEntry.BaseLine, llEntry.AddBits)
	}

	mlEntry := fse.MatchLengthCodeTable[mlCodes[i]]
	if mlEntry.AddBits > 0 {
		bw.AddBits(uint32(ml[i])-mlEntry.BaseLine, mlEntry.AddBits)
	}

	ofCode := ofCodes[i]
	bw.AddBits(ofValues[i]-(1<<ofCode), ofCode)
}

func appendSequenceCount(dst []byte, count int) []byte {
	switch {
	case count < 128:
		return append(dst, byte(count))
	case count < longNumberOfSequences:
		return append(dst, byte(128+(count>>8)), byte(count))
	default:
		v := count - longNumberOfSequences
		return append(dst, 0xFF, byte(v), byte(v>>8))
	}
}

func highBit32(v uint32) uint32 {
	n := uint32(0)
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}
