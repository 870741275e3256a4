package fse

import (
	"errors"
	"fmt"

	"github.com/AlvinKuruvilla/frasc/bitio"
)

// CompressBytes FSE-compresses in as a standalone blob: a normalized-
// count header (WriteNCount) followed by the symbol bitstream, with
// no length prefix. The symbol count is implicit in where the
// bitstream runs out, exactly as DecompressBytes expects.
func CompressBytes(in []byte, maxSymbolValue int, tableLog uint8) ([]byte, error) {
	if len(in) == 0 {
		return nil, errors.New("fse: empty input")
	}
	count := make([]uint32, maxSymbolValue+1)
	for _, b := range in {
		if int(b) > maxSymbolValue {
			return nil, fmt.Errorf("fse: symbol %d exceeds maxSymbolValue %d", b, maxSymbolValue)
		}
		count[b]++
	}
	norm, err := Normalize(count, maxSymbolValue, tableLog)
	if err != nil {
		return nil, err
	}
	header, err := WriteNCount(norm, maxSymbolValue, tableLog)
	if err != nil {
		return nil, err
	}
	ct, err := BuildCTable(norm, maxSymbolValue, tableLog)
	if err != nil {
		return nil, err
	}

	var w bitio.Writer
	w.Reset(nil)
	n := len(in)
	var cs CState
	cs.InitFirst(ct, in[n-1])
	for i := n - 2; i >= 0; i-- {
		cs.Encode(&w, in[i])
	}
	cs.Flush(&w)
	body := w.Close()

	return append(header, body...), nil
}

// DecompressBytes reverses CompressBytes. limit bounds how many
// symbols will be produced before giving up on a malformed or
// maliciously unterminated stream.
func DecompressBytes(in []byte, maxSymbolValue, limit int) ([]byte, error) {
	norm, symbolLen, tableLog, consumed, err := ReadNCount(in, maxSymbolValue)
	if err != nil {
		return nil, err
	}
	dt, err := BuildTable(norm, symbolLen-1, tableLog)
	if err != nil {
		return nil, err
	}

	var r bitio.Reader
	if err := r.Init(in[consumed:]); err != nil {
		return nil, err
	}
	r.Fill()
	var st State
	st.Init(&r, dt)

	var out []byte
	for {
		out = append(out, st.Symbol())
		if len(out) > limit {
			return nil, fmt.Errorf("fse: decompressed output exceeds limit %d", limit)
		}
		if r.Finished() {
			break
		}
		r.Fill()
		st.Update(&r)
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return out, nil
}
