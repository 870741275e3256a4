package zstd

import (
	"math/rand"
	"testing"

	"github.com/AlvinKuruvilla/frasc/bitio"
)

func TestDecodeSequenceCountRoundTrip(t *testing.T) {
	counts := []int{0, 1, 127, 128, 129, 254, 255, 256, 0x7EFF, 0x7F00, 0x7F00 + 1, 0x7F00 + 0xFFFF}
	for _, c := range counts {
		dst := appendSequenceCount(nil, c)
		got, consumed, err := decodeSequenceCount(dst)
		if err != nil {
			t.Fatalf("count %d: decodeSequenceCount: %v", c, err)
		}
		if got != c {
			t.Errorf("count %d: decoded %d", c, got)
		}
		if consumed != len(dst) {
			t.Errorf("count %d: consumed %d, want %d", c, consumed, len(dst))
		}
	}
}

func TestSequencesSectionRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	const n = 40
	ll := make([]int, n)
	ml := make([]int, n)
	mo := make([]int, n)
	var literals []byte
	litPool := make([]byte, 0, n*8)
	for i := 0; i < n; i++ {
		litLen := rng.Intn(6)
		for j := 0; j < litLen; j++ {
			litPool = append(litPool, byte(rng.Intn(256)))
		}
		ll[i] = litLen
		ml[i] = 3 + rng.Intn(200)
		mo[i] = 1 + rng.Intn(1<<16)
	}
	literals = litPool

	encCtx := newEncoderContext()
	body, err := appendSequencesSection(encCtx, nil, ll, ml, mo)
	if err != nil {
		t.Fatalf("appendSequencesSection: %v", err)
	}

	count, consumed, err := decodeSequenceCount(body)
	if err != nil {
		t.Fatalf("decodeSequenceCount: %v", err)
	}
	if count != n {
		t.Fatalf("count = %d, want %d", count, n)
	}
	rest := body[consumed:]

	ctx := newDecoderContext()
	modeConsumed, err := decodeSeqTables(ctx, rest)
	if err != nil {
		t.Fatalf("decodeSeqTables: %v", err)
	}
	rest = rest[modeConsumed:]

	var r bitio.Reader
	if err := r.Init(rest); err != nil {
		t.Fatalf("bitio.Reader.Init: %v", err)
	}
	seqs, err := decodeSequences(ctx, &r, count, len(literals))
	if err != nil {
		t.Fatalf("decodeSequences: %v", err)
	}
	if len(seqs) != n {
		t.Fatalf("decoded %d sequences, want %d", len(seqs), n)
	}
	for i, sv := range seqs {
		if sv.ll != ll[i] || sv.ml != ml[i] || sv.mo != mo[i] {
			t.Errorf("sequence %d: got {ll:%d ml:%d mo:%d}, want {ll:%d ml:%d mo:%d}",
				i, sv.ll, sv.ml, sv.mo, ll[i], ml[i], mo[i])
		}
	}
}

func TestExecuteSequencesRepeatedOffset(t *testing.T) {
	// "0..255 repeated twice": one sequence emits the 256 literals and
	// then copies them again as a 256-byte match at offset 256.
	literals := make([]byte, 256)
	for i := range literals {
		literals[i] = byte(i)
	}
	seqs := []seqVals{{ll: 256, ml: 256, mo: 256}}

	out, err := executeSequences(seqs, literals, nil, 0)
	if err != nil {
		t.Fatalf("executeSequences: %v", err)
	}
	if len(out) != 512 {
		t.Fatalf("output length = %d, want 512", len(out))
	}
	for i := 0; i < 256; i++ {
		if out[i] != byte(i) || out[i+256] != byte(i) {
			t.Fatalf("mismatch at %d: %d %d", i, out[i], out[i+256])
		}
	}
}

// TestRealMatchesResolveToRepeatedOffsetCode drives the real match
// finder (not a hand-built seqVals) over input built so two of its
// matches share a byte distance, then resolves their Offset_Values to
// confirm a repeated-offset code (codeOF<=1) comes out, rather than
// only checking that a round trip happens to come out lossless.
func TestRealMatchesResolveToRepeatedOffsetCode(t *testing.T) {
	pat := []byte("0123456789ABCDEF")
	filler := []byte("ZYXWVUTSRQ")
	filler2 := []byte("qrstuvwxyz")
	src := append(append(append(append(append([]byte{}, pat...), filler...), pat...), filler2...), pat...)

	_, ll, ml, mo := compressBlockFast(src)
	if len(ml) < 2 {
		t.Fatalf("expected at least 2 matches, got %d", len(ml))
	}

	ctx := newEncoderContext()
	ofValues := resolveOffsetValues(ctx, append([]int{}, ll...), append([]int{}, mo...))
	sawRepeatCode := false
	for _, v := range ofValues {
		if highBit32(v) <= 1 {
			sawRepeatCode = true
		}
	}
	if !sawRepeatCode {
		t.Fatalf("ofValues = %v, want at least one with codeOF<=1", ofValues)
	}
}

func TestExecuteSequencesRejectsMatchBeforeFrameOrigin(t *testing.T) {
	out := make([]byte, 4)
	seqs := []seqVals{{ll: 0, ml: 4, mo: 10}}
	if _, err := executeSequences(seqs, nil, out, 0); err == nil {
		t.Fatal("expected an error for a match offset reaching before the frame origin")
	}
}
