package zstd

import (
	"bytes"
	"testing"

	"github.com/AlvinKuruvilla/frasc/bitio"
)

func TestCompressBlockFastFindsRepeat(t *testing.T) {
	src := make([]byte, 512)
	for i := range src[:256] {
		src[i] = byte(i)
	}
	copy(src[256:], src[:256])

	literals, ll, ml, mo := compressBlockFast(src)
	if len(ml) == 0 {
		t.Fatal("expected at least one match")
	}

	var rebuilt []byte
	litPos := 0
	for i := range ml {
		rebuilt = append(rebuilt, literals[litPos:litPos+ll[i]]...)
		litPos += ll[i]
		start := len(rebuilt) - mo[i]
		for j := 0; j < ml[i]; j++ {
			rebuilt = append(rebuilt, rebuilt[start+j])
		}
	}
	rebuilt = append(rebuilt, literals[litPos:]...)

	if !bytes.Equal(rebuilt, src) {
		t.Fatalf("reassembled %d bytes, want %d matching bytes", len(rebuilt), len(src))
	}
}

func TestCompressBlockFastNoMatchesIsLossless(t *testing.T) {
	src := []byte("abc")
	literals, ll, ml, mo := compressBlockFast(src)
	if len(ml) != 0 {
		t.Fatalf("expected no matches in a 3-byte input, got %d", len(ml))
	}
	if !bytes.Equal(literals, src) {
		t.Fatalf("literals = %q, want %q", literals, src)
	}
	_ = ll
	_ = mo
}

func TestMatchLengthAt(t *testing.T) {
	src := []byte("abcabcabcX")
	if n := matchLengthAt(src, 0, 3); n != 6 {
		t.Errorf("matchLengthAt = %d, want 6", n)
	}
}

// TestResolveOffsetValuesFindsRepeat builds an input with two matches
// separated by equal-length filler, so both matches share one byte
// distance. The first occurrence has to spell that distance out in
// full; the second should come back as Offset_Value 1, the code for
// "reuse the most recent offset", exercising the same substitution a
// real encoder relies on to shrink repetitive structured data. The
// sequences section built around it is then run back through the
// decoder to confirm the substitution really is a correct inverse of
// decodeSequences' own repeated-offset resolution, not merely a
// plausible-looking small number.
func TestResolveOffsetValuesFindsRepeat(t *testing.T) {
	pat := []byte("0123456789ABCDEF")
	filler := []byte("ZYXWVUTSRQ")
	filler2 := []byte("qrstuvwxyz")
	src := append(append(append(append(append([]byte{}, pat...), filler...), pat...), filler2...), pat...)

	literals, ll, ml, mo := compressBlockFast(src)
	if len(ml) < 2 {
		t.Fatalf("expected at least 2 matches, got %d", len(ml))
	}

	probeValues := resolveOffsetValues(newEncoderContext(), ll, mo)
	foundRepeat := false
	for _, v := range probeValues {
		if v == 1 {
			foundRepeat = true
		}
	}
	if !foundRepeat {
		t.Fatalf("ofValues = %v, want at least one Offset_Value of 1 (a repeated-offset code)", probeValues)
	}

	body, err := appendSequencesSection(newEncoderContext(), nil, ll, ml, mo)
	if err != nil {
		t.Fatalf("appendSequencesSection: %v", err)
	}
	count, consumed, err := decodeSequenceCount(body)
	if err != nil {
		t.Fatalf("decodeSequenceCount: %v", err)
	}
	rest := body[consumed:]

	decCtx := newDecoderContext()
	modeConsumed, err := decodeSeqTables(decCtx, rest)
	if err != nil {
		t.Fatalf("decodeSeqTables: %v", err)
	}
	rest = rest[modeConsumed:]

	var r bitio.Reader
	if err := r.Init(rest); err != nil {
		t.Fatalf("bitio.Reader.Init: %v", err)
	}
	seqs, err := decodeSequences(decCtx, &r, count, len(literals))
	if err != nil {
		t.Fatalf("decodeSequences: %v", err)
	}
	for i, sv := range seqs {
		if sv.mo != mo[i] || sv.ll != ll[i] || sv.ml != ml[i] {
			t.Errorf("sequence %d: got {ll:%d ml:%d mo:%d}, want {ll:%d ml:%d mo:%d}",
				i, sv.ll, sv.ml, sv.mo, ll[i], ml[i], mo[i])
		}
	}
}
