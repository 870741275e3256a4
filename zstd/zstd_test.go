package zstd

import (
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
)

func roundTrip(t *testing.T, b []byte) []byte {
	t.Helper()
	compressed, err := Compress(nil, b)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	decompressed, err := Decompress(nil, compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if diff := cmp.Diff(b, decompressed); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	return compressed
}

func TestEmptyInput(t *testing.T) {
	compressed := roundTrip(t, nil)

	wantMagic := []byte{0x28, 0xb5, 0x2f, 0xfd}
	if !bytes.Equal(compressed[:4], wantMagic) {
		t.Errorf("magic = % x, want % x", compressed[:4], wantMagic)
	}
	fhd := compressed[4]
	if fhd>>6 != 0 {
		t.Errorf("content-size descriptor = %d, want 0", fhd>>6)
	}
	if fhd&(1<<2) == 0 {
		t.Error("checksum bit should be set")
	}

	// magic(4) + fhd(1) + single-segment 1-byte content size(1) +
	// one last RAW block header of size 0 (3) + checksum(4)
	const want = 4 + 1 + 1 + 3 + 4
	if len(compressed) != want {
		t.Errorf("compressed length = %d, want %d", len(compressed), want)
	}

	blockHeaderOff := 6
	bh, err := decodeBlockHeader(compressed[blockHeaderOff:], int64(blockHeaderOff))
	if err != nil {
		t.Fatalf("decodeBlockHeader: %v", err)
	}
	if !bh.last || bh.blockType != BlockRaw || bh.size != 0 {
		t.Errorf("block header = %+v, want {last:true blockType:raw size:0}", bh)
	}

	checksum := compressed[len(compressed)-4:]
	wantChecksum := []byte{0x99, 0xe9, 0xd8, 0x51}
	if !bytes.Equal(checksum, wantChecksum) {
		t.Errorf("checksum = % x, want % x", checksum, wantChecksum)
	}
}

func TestRepeatedByteRLE(t *testing.T) {
	b := bytes.Repeat([]byte{0xAA}, 4096)
	compressed := roundTrip(t, b)
	if len(compressed) >= len(b) {
		t.Errorf("compressed length %d not smaller than input %d", len(compressed), len(b))
	}
}

func TestRepeatedSequenceOffset(t *testing.T) {
	b := make([]byte, 512)
	for i := 0; i < 256; i++ {
		b[i] = byte(i)
		b[i+256] = byte(i)
	}
	roundTrip(t, b)
}

// TestRepeatedSequenceOffsetThroughRealEncoder builds input whose
// matches genuinely reuse a byte distance (rather than relying on a
// hand-built seqVals, as TestExecuteSequencesRepeatedOffset in
// sequences_test.go does) and checks the Encoder's real match finder
// and sequence encoder round-trip it, end to end through EncodeAll
// and Decoder.DecodeAll.
func TestRepeatedSequenceOffsetThroughRealEncoder(t *testing.T) {
	pat := []byte("0123456789ABCDEF")
	fillers := []string{"ZYXWVUTSRQ", "qrstuvwxyz", "!@#$%^&*()"}
	var b []byte
	for i := 0; i < 3; i++ {
		b = append(b, pat...)
		b = append(b, fillers[i]...)
	}
	b = append(b, pat...)

	roundTrip(t, b)
}

func TestNaturalLanguageCorpus(t *testing.T) {
	var sb strings.Builder
	sentence := "The quick brown fox jumps over the lazy dog while the committee deliberates on the annual budget report. "
	for sb.Len() < 64<<10 {
		sb.WriteString(sentence)
	}
	b := []byte(sb.String())[:64<<10]

	compressed := roundTrip(t, b)
	if len(compressed) >= len(b) {
		t.Errorf("compressed length %d not smaller than input %d", len(compressed), len(b))
	}
}

func TestMultiBlockRandomBytes(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	b := make([]byte, 130<<10)
	rng.Read(b)

	compressed := roundTrip(t, b)

	blocks := 0
	in := compressed
	fh, n, err := decodeFrameHeader(in)
	if err != nil {
		t.Fatalf("decodeFrameHeader: %v", err)
	}
	_ = fh
	in = in[n:]
	for {
		bh, err := decodeBlockHeader(in, 0)
		if err != nil {
			t.Fatalf("decodeBlockHeader: %v", err)
		}
		blocks++
		in = in[SizeOfBlockHeader+bh.size:]
		if bh.last {
			break
		}
	}
	if blocks < 2 {
		t.Errorf("frame has %d blocks, want at least 2", blocks)
	}
}

func TestMalformedBlockSizeExceedsInput(t *testing.T) {
	b := []byte("hello, world, this is a test of malformed input handling")
	compressed := roundTrip(t, b)

	// The first block header starts right after the frame header; mutate
	// its size field so the declared block size exceeds what remains.
	fh, n, err := decodeFrameHeader(compressed)
	if err != nil {
		t.Fatalf("decodeFrameHeader: %v", err)
	}
	_ = fh
	mutated := append([]byte{}, compressed...)
	mutated[n+1] = 0xFF
	mutated[n+2] = 0xFF

	if _, err := Decompress(nil, mutated); err == nil {
		t.Fatal("expected an error for a block size exceeding the remaining input")
	}
}

// TestFlippedByteNeverSilentlyCorrupts flips every byte past the
// magic number one at a time; a multierror.Error accumulates every
// offset that violates the invariant so a failing run reports every
// bad offset at once instead of just the first.
func TestFlippedByteNeverSilentlyCorrupts(t *testing.T) {
	b := []byte("some reasonably compressible text text text text text")
	compressed := roundTrip(t, b)

	var result *multierror.Error
	for i := 5; i < len(compressed); i++ {
		mutated := append([]byte{}, compressed...)
		mutated[i] ^= 0xFF
		out, err := Decompress(nil, mutated)
		if err == nil && !bytes.Equal(out, b) {
			result = multierror.Append(result, fmt.Errorf("byte %d flipped: decoded without error to a different result", i))
		}
	}
	if result != nil {
		t.Fatal(result)
	}
}

func TestTruncatedFrameErrors(t *testing.T) {
	b := []byte("truncate me please, this needs to be long enough to span blocks of logic")
	compressed := roundTrip(t, b)

	var result *multierror.Error
	for n := len(compressed) - 1; n > 0; n-- {
		if _, err := Decompress(nil, compressed[:n]); err == nil {
			result = multierror.Append(result, fmt.Errorf("truncated to %d of %d bytes: expected an error", n, len(compressed)))
		}
	}
	if result != nil {
		t.Fatal(result)
	}
}

func TestDecoderRejectsWindowAboveConfiguredLimit(t *testing.T) {
	b := make([]byte, 200000)
	enc, err := NewEncoder(WithEncoderWindow(1 << 20))
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	compressed, err := enc.EncodeAll(b, nil)
	if err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}

	dec, err := NewDecoder(WithDecoderMaxWindow(1 << 16))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	if _, err := dec.DecodeAll(compressed, nil); err == nil {
		t.Fatal("expected an error for a frame whose window exceeds the configured limit")
	}
}

func TestWithEncoderChecksumDisabled(t *testing.T) {
	enc, err := NewEncoder(WithEncoderChecksum(false))
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	b := []byte("no checksum wanted here")
	compressed, err := enc.EncodeAll(b, nil)
	if err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}
	fh, _, err := decodeFrameHeader(compressed)
	if err != nil {
		t.Fatalf("decodeFrameHeader: %v", err)
	}
	if fh.hasChecksum {
		t.Error("expected the checksum flag to be unset")
	}
	decompressed, err := Decompress(nil, compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(decompressed, b) {
		t.Fatalf("round trip mismatch")
	}
}

func TestGetDecompressedSize(t *testing.T) {
	b := []byte("some content of known length")
	compressed, err := Compress(nil, b)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	size, err := GetDecompressedSize(compressed)
	if err != nil {
		t.Fatalf("GetDecompressedSize: %v", err)
	}
	if size != int64(len(b)) {
		t.Errorf("size = %d, want %d", size, len(b))
	}
}
