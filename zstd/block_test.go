package zstd

import "testing"

func TestAppendDecodeBlockHeaderRoundTrip(t *testing.T) {
	cases := []struct {
		last bool
		bt   BlockType
		size int
	}{
		{true, BlockRaw, 0},
		{false, BlockRaw, 17},
		{true, BlockRLE, 4096},
		{false, BlockCompressed, MaxBlockSize - 1},
	}
	for _, tc := range cases {
		dst := appendBlockHeader(nil, tc.last, tc.bt, tc.size)
		if len(dst) != SizeOfBlockHeader {
			t.Fatalf("block header is %d bytes, want %d", len(dst), SizeOfBlockHeader)
		}
		bh, err := decodeBlockHeader(dst, 0)
		if err != nil {
			t.Fatalf("decodeBlockHeader: %v", err)
		}
		if bh.last != tc.last || bh.blockType != tc.bt || bh.size != tc.size {
			t.Errorf("got %+v, want {last:%v blockType:%v size:%d}", bh, tc.last, tc.bt, tc.size)
		}
	}
}

func TestDecodeBlockHeaderRejectsReserved(t *testing.T) {
	dst := appendBlockHeader(nil, true, BlockReserved, 0)
	if _, err := decodeBlockHeader(dst, 0); err == nil {
		t.Fatal("expected an error for the reserved block type")
	}
}

func TestDecodeBlockHeaderRejectsOversizeBlock(t *testing.T) {
	dst := appendBlockHeader(nil, true, BlockRaw, MaxBlockSize+1)
	if _, err := decodeBlockHeader(dst, 0); err == nil {
		t.Fatal("expected an error for a block size exceeding MaxBlockSize")
	}
}

func TestMinGain(t *testing.T) {
	if g := minGain(0); g != 2 {
		t.Errorf("minGain(0) = %d, want 2", g)
	}
	if g := minGain(1 << 12); g <= 0 {
		t.Errorf("minGain(4096) = %d, want > 0", g)
	}
}
