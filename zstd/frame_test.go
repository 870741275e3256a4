package zstd

import "testing"

func TestDecodeFrameHeaderMagicMismatch(t *testing.T) {
	_, _, err := decodeFrameHeader([]byte{0, 0, 0, 0, 0})
	if err == nil {
		t.Fatal("expected an error for a bad magic number")
	}
}

func TestDecodeFrameHeaderLegacy(t *testing.T) {
	in := append([]byte{}, legacyFrameMagic[:]...)
	in = append(in, 0, 0, 0)
	_, _, err := decodeFrameHeader(in)
	if err == nil {
		t.Fatal("expected an error for a legacy frame")
	}
}

func TestAppendDecodeFrameHeaderRoundTrip(t *testing.T) {
	cases := []struct {
		name        string
		contentSize uint64
		windowSize  uint64
	}{
		{"empty", 0, MaxBlockSize},
		{"small", 10, MaxBlockSize},
		{"exactly256", 256, MaxBlockSize},
		{"mid", 70000, MaxBlockSize},
		{"large", 1 << 24, MaxBlockSize},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dst, err := appendFrameHeader(nil, tc.contentSize, true, tc.windowSize, true)
			if err != nil {
				t.Fatalf("appendFrameHeader: %v", err)
			}
			fh, n, err := decodeFrameHeader(dst)
			if err != nil {
				t.Fatalf("decodeFrameHeader: %v", err)
			}
			if n != len(dst) {
				t.Errorf("consumed %d bytes, want %d", n, len(dst))
			}
			if !fh.hasContentSize || fh.contentSize != tc.contentSize {
				t.Errorf("contentSize = %d (has=%v), want %d", fh.contentSize, fh.hasContentSize, tc.contentSize)
			}
			if !fh.hasChecksum {
				t.Error("expected checksum flag to be set")
			}
		})
	}
}

func TestAppendFrameHeaderEmptyMatchesFixedBytes(t *testing.T) {
	dst, err := appendFrameHeader(nil, 0, true, MaxBlockSize, true)
	if err != nil {
		t.Fatalf("appendFrameHeader: %v", err)
	}
	if len(dst) < 5 {
		t.Fatalf("frame header too short: %d bytes", len(dst))
	}
	wantMagic := []byte{0x28, 0xb5, 0x2f, 0xfd}
	for i, b := range wantMagic {
		if dst[i] != b {
			t.Errorf("magic[%d] = %#x, want %#x", i, dst[i], b)
		}
	}
	fhd := dst[4]
	if fhd>>6 != 0 {
		t.Errorf("content-size descriptor = %d, want 0", fhd>>6)
	}
	if fhd&(1<<2) == 0 {
		t.Error("checksum bit should be set")
	}
}

func TestAppendFrameHeaderRejectsUnrepresentableWindow(t *testing.T) {
	_, err := appendFrameHeader(nil, 1<<30, false, 1<<9, true)
	if err == nil {
		t.Fatal("expected an error for a window size below the minimum window log")
	}
}
