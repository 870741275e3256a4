package xxhash64

import "testing"

func TestSum64Empty(t *testing.T) {
	got := Sum64(nil)
	const want uint64 = 0xEF46DB3751D8E999
	if got != want {
		t.Errorf("Sum64(nil) = %#x, want %#x", got, want)
	}
}

func TestSum64IncrementalMatchesOneShot(t *testing.T) {
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i * 7)
	}
	want := Sum64(data)

	d := New()
	for _, chunk := range [][]byte{data[:3], data[3:17], data[17:100], data[100:]} {
		if _, err := d.Write(chunk); err != nil {
			t.Fatal(err)
		}
	}
	if got := d.Sum64(); got != want {
		t.Errorf("incremental Sum64 = %#x, want %#x", got, want)
	}
}

func TestSum64DistinguishesInputs(t *testing.T) {
	a := Sum64([]byte("hello"))
	b := Sum64([]byte("hellp"))
	if a == b {
		t.Error("expected different hashes for different inputs")
	}
}
