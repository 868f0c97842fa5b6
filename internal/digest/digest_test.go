package digest

import "testing"

func TestSum64Deterministic(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	a := Sum64(data, DefaultSeed)
	b := Sum64(data, DefaultSeed)
	if a != b {
		t.Fatalf("Sum64 not deterministic: %x != %x", a, b)
	}
}

func TestSum64DiffersOnContent(t *testing.T) {
	a := Sum64([]byte("chunk-a"), DefaultSeed)
	b := Sum64([]byte("chunk-b"), DefaultSeed)
	if a == b {
		t.Fatalf("expected different digests for different content")
	}
}

func TestSum64DiffersOnSeed(t *testing.T) {
	data := []byte("same bytes, different seed")
	a := Sum64(data, DefaultSeed)
	b := Sum64(data, 0x12345678)
	if a == b {
		t.Fatalf("expected different digests for different seeds")
	}
}

func TestSum64EmptyInput(t *testing.T) {
	// must not panic, and must be a pure function of (data, seed)
	a := Sum64(nil, DefaultSeed)
	b := Sum64([]byte{}, DefaultSeed)
	if a != b {
		t.Fatalf("expected nil and empty slice to hash identically")
	}
}

func TestSum64VariousLengths(t *testing.T) {
	seen := make(map[uint64]int)
	for n := 0; n < 40; n++ {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i*7 + 1)
		}
		h := Sum64(data, DefaultSeed)
		seen[h]++
	}
	for h, count := range seen {
		if count > 1 {
			t.Fatalf("digest %x collided across %d distinct lengths/contents", h, count)
		}
	}
}
