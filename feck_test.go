package feck

import (
	"bytes"
	"testing"
)

func TestDigestHexFormat(t *testing.T) {
	h := DigestHex([]byte("hello world"), 0, 11)
	if h == "" {
		t.Fatalf("expected non-empty digest hex")
	}
	for _, r := range h {
		isHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
		if !isHex {
			t.Fatalf("digest hex %q contains non-lowercase-hex rune %q", h, r)
		}
	}
	if h[0] == '0' && len(h) > 1 {
		// strconv.FormatUint never emits leading zeros unless the value is
		// exactly zero, matching %PRIx64's variable-width behavior.
		t.Fatalf("unexpected leading zero in %q", h)
	}
}

func TestDigestHexSkipAndLength(t *testing.T) {
	data := []byte("0123456789")
	whole := DigestHex(data, 0, 10)
	slice := DigestHex(data, 2, 3) // "234"
	direct := DigestHex([]byte("234"), 0, 3)
	if slice != direct {
		t.Fatalf("DigestHex(skip,len) should equal hashing the same sub-slice directly")
	}
	if slice == whole {
		t.Fatalf("expected different digests for different ranges")
	}
}

func TestPrepareRepairRoundTripNoDamage(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog, repeated for bulk. " +
		"The quick brown fox jumps over the lazy dog, repeated for bulk.")
	b, err := Prepare(data, 5, 9, Options{})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	out, err := Repair(data, b, Options{})
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("round trip mismatch")
	}
}

// Damaged-primary subsets up to the repair budget (m-k) must recover
// cleanly; a sample of such subsets, including one at the full budget, is
// checked.
func TestRepairUpToBudget(t *testing.T) {
	data := bytes.Repeat([]byte("payload-bytes-"), 30)
	const k, m = 4, 7 // budget = 3
	b, err := Prepare(data, k, m, Options{})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	chunksize := b.ChunkSize()

	subsets := [][]int{{0}, {1, 2}, {0, 1, 2}, {3}}
	for _, subset := range subsets {
		damaged := append([]byte(nil), data...)
		for _, idx := range subset {
			start := idx * chunksize
			end := start + chunksize
			if end > len(damaged) {
				end = len(damaged)
			}
			for i := start; i < end; i++ {
				damaged[i] = 0x55
			}
		}
		out, err := Repair(damaged, b, Options{})
		if err != nil {
			t.Fatalf("Repair with damaged subset %v: %v", subset, err)
		}
		if !bytes.Equal(out, data) {
			t.Fatalf("Repair with damaged subset %v produced wrong data", subset)
		}
	}
}

// Damage beyond the repair budget must fail loudly, not return wrong data.
func TestUnrepairableSubsetExceedsBudget(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 90)
	const k, m = 5, 7 // budget = 2
	b, err := Prepare(data, k, m, Options{})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	chunksize := b.ChunkSize()

	damaged := append([]byte(nil), data...)
	for idx := 0; idx < 3; idx++ { // damage 3 > budget of 2
		start := idx * chunksize
		for i := start; i < start+chunksize && i < len(damaged); i++ {
			damaged[i] ^= 0xFF
		}
	}

	_, err = Repair(damaged, b, Options{})
	kind, ok := ErrorKind(err)
	if !ok || kind != Unrepairable {
		t.Fatalf("expected Unrepairable, got %v", err)
	}
}

func TestBundleSelfDescription(t *testing.T) {
	data := bytes.Repeat([]byte{0x7}, 513)
	b, err := Prepare(data, 6, 10, Options{})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	parsed, err := ParseBundle(b.Bytes())
	if err != nil {
		t.Fatalf("ParseBundle: %v", err)
	}
	wantChunk := (513 + 6 - 1) / 6
	if parsed.K() != 6 || parsed.M() != 10 || parsed.OriginalLength() != 513 || parsed.ChunkSize() != wantChunk {
		t.Fatalf("self-description mismatch: k=%d m=%d len=%d chunksize=%d",
			parsed.K(), parsed.M(), parsed.OriginalLength(), parsed.ChunkSize())
	}
}

func TestPrepareInvalidShapeErrors(t *testing.T) {
	_, err := Prepare([]byte("x"), 1, 3, Options{})
	if kind, ok := ErrorKind(err); !ok || kind != InvalidShape {
		t.Fatalf("expected InvalidShape, got %v", err)
	}
}

func TestSeedKeyChangesDigestFamily(t *testing.T) {
	data := []byte("same content, different seed family")
	a := DigestHexWithOptions(data, 0, len(data), Options{})
	b := DigestHexWithOptions(data, 0, len(data), Options{SeedKey: "shared-secret"})
	if a == b {
		t.Fatalf("expected SeedKey to change the digest")
	}
}

func TestPrepareWithSeedKeyRequiresSameKeyToRepair(t *testing.T) {
	data := bytes.Repeat([]byte("abc"), 50)
	opts := Options{SeedKey: "family-one"}
	b, err := Prepare(data, 3, 6, opts)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	damaged := append([]byte(nil), data...)
	for i := 0; i < b.ChunkSize(); i++ {
		damaged[i] = 0
	}

	out, err := Repair(damaged, b, opts)
	if err != nil {
		t.Fatalf("Repair with matching SeedKey: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("repaired output mismatch with matching SeedKey")
	}

	if _, err := Repair(damaged, b, Options{}); err == nil {
		t.Fatalf("expected Repair with mismatched SeedKey to fail")
	}
}
