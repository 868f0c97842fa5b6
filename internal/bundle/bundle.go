// Package bundle implements the framing and repair-orchestration layer:
// it lays out the "FECK" bundle header and repair payload during
// preparation, and parses a bundle and drives internal/rscodec during
// repair.
package bundle

import (
	"encoding/binary"

	"feck/internal/diag"
	"feck/internal/digest"
	"feck/internal/errs"
	"feck/internal/rscodec"
)

const (
	magic0, magic1, magic2, magic3 = 'F', 'E', 'C', 'K'
	version                        = 1

	offMagic     = 0
	offVersion   = 4
	offReserved  = 5
	offK         = 6
	offM         = 7
	offOrigLen   = 8
	offChunkSize = 12
	offDigests   = 16
	digestWidth  = 8
)

// headerSize returns the fixed-plus-digest-table header size for m chunks.
func headerSize(m int) int { return offDigests + digestWidth*m }

// Bundle is a byte buffer with the FECK header/payload layout. A Bundle
// built by Prepare owns a freshly allocated buffer; FromBytes and Parse
// wrap the caller's buffer without copying it. Callers get read views via
// its accessors rather than raw pointer arithmetic.
type Bundle struct {
	buf []byte
}

// FromBytes wraps a pre-built bundle buffer without copying or validating
// it; use Parse to validate a buffer of unknown provenance.
func FromBytes(buf []byte) *Bundle { return &Bundle{buf: buf} }

// Bytes returns the bundle's raw wire representation.
func (b *Bundle) Bytes() []byte { return b.buf }

func (b *Bundle) K() int                { return int(b.buf[offK]) }
func (b *Bundle) M() int                { return int(b.buf[offM]) }
func (b *Bundle) OriginalLength() int   { return int(binary.LittleEndian.Uint32(b.buf[offOrigLen:])) }
func (b *Bundle) ChunkSize() int        { return int(binary.LittleEndian.Uint32(b.buf[offChunkSize:])) }
func (b *Bundle) digestAt(idx int) uint64 {
	off := offDigests + idx*digestWidth
	return binary.LittleEndian.Uint64(b.buf[off:])
}
func (b *Bundle) setDigestAt(idx int, v uint64) {
	off := offDigests + idx*digestWidth
	binary.LittleEndian.PutUint64(b.buf[off:], v)
}

// repairChunk returns a view (not a copy) of repair chunk j.
func (b *Bundle) repairChunk(j int) []byte {
	base := headerSize(b.M())
	chunksize := b.ChunkSize()
	start := base + j*chunksize
	return b.buf[start : start+chunksize]
}

// Parse validates a buffer as a well-formed FECK bundle header and returns
// a Bundle view over it (no copy). It does not validate repair-payload
// length against the declared chunksize/m beyond what Prepare/Repair need;
// Repair re-derives everything it reads directly from the header.
func Parse(buf []byte) (*Bundle, error) {
	if len(buf) < offDigests {
		return nil, errs.New(errs.InvalidBundle, "bundle too short (%d bytes) to contain a header", len(buf))
	}
	if buf[offMagic] != magic0 || buf[offMagic+1] != magic1 || buf[offMagic+2] != magic2 || buf[offMagic+3] != magic3 {
		return nil, errs.New(errs.InvalidBundle, "magic bytes do not match 'FECK'")
	}
	if int(buf[offVersion]) != version {
		return nil, errs.New(errs.UnsupportedVersion, "bundle version %d not supported (want %d)", buf[offVersion], version)
	}
	k := int(buf[offK])
	m := int(buf[offM])
	if k < 2 || k >= m || m > 255 {
		return nil, errs.New(errs.InvalidShape, "invalid shape in bundle header: k=%d m=%d", k, m)
	}
	if len(buf) < headerSize(m) {
		return nil, errs.New(errs.InvalidBundle, "bundle truncated: need at least %d header bytes, have %d", headerSize(m), len(buf))
	}
	return &Bundle{buf: buf}, nil
}

// lastChunkFromTail returns the zero-padded copy of the final primary
// chunk, built from the tail of data.
func lastChunkFromTail(data []byte, k, chunksize int) []byte {
	last := make([]byte, chunksize)
	copy(last, data[(k-1)*chunksize:])
	return last
}

// Prepare builds a recovery bundle for data under shape (k, m). seed
// selects the digest key family (digest.DefaultSeed for the standard,
// interoperable choice).
func Prepare(data []byte, k, m int, seed uint64, sink *diag.Sink) (*Bundle, error) {
	if k < 2 || k >= m || m > 255 {
		return nil, errs.New(errs.InvalidShape, "require 2 <= k < m <= 255, got k=%d m=%d", k, m)
	}
	l := len(data)
	if l < 1 {
		return nil, errs.New(errs.InvalidShape, "data must be non-empty")
	}

	chunksize := (l + k - 1) / k
	padding := k*chunksize - l
	sink.Shape(k, m, l, chunksize, padding)

	lastChunk := lastChunkFromTail(data, k, chunksize)

	nRepair := m - k
	total := headerSize(m) + nRepair*chunksize
	buf := make([]byte, total)
	buf[offMagic] = magic0
	buf[offMagic+1] = magic1
	buf[offMagic+2] = magic2
	buf[offMagic+3] = magic3
	buf[offVersion] = version
	buf[offReserved] = 0
	buf[offK] = byte(k)
	buf[offM] = byte(m)
	binary.LittleEndian.PutUint32(buf[offOrigLen:], uint32(l))
	binary.LittleEndian.PutUint32(buf[offChunkSize:], uint32(chunksize))

	b := &Bundle{buf: buf}

	primaries := make([][]byte, k)
	for i := 0; i < k-1; i++ {
		chunk := data[i*chunksize : (i+1)*chunksize]
		primaries[i] = chunk
		b.setDigestAt(i, digest.Sum64(chunk, seed))
	}
	primaries[k-1] = lastChunk
	b.setDigestAt(k-1, digest.Sum64(lastChunk, seed))

	repairs, err := rscodec.Encode(primaries, k, m, chunksize)
	if err != nil {
		return nil, err
	}
	if len(repairs) != nRepair {
		return nil, errs.New(errs.AllocationFailed, "codec returned %d repair chunks, expected %d", len(repairs), nRepair)
	}
	base := headerSize(m)
	for j, repair := range repairs {
		dst := buf[base+j*chunksize : base+(j+1)*chunksize]
		copy(dst, repair)
		b.setDigestAt(k+j, digest.Sum64(dst, seed))
	}

	return b, nil
}

// Repair attempts to recover data against bundle. If data's primaries are
// all intact, it is returned unchanged (same backing array, no copy and no
// RSCodec invocation). Otherwise the damaged primaries are reconstructed
// from intact repair chunks, subject to the available repair budget.
func Repair(data []byte, b *Bundle, seed uint64, sink *diag.Sink) ([]byte, error) {
	k, m := b.K(), b.M()
	l := b.OriginalLength()
	chunksize := b.ChunkSize()

	if len(data) != l {
		return nil, errs.New(errs.LengthMismatch, "bundle expects data length %d, got %d", l, len(data))
	}
	sink.Shape(k, m, l, chunksize, k*chunksize-l)

	lastChunkLen := l % chunksize
	if lastChunkLen == 0 {
		lastChunkLen = chunksize
	}
	lastChunk := make([]byte, chunksize)
	copy(lastChunk, data[(k-1)*chunksize:(k-1)*chunksize+lastChunkLen])

	goodPrimary := make([]bool, k)
	nGoodPrimary := 0
	for i := 0; i < k; i++ {
		var actual uint64
		if i == k-1 {
			actual = digest.Sum64(lastChunk, seed)
		} else {
			actual = digest.Sum64(data[i*chunksize:(i+1)*chunksize], seed)
		}
		expected := b.digestAt(i)
		ok := actual == expected
		sink.DigestCheck("primary", i, expected, actual, ok)
		goodPrimary[i] = ok
		if ok {
			nGoodPrimary++
		}
	}
	nBadPrimary := k - nGoodPrimary

	nRepair := m - k
	goodRepair := make([]bool, nRepair)
	nGoodRepair := 0
	for j := 0; j < nRepair; j++ {
		chunk := b.repairChunk(j)
		actual := digest.Sum64(chunk, seed)
		expected := b.digestAt(k + j)
		ok := actual == expected
		sink.DigestCheck("repair", j, expected, actual, ok)
		goodRepair[j] = ok
		if ok {
			nGoodRepair++
		}
	}

	if nBadPrimary == 0 {
		sink.Feasibility(0, nGoodRepair, true)
		return data, nil
	}
	if nBadPrimary > nGoodRepair {
		sink.Feasibility(nBadPrimary, nGoodRepair, false)
		return nil, errs.New(errs.Unrepairable, "%d bad primaries, only %d usable repair chunks available", nBadPrimary, nGoodRepair)
	}
	sink.Feasibility(nBadPrimary, nGoodRepair, true)

	present := make([][]byte, k)
	blockIndices := make([]int, k)
	repairCursor := 0
	for i := 0; i < k; i++ {
		if goodPrimary[i] {
			if i == k-1 {
				present[i] = lastChunk
			} else {
				present[i] = data[i*chunksize : (i+1)*chunksize]
			}
			blockIndices[i] = i
			continue
		}
		for !goodRepair[repairCursor] {
			repairCursor++
		}
		present[i] = b.repairChunk(repairCursor)
		blockIndices[i] = k + repairCursor
		repairCursor++
	}

	recovered, err := rscodec.Decode(present, blockIndices, k, m, chunksize)
	if err != nil {
		return nil, err
	}

	out := make([]byte, l)
	for i := 0; i < k; i++ {
		start := i * chunksize
		end := start + chunksize
		if end > l {
			end = l
		}
		if start >= l {
			break
		}
		copy(out[start:end], recovered[i])
	}
	return out, nil
}
