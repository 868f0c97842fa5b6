// Package rscodec binds the Reed-Solomon-over-GF(256) erasure contract to
// github.com/klauspost/reedsolomon: encode a fixed number of parity shards
// from data shards, and reconstruct missing data shards from whatever
// survives.
//
// The GF(256) log/antilog tables and the Vandermonde solve itself are
// entirely the library's concern; this package only adapts shapes and
// error kinds to feck's contract.
package rscodec

import (
	"sync"

	"github.com/klauspost/reedsolomon"

	"feck/internal/errs"
)

var initOnce sync.Once

// Init performs the one-shot global initialization the codec requires to
// happen-before any Encode/Decode call. reedsolomon builds its own Galois
// tables lazily on first construction, so Init does no work itself; it
// exists to give multi-threaded callers a single documented
// happens-before point, per the concurrency model's init discipline.
func Init() {
	initOnce.Do(func() {})
}

func validateShape(k, m int) error {
	if m < 1 || m > 255 {
		return errs.New(errs.InvalidShape, "m must be in [1, 255], got %d", m)
	}
	if k < 1 {
		return errs.New(errs.InvalidShape, "k must be >= 1, got %d", k)
	}
	if k >= m {
		return errs.New(errs.InvalidShape, "k (%d) must be less than m (%d)", k, m)
	}
	return nil
}

// Encode produces the m-k repair chunks for k primary chunks, each
// chunksize bytes. primaries is read-only; the returned repair chunks are
// freshly allocated.
func Encode(primaries [][]byte, k, m, chunksize int) ([][]byte, error) {
	if err := validateShape(k, m); err != nil {
		return nil, err
	}
	if len(primaries) != k {
		return nil, errs.New(errs.InvalidShape, "expected %d primary chunks, got %d", k, len(primaries))
	}
	Init()

	enc, err := reedsolomon.New(k, m-k)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidShape, err, "constructing reed-solomon codec for k=%d m=%d", k, m)
	}

	shards := make([][]byte, m)
	copy(shards, primaries)
	for i := k; i < m; i++ {
		shards[i] = make([]byte, chunksize)
	}

	if err := enc.Encode(shards); err != nil {
		return nil, errs.Wrap(errs.SingularSystem, err, "reed-solomon encode")
	}

	repairs := make([][]byte, m-k)
	copy(repairs, shards[k:])
	return repairs, nil
}

// Decode reconstructs the k primary chunks given a k-wide set of present
// chunks and the logical block index each one occupies. present[i]'s
// logical index is blockIndices[i]; present is NOT required to be sorted
// by index, but every entry must be distinct and in [0, m).
func Decode(present [][]byte, blockIndices []int, k, m, chunksize int) ([][]byte, error) {
	if err := validateShape(k, m); err != nil {
		return nil, err
	}
	if len(present) != k || len(blockIndices) != k {
		return nil, errs.New(errs.InvalidShape,
			"decode requires exactly k=%d present chunks and indices, got %d present / %d indices",
			k, len(present), len(blockIndices))
	}

	seen := make(map[int]bool, k)
	for _, idx := range blockIndices {
		if idx < 0 || idx >= m {
			return nil, errs.New(errs.InvalidShape, "block index %d out of range [0, %d)", idx, m)
		}
		if seen[idx] {
			return nil, errs.New(errs.SingularSystem, "duplicate block index %d in decode working set", idx)
		}
		seen[idx] = true
	}

	Init()

	enc, err := reedsolomon.New(k, m-k)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidShape, err, "constructing reed-solomon codec for k=%d m=%d", k, m)
	}

	shards := make([][]byte, m)
	for i, idx := range blockIndices {
		if len(present[i]) != chunksize {
			return nil, errs.New(errs.InvalidShape, "block %d has length %d, expected chunksize %d", idx, len(present[i]), chunksize)
		}
		shards[idx] = present[i]
	}

	if err := enc.ReconstructData(shards); err != nil {
		return nil, errs.Wrap(errs.SingularSystem, err, "reed-solomon reconstruct")
	}

	recovered := make([][]byte, k)
	copy(recovered, shards[:k])
	return recovered, nil
}
