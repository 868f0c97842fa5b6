// Package feck implements an erasure-coded redundancy codec for opaque
// byte buffers: given input bytes and two shape parameters (k, m), Prepare
// produces a self-describing recovery bundle; Repair uses that bundle to
// reconstruct the original bytes after damage to up to (m-k) of the k
// primary chunks.
package feck

import (
	"crypto/sha1"
	"io"
	"strconv"

	"golang.org/x/crypto/pbkdf2"

	"feck/internal/bundle"
	"feck/internal/diag"
	"feck/internal/digest"
	"feck/internal/errs"
)

// seedSalt is a fixed, well-known PBKDF2 salt: the secret is the
// passphrase in SeedKey, not the salt, so a constant salt is fine.
const seedSalt = "feck-digest-seed"

// Kind re-exports the error taxonomy so callers can classify failures
// without importing feck/internal/errs directly.
type Kind = errs.Kind

const (
	InvalidShape       = errs.InvalidShape
	AllocationFailed   = errs.AllocationFailed
	InvalidBundle      = errs.InvalidBundle
	UnsupportedVersion = errs.UnsupportedVersion
	LengthMismatch     = errs.LengthMismatch
	Unrepairable       = errs.Unrepairable
	SingularSystem     = errs.SingularSystem
)

// ErrorKind reports the Kind of err, and whether err is a feck error at all.
func ErrorKind(err error) (Kind, bool) {
	return errs.KindOf(err)
}

// Options bundles the ambient knobs Prepare/Repair accept beyond the
// required shape parameters: Verbosity selects the diagnostic detail level
// (0 = silent), and SeedKey, if non-empty, derives a private digest seed
// family instead of the well-known default, so two parties can agree on a
// digest key that a third party can't guess. Both prepare and repair of the
// same bundle must use the same SeedKey.
type Options struct {
	Verbosity int
	SeedKey   string
	// Diagnostics selects where verbosity output is written when
	// Verbosity > 0. If nil, diagnostics are discarded; the CLI always
	// sets this to os.Stderr.
	Diagnostics io.Writer
}

func (o Options) seed() uint64 {
	if o.SeedKey == "" {
		return digest.DefaultSeed
	}
	derived := pbkdf2.Key([]byte(o.SeedKey), []byte(seedSalt), 4096, 8, sha1.New)
	var v uint64
	for _, b := range derived {
		v = v<<8 | uint64(b)
	}
	return v
}

func (o Options) sink() *diag.Sink {
	if o.Verbosity <= 0 {
		return nil
	}
	w := o.Diagnostics
	if w == nil {
		w = io.Discard
	}
	return diag.New(w, o.Verbosity)
}

// Bundle is the self-describing recovery bundle produced by Prepare and
// consumed by Repair. It owns its backing buffer exclusively.
type Bundle struct {
	inner *bundle.Bundle
}

// Bytes returns the bundle's wire representation.
func (b Bundle) Bytes() []byte { return b.inner.Bytes() }

// K returns the number of primary chunks.
func (b Bundle) K() int { return b.inner.K() }

// M returns the total number of chunks (primary + repair).
func (b Bundle) M() int { return b.inner.M() }

// OriginalLength returns the original input length L.
func (b Bundle) OriginalLength() int { return b.inner.OriginalLength() }

// ChunkSize returns ceil(L/k), the uniform chunk size.
func (b Bundle) ChunkSize() int { return b.inner.ChunkSize() }

// ParseBundle validates buf as a well-formed FECK bundle. The returned
// Bundle holds its own copy of buf.
func ParseBundle(buf []byte) (Bundle, error) {
	inner, err := bundle.Parse(append([]byte(nil), buf...))
	if err != nil {
		return Bundle{}, err
	}
	return Bundle{inner: inner}, nil
}

// DigestHex returns the lowercase, variable-width hex digest (no "0x"
// prefix, no leading zero padding) of data[skip : skip+length] under the
// default digest seed.
func DigestHex(data []byte, skip, length int) string {
	return digestHexSeeded(data, skip, length, digest.DefaultSeed)
}

// DigestHexWithOptions is DigestHex, but honors Options.SeedKey.
func DigestHexWithOptions(data []byte, skip, length int, opts Options) string {
	return digestHexSeeded(data, skip, length, opts.seed())
}

func digestHexSeeded(data []byte, skip, length int, seed uint64) string {
	return strconv.FormatUint(digest.Sum64(data[skip:skip+length], seed), 16)
}

// Prepare produces a recovery bundle for data under shape (k, m). k is the
// number of primary chunks (2 <= k < m), m is the total chunk count
// (k < m <= 255).
func Prepare(data []byte, k, m int, opts Options) (Bundle, error) {
	inner, err := bundle.Prepare(data, k, m, opts.seed(), opts.sink())
	if err != nil {
		return Bundle{}, err
	}
	return Bundle{inner: inner}, nil
}

// Repair reconstructs data using b. If data's primary chunks are all
// intact it is returned unchanged (no RSCodec invocation, no copy).
// Otherwise damaged primaries are reconstructed from intact repair chunks;
// Repair fails with an Unrepairable error if more primaries are damaged
// than there are usable repair chunks.
func Repair(data []byte, b Bundle, opts Options) ([]byte, error) {
	return bundle.Repair(data, b.inner, opts.seed(), opts.sink())
}
