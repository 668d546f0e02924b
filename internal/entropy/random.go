// Package entropy owns the seeding discipline for every stochastic model.
// No model touches process-wide random state: each draws from a *rand.Rand
// built from a seed that is either supplied by the caller or derived from the
// request ID, then split into independent streams by name and index.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Stream names used when deriving child seeds.
const (
	StreamMarket      = "market"
	StreamTrial       = "trial"
	StreamTrialMarket = "trial-market"
)

// RequestSeed hashes a request ID into a seed. Identical IDs give identical
// seeds, distinct concurrent requests get uncorrelated streams.
func RequestSeed(id uuid.UUID) int64 {
	return nonZero(int64(xxhash.Sum64(id[:])))
}

// Derive returns the seed of the index-th member of a named stream. The result
// depends only on its inputs, so trial i sees the same draws no matter which
// worker runs it.
func Derive(seed int64, stream string, index int) int64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(seed))
	binary.LittleEndian.PutUint64(buf[8:], uint64(index))

	d := xxhash.New()
	d.Write(buf[:8])
	d.WriteString(stream)
	d.Write(buf[8:])
	return nonZero(int64(d.Sum64()))
}

// New returns a generator for the given seed. Not safe for concurrent use;
// each goroutine derives its own.
func New(seed int64) *mrand.Rand {
	return mrand.New(mrand.NewSource(seed))
}

// Resolve picks the seed for a request: an explicit non-zero seed wins,
// otherwise the request ID is hashed, and with neither a fresh seed is drawn.
func Resolve(explicit int64, id uuid.UUID) int64 {
	if explicit != 0 {
		return explicit
	}
	if id != uuid.Nil {
		return RequestSeed(id)
	}
	return NewSeed()
}

// NewSeed draws a seed from crypto/rand.
func NewSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand does not fail on supported platforms.
		return 42
	}
	return nonZero(int64(binary.LittleEndian.Uint64(buf[:]) >> 1))
}

// Zero is reserved for "derive one for me".
func nonZero(s int64) int64 {
	if s == 0 {
		return 1
	}
	return s
}
