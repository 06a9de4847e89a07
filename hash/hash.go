// Package hash provides the digest algorithms that both peers of a comparison must agree
// on out of band.
package hash

import (
	"fmt"
	"io"
	"strings"

	"github.com/minio/sha256-simd"
)

// Algorithm names a digest algorithm.
type Algorithm string

const (
	// SHA256 is a 32-byte sha256 digest (minio sha256-simd).
	SHA256 Algorithm = "sha256"
	// Blake3 is a 32-byte blake3 digest.
	Blake3 Algorithm = "blake3"
	// XXHash is an 8-byte non-cryptographic xxhash64 digest.
	XXHash Algorithm = "xxhash"
)

// Default is the algorithm used unless configured otherwise.
const Default = SHA256

// Algorithms returns all supported algorithms.
func Algorithms() []Algorithm {
	return []Algorithm{SHA256, Blake3, XXHash}
}

// ParseAlgorithm parses an algorithm name, ignoring case.
func ParseAlgorithm(s string) (Algorithm, error) {
	alg := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Algorithms() {
		if alg == known {
			return alg, nil
		}
	}
	return "", fmt.Errorf("unknown hash algorithm %q (options %v)", s, Algorithms())
}

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	return string(a)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Algorithm) UnmarshalText(text []byte) error {
	alg, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = alg
	return nil
}

// Hasher computes fixed-width digests with a single algorithm.
// The zero value is not usable, use New.
type Hasher struct {
	alg  Algorithm
	size int
}

// New returns a Hasher for the algorithm.
func New(alg Algorithm) (*Hasher, error) {
	switch alg {
	case SHA256:
		return &Hasher{alg: alg, size: sha256.Size}, nil
	case Blake3:
		return &Hasher{alg: alg, size: 32}, nil
	case XXHash:
		return &Hasher{alg: alg, size: 8}, nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", alg)
	}
}

// MustNew is like New but panics on unknown algorithms. Meant for tests and constants.
func MustNew(alg Algorithm) *Hasher {
	h, err := New(alg)
	if err != nil {
		panic(err)
	}
	return h
}

// Algorithm returns the digest algorithm.
func (h *Hasher) Algorithm() Algorithm {
	return h.alg
}

// Size returns the digest width in bytes.
func (h *Hasher) Size() int {
	return h.size
}

// Sum returns the digest of the concatenation of parts. It is safe for concurrent use.
func (h *Hasher) Sum(parts ...[]byte) []byte {
	hasher := acquire(h.alg)
	defer release(h.alg, hasher)
	for _, p := range parts {
		hasher.Write(p) // never returns an error: https://golang.org/pkg/hash/#Hash
	}
	return hasher.Sum(make([]byte, 0, h.size))
}

// SumReader digests everything r yields until EOF without holding it in memory. It
// returns the digest and the number of bytes read.
func (h *Hasher) SumReader(r io.Reader) ([]byte, int64, error) {
	hasher := acquire(h.alg)
	defer release(h.alg, hasher)
	n, err := io.Copy(hasher, r)
	if err != nil {
		return nil, n, err
	}
	return hasher.Sum(make([]byte, 0, h.size)), n, nil
}
