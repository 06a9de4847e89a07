package hash

import (
	stdhash "hash"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/minio/sha256-simd"
	"github.com/zeebo/blake3"
)

// A tree of a large file computes millions of small digests, so hasher state is reused.
var pools = map[Algorithm]*sync.Pool{
	SHA256: {New: func() any { return sha256.New() }},
	Blake3: {New: func() any { return blake3.New() }},
	XXHash: {New: func() any { return xxhash.New() }},
}

// acquire returns a reset hasher for alg. It must be handed back with release.
func acquire(alg Algorithm) stdhash.Hash {
	return pools[alg].Get().(stdhash.Hash)
}

func release(alg Algorithm, hasher stdhash.Hash) {
	hasher.Reset()
	pools[alg].Put(hasher)
}
