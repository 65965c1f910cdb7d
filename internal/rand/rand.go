// Package rand generates short alphanumeric request identifiers for wire
// frames. Not security-critical; the generator is seeded once from
// crypto/rand and then runs a cheap PCG.
package rand

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var source = newSource()

type lockedRand struct {
	mut sync.Mutex
	rng *rand.Rand
}

func newSource() *lockedRand {
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		panic("unreachable")
	}

	//nolint:gosec // request ids do not need a CSPRNG
	return &lockedRand{
		rng: rand.New(rand.NewPCG(
			binary.LittleEndian.Uint64(seed[:8]),
			binary.LittleEndian.Uint64(seed[8:]),
		)),
	}
}

// NewRequestID returns a random string of the given length drawn from the
// alphanumeric charset.
func NewRequestID(length int) string {
	buf := make([]byte, length)

	source.mut.Lock()
	for i := range buf {
		buf[i] = charset[source.rng.IntN(len(charset))]
	}
	source.mut.Unlock()

	return string(buf)
}
