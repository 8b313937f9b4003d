package services

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// RandomSource picks a uniformly distributed index in [0, n).
// *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	IntN(n int) int
}

// RandomFactory builds the random source of one raffle from its seed.
type RandomFactory func(seed uint64) RandomSource

// pcgStream is the fixed second PCG word; the seed alone decides the stream.
const pcgStream = 0x9e3779b97f4a7c15

// NewSeededRandom returns a reproducible source for the seed.
func NewSeededRandom(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, pcgStream))
}

// CryptoSeed draws a non-zero seed from the operating system's CSPRNG.
func CryptoSeed() (uint64, error) {
	var b [8]byte
	for {
		if _, err := crand.Read(b[:]); err != nil {
			return 0, fmt.Errorf("failed to read random seed: %w", err)
		}
		if seed := binary.LittleEndian.Uint64(b[:]); seed != 0 {
			return seed, nil
		}
	}
}

// Shuffle permutes items in place (Fisher–Yates).
func Shuffle[T any](random RandomSource, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := random.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
