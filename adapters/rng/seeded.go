package rng

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"strings"
)

// SeededAdapter implements ports.RNGPort with PCG streams. Stream
// identity is derived from the name parts and the base seed, so the same
// (run, stage, key, seed) tuple always replays the same sequence while
// distinct keys get independent streams.
type SeededAdapter struct{}

// NewSeededAdapter creates the adapter.
func NewSeededAdapter() *SeededAdapter {
	return &SeededAdapter{}
}

// SeededStream creates a deterministic generator for a named operation.
func (a *SeededAdapter) SeededStream(_ context.Context, name string, seed int64) (*rand.Rand, error) {
	return newStream(name, seed), nil
}

// Stream creates a deterministic generator for a run/stage/key tuple.
func (a *SeededAdapter) Stream(_ context.Context, runID, stageName, key string, baseSeed int64) (*rand.Rand, error) {
	return newStream(strings.Join([]string{runID, stageName, key}, "/"), baseSeed), nil
}

func newStream(name string, seed int64) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(name))
	return rand.New(rand.NewPCG(uint64(seed), h.Sum64()))
}
