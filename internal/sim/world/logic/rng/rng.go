// Package rng supplies the uniform integer source consumed by dungeon generation.
package rng

import (
	"fmt"
	"math/rand"

	"dungeoncraft.ai/internal/sim/world/logic/mathx"
)

// Source is a seeded uniform integer generator. Not safe for concurrent use.
type Source struct {
	seed int64
	r    *rand.Rand
}

func New(seed int64) *Source {
	return &Source{seed: seed, r: rand.New(rand.NewSource(seed))}
}

// ForChunk derives an independent stream for one chunk coordinate, so a chunk
// regenerates identically no matter which order chunks are built in.
func ForChunk(worldSeed int64, cx, cy int) *Source {
	return New(int64(mathx.Hash2(worldSeed, cx, cy)))
}

func (s *Source) Seed() int64 { return s.seed }

// UniformInt returns a value in [lo, hi], both inclusive.
func (s *Source) UniformInt(lo, hi int) int {
	if hi < lo {
		panic(fmt.Sprintf("rng: empty range [%d, %d]", lo, hi))
	}
	return lo + s.r.Intn(hi-lo+1)
}
