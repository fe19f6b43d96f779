package service

import "math/rand"

// Shuffle applies a uniform in-place Fisher–Yates permutation: walking from
// the last index down, each element swaps with a uniformly chosen element
// at or below it. Kept free of persistence so tests can pass a seeded rng.
func Shuffle[T any](items []T, rng *rand.Rand) {
	for i := len(items) - 1; i >= 1; i-- {
		j := rng.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
