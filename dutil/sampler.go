package dutil

import (
	"fmt"
	"math/rand"
)

// Sampler yields batches of sample indices.
type Sampler interface {
	// Sample returns all batches of one pass over the data.
	Sample() [][]int
	// BatchSize returns the nominal batch size.
	BatchSize() int
}

// BatchSampler splits indices [0, n) into batches of a fixed size.
type BatchSampler struct {
	n         int
	batchSize int
	dropLast  bool
	shuffle   bool
	rng       *rand.Rand
}

// NewBatchSampler creates a BatchSampler.
//
// dropLast drops a trailing partial batch. shuffle reorders indices on every
// call to Sample; seedOpt seeds the shuffling (default 1).
func NewBatchSampler(n, batchSize int, dropLast, shuffle bool, seedOpt ...int64) (*BatchSampler, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid number of samples: %v", n)
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("invalid batch size: %v", batchSize)
	}
	if dropLast && n < batchSize {
		return nil, fmt.Errorf("batch size %v larger than number of samples %v with dropLast", batchSize, n)
	}

	var seed int64 = 1
	if len(seedOpt) > 0 {
		seed = seedOpt[0]
	}

	return &BatchSampler{
		n:         n,
		batchSize: batchSize,
		dropLast:  dropLast,
		shuffle:   shuffle,
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// BatchSize implements Sampler interface.
func (s *BatchSampler) BatchSize() int {
	return s.batchSize
}

// Sample implements Sampler interface.
func (s *BatchSampler) Sample() [][]int {
	indices := make([]int, s.n)
	for i := range indices {
		indices[i] = i
	}
	if s.shuffle {
		s.rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	var batches [][]int
	for start := 0; start < s.n; start += s.batchSize {
		end := start + s.batchSize
		if end > s.n {
			if s.dropLast {
				break
			}
			end = s.n
		}
		batches = append(batches, indices[start:end])
	}

	return batches
}
