/*
* Bloom filter based block repetition estimator
* Copyright (C) 2025  Artem Stefankiv
*
* This program is free software: you can redistribute it and/or modify
* it under the terms of the GNU General Public License as published by
* the Free Software Foundation, either version 3 of the License, or
* (at your option) any later version.
*
* This program is distributed in the hope that it will be useful,
* but WITHOUT ANY WARRANTY; without even the implied warranty of
* MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
* GNU General Public License for more details.
*
* You should have received a copy of the GNU General Public License
* along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package main

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/bits-and-blooms/bloom/v3"
)

// RepetitionReport is the persisted result of measuring one file. Hits only
// holds blocks that tested positive at least once, keyed by decimal value.
type RepetitionReport struct {
	Hits      map[string]int `json:"hits"`
	Blocksize int            `json:"blocksize"`
	ErrRate   float64        `json:"err_rate"`
	NumBlocks int            `json:"num_blocks"`

	// Filled in by Estimate, not persisted.
	Filter FilterStats `json:"-"`
}

// FilterStats describes the Bloom filter used for a measurement.
type FilterStats struct {
	Bits   uint
	Hashes uint
	Seed   uint64
}

// TotalHits is the number of positive membership tests.
func (r *RepetitionReport) TotalHits() int {
	var total int
	for _, v := range r.Hits {
		total += v
	}
	return total
}

type estimateOptions struct {
	seed       uint64
	randomSeed bool
	progress   func(blocks int)
	every      int
}

type EstimateOption func(*estimateOptions)

// WithSeed salts every filter key with seed, which makes the hash functions
// and therefore the false positives reproducible.
func WithSeed(seed uint64) EstimateOption {
	return func(o *estimateOptions) {
		o.seed = seed
		o.randomSeed = false
	}
}

// WithRandomSeed draws the salt from crypto/rand, so repeated measurements of
// the same file see different false positives.
func WithRandomSeed() EstimateOption {
	return func(o *estimateOptions) {
		o.randomSeed = true
	}
}

// WithProgress calls fn with the number of processed blocks every n blocks
// and once more at the end.
func WithProgress(n int, fn func(blocks int)) EstimateOption {
	return func(o *estimateOptions) {
		o.every = n
		o.progress = fn
	}
}

func validateErrorRate(errRate float64) error {
	if !(errRate > 0 && errRate < 1) {
		return fmt.Errorf("%w: %v is not in (0, 1)", ErrInvalidErrorRate, errRate)
	}
	return nil
}

// Estimate feeds blocks through a Bloom filter sized for numBlocks insertions
// at the target false positive rate and counts, per block value, how often
// the filter reported the block as already present. True repeats and false
// positives are indistinguishable.
func Estimate(src BlockSource, blocksize, numBlocks int, errRate float64, opts ...EstimateOption) (*RepetitionReport, error) {
	if err := validateBlocksize(blocksize); err != nil {
		return nil, err
	}
	if err := validateErrorRate(errRate); err != nil {
		return nil, err
	}
	if numBlocks < 0 {
		return nil, fmt.Errorf("%w: negative block count %d", ErrBlockCountMismatch, numBlocks)
	}

	var o estimateOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.randomSeed {
		var b [8]byte
		if _, err := rand.Read(b[:]); err != nil {
			return nil, fmt.Errorf("draw filter seed: %w", err)
		}
		o.seed = binary.BigEndian.Uint64(b[:])
	}

	report := &RepetitionReport{
		Hits:      map[string]int{},
		Blocksize: blocksize,
		ErrRate:   errRate,
		NumBlocks: numBlocks,
	}

	// An empty filter cannot be sized; the source still has to be empty.
	var filter *bloom.BloomFilter
	if numBlocks > 0 {
		filter = bloom.NewWithEstimates(uint(numBlocks), errRate)
		report.Filter = FilterStats{Bits: filter.Cap(), Hashes: filter.K(), Seed: o.seed}
	}

	hits := map[Block]int{}
	key := make([]byte, 8, 8+blocksize/8)
	binary.BigEndian.PutUint64(key, o.seed)
	maxBits := blocksize

	var seen int
	for {
		block, ok, err := src.Next()
		if err != nil {
			return nil, fmt.Errorf("read block %d: %w", seen, err)
		}
		if !ok {
			break
		}
		seen++
		if seen > numBlocks {
			return nil, fmt.Errorf("%w: more than the expected %d blocks", ErrBlockCountMismatch, numBlocks)
		}
		if len(block)*8 > maxBits {
			return nil, fmt.Errorf("%w: block %d is wider than %d bits", ErrInvalidBlocksize, seen, maxBits)
		}

		key = append(key[:8], block...)
		if filter.TestAndAdd(key) {
			hits[block]++
		}

		if o.progress != nil && o.every > 0 && seen%o.every == 0 {
			o.progress(seen)
		}
	}
	if seen != numBlocks {
		return nil, fmt.Errorf("%w: expected %d blocks, read %d", ErrBlockCountMismatch, numBlocks, seen)
	}
	if o.progress != nil {
		o.progress(seen)
	}

	for block, v := range hits {
		report.Hits[block.String()] = v
	}
	return report, nil
}
