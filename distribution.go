/*
* Repetition distribution reconstruction
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
	"fmt"
	"maps"
	"slices"
	"strings"
)

// FrequencyTable maps a repetition weight (bucket) to a count.
type FrequencyTable map[int]int

// Keys returns the bucket keys in ascending order.
func (t FrequencyTable) Keys() []int {
	return slices.Sorted(maps.Keys(t))
}

// Counts returns the counts ordered by ascending bucket key.
func (t FrequencyTable) Counts() []float64 {
	keys := t.Keys()
	counts := make([]float64, len(keys))
	for i, k := range keys {
		counts[i] = float64(t[k])
	}
	return counts
}

func (t FrequencyTable) Total() int {
	var total int
	for _, v := range t {
		total += v
	}
	return total
}

// String renders the table as a sorted list of (bucket, count) pairs.
func (t FrequencyTable) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, k := range t.Keys() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "(%d, %d)", k, t[k])
	}
	sb.WriteByte(']')
	return sb.String()
}

// Distribution is the histogram of occurrence weights reconstructed from a
// report. It always accounts for exactly NumBlocks occurrences.
type Distribution struct {
	weights FrequencyTable
}

// BuildDistribution expands the sparse hit map of a report. A block with v
// recorded hits contributes v occurrences of weight v; the remaining
// occurrences up to NumBlocks are blocks never flagged as repeats and get
// weight 1.
func BuildDistribution(r *RepetitionReport) (Distribution, error) {
	if r.NumBlocks < 0 {
		return Distribution{}, fmt.Errorf("%w: negative num_blocks %d", ErrMalformedReport, r.NumBlocks)
	}
	weights := FrequencyTable{}
	var contributed int
	for key, v := range r.Hits {
		if v < 0 {
			return Distribution{}, fmt.Errorf("%w: negative hit count %d for block %s", ErrMalformedReport, v, key)
		}
		if v == 0 {
			continue
		}
		weights[v] += v
		contributed += v
	}
	if contributed > r.NumBlocks {
		return Distribution{}, fmt.Errorf("%w: %d hits exceed %d blocks", ErrMalformedReport, contributed, r.NumBlocks)
	}
	if pad := r.NumBlocks - contributed; pad > 0 {
		weights[1] += pad
	}
	return Distribution{weights: weights}, nil
}

// Occurrences is the number of occurrence units in the distribution.
func (d Distribution) Occurrences() int {
	return d.weights.Total()
}

// Counts reduces the distribution to its frequency-of-frequencies table:
// weight to number of occurrence units at that weight.
func (d Distribution) Counts() FrequencyTable {
	return maps.Clone(d.weights)
}
