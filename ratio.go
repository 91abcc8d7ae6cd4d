/*
* Expected false positive and genuine repetition estimation
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
	"math"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/montanaflynn/stats"
)

// Number of points at which the filter fill level is sampled.
const ratioSamples = 1024

// RepetitionRatio relates the observed hits of a report to the number of
// false positives its Bloom filter is expected to have produced.
type RepetitionRatio struct {
	AvgFalsePositiveRate   float64
	ExpectedFalsePositives float64
	ExpectedRepetitions    float64
	ObservedRepetitions    int
	Ratio                  float64
}

// falsePositiveRate is the probability that a filter of m bits and k hashes
// holding inserted elements reports an absent element as present.
func falsePositiveRate(m, k uint, inserted float64) float64 {
	return math.Pow(1-math.Exp(-float64(k)*inserted/float64(m)), float64(k))
}

// EstimateRepetitionRatio averages the false positive rate over the lifetime
// of the filter, assuming inserts are spread evenly over the file, and
// attributes the hits not explained by false positives to genuine repeats.
func EstimateRepetitionRatio(r *RepetitionReport) RepetitionRatio {
	observed := r.TotalHits()
	res := RepetitionRatio{ObservedRepetitions: observed}
	if r.NumBlocks <= 0 {
		return res
	}

	n := float64(r.NumBlocks)
	m, k := bloom.EstimateParameters(uint(r.NumBlocks), r.ErrRate)
	inserts := n - float64(observed)

	samples := min(r.NumBlocks, ratioSamples)
	rates := make([]float64, samples)
	for s := range rates {
		processed := (float64(s) + 0.5) * n / float64(samples)
		rates[s] = falsePositiveRate(m, k, processed*inserts/n)
	}
	avg, err := stats.Mean(rates)
	if err != nil {
		return res
	}

	res.AvgFalsePositiveRate = avg
	res.ExpectedFalsePositives = avg * n
	res.ExpectedRepetitions = math.Max(0, float64(observed)-res.ExpectedFalsePositives)
	if observed > 0 {
		res.Ratio = res.ExpectedRepetitions / float64(observed)
	}
	return res
}
