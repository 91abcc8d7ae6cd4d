/*
* Repetition ratio tests
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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepetitionRatioWithoutHits(t *testing.T) {
	r := &RepetitionReport{Hits: map[string]int{}, Blocksize: 8, ErrRate: 0.01, NumBlocks: 10_000}
	ratio := EstimateRepetitionRatio(r)

	assert.Zero(t, ratio.ObservedRepetitions)
	assert.Zero(t, ratio.ExpectedRepetitions)
	assert.Zero(t, ratio.Ratio)
	assert.Positive(t, ratio.AvgFalsePositiveRate)
	// Averaged over the fill, the rate stays below the rate at capacity.
	assert.Less(t, ratio.AvgFalsePositiveRate, 2*r.ErrRate)
	assert.InDelta(t, ratio.AvgFalsePositiveRate*float64(r.NumBlocks), ratio.ExpectedFalsePositives, 1e-9)
}

func TestRepetitionRatioMostlyRepeats(t *testing.T) {
	report := estimateBytes(t, bytes.Repeat([]byte{0x42}, 1000), 8, 0.01)
	ratio := EstimateRepetitionRatio(report)

	assert.Equal(t, 999, ratio.ObservedRepetitions)
	// A single insert leaves the filter nearly empty.
	assert.Less(t, ratio.ExpectedFalsePositives, 1.0)
	assert.InDelta(t, 1.0, ratio.Ratio, 0.01)
}

func TestRepetitionRatioEmptyReport(t *testing.T) {
	assert.Equal(t, RepetitionRatio{}, EstimateRepetitionRatio(&RepetitionReport{ErrRate: 0.5}))
}

func TestFalsePositiveRateGrowsWithFill(t *testing.T) {
	assert.Zero(t, falsePositiveRate(1000, 5, 0))
	assert.Less(t, falsePositiveRate(1000, 5, 10), falsePositiveRate(1000, 5, 100))
}
