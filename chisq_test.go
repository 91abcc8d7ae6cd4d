/*
* Chi-squared goodness-of-fit tests
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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reportWithWeights builds a report whose distribution has count blocks
// hit v times for every v in hitBlocks.
func reportWithWeights(numBlocks int, hitBlocks map[int]int) *RepetitionReport {
	hits := map[string]int{}
	next := 0
	for v, count := range hitBlocks {
		for range count {
			hits[fmt.Sprint(next)] = v
			next++
		}
	}
	return &RepetitionReport{Hits: hits, Blocksize: 16, ErrRate: 0.01, NumBlocks: numBlocks}
}

func TestCompareAgainstItself(t *testing.T) {
	r := reportWithWeights(100, map[int]int{2: 5, 3: 2})
	cmp, err := Compare(r, r)
	require.NoError(t, err)

	assert.Equal(t, FrequencyTable{1: 84, 2: 10, 3: 6}, cmp.ModelCounts)
	assert.Equal(t, cmp.ModelCounts, cmp.InputCounts)
	assert.Zero(t, cmp.Result.ChiSquare)
	require.True(t, cmp.Result.HasPValue)
	assert.InDelta(t, 1.0, cmp.Result.PValue, 1e-12)
	assert.Equal(t, 2, cmp.Result.DegreesOfFreedom)
}

func TestCompareDistinctSixteenBytes(t *testing.T) {
	r := &RepetitionReport{Hits: map[string]int{}, Blocksize: 8, ErrRate: 0.01, NumBlocks: 16}
	cmp, err := Compare(r, r)
	require.NoError(t, err)

	assert.Equal(t, FrequencyTable{1: 16}, cmp.ModelCounts)
	assert.Equal(t, FrequencyTable{1: 16}, cmp.TrimmedModel)
	assert.Equal(t, FrequencyTable{1: 16}, cmp.FittedInput)
	assert.Zero(t, cmp.Result.ChiSquare)
	assert.Zero(t, cmp.Result.DegreesOfFreedom)
	assert.False(t, cmp.Result.HasPValue)
}

func TestCompareKnownStatistic(t *testing.T) {
	model := reportWithWeights(100, map[int]int{2: 5})
	input := reportWithWeights(100, map[int]int{2: 10})

	cmp, err := Compare(input, model)
	require.NoError(t, err)

	assert.Equal(t, FrequencyTable{1: 90, 2: 10}, cmp.TrimmedModel)
	assert.Equal(t, FrequencyTable{1: 80, 2: 20}, cmp.FittedInput)
	// (80-90)^2/90 + (20-10)^2/10
	assert.InDelta(t, 100.0/90+10, cmp.Result.ChiSquare, 1e-9)
	assert.Equal(t, 1, cmp.Result.DegreesOfFreedom)
	require.True(t, cmp.Result.HasPValue)
	assert.Less(t, cmp.Result.PValue, 0.001)
	assert.Greater(t, cmp.Result.PValue, 0.0)
}

func TestCompareTrimsAndFitsBuckets(t *testing.T) {
	// Model: weight 2 has 4 units and is dropped, weight 3 has 6 and stays.
	model := reportWithWeights(60, map[int]int{2: 2, 3: 2})
	// Input: weight 4 is not a model bucket, weight 3 is missing.
	input := reportWithWeights(60, map[int]int{4: 3})

	cmp, err := Compare(input, model)
	require.NoError(t, err)

	assert.Equal(t, FrequencyTable{1: 50, 2: 4, 3: 6}, cmp.ModelCounts)
	assert.Equal(t, FrequencyTable{1: 50, 3: 6}, cmp.TrimmedModel)
	assert.Equal(t, FrequencyTable{1: 48, 4: 12}, cmp.InputCounts)
	assert.Equal(t, FrequencyTable{1: 48, 3: 0}, cmp.FittedInput)
	assert.Equal(t, cmp.TrimmedModel.Keys(), cmp.FittedInput.Keys())
	for _, v := range cmp.TrimmedModel {
		assert.Greater(t, v, 4)
	}
	assert.Equal(t, len(cmp.TrimmedModel)-1, cmp.Result.DegreesOfFreedom)
}

func TestCompareParameterMismatch(t *testing.T) {
	base := func() *RepetitionReport {
		return &RepetitionReport{Hits: map[string]int{}, Blocksize: 8, ErrRate: 0.01, NumBlocks: 16}
	}
	tests := []struct {
		name   string
		mutate func(r *RepetitionReport)
	}{
		{"blocksize", func(r *RepetitionReport) { r.Blocksize = 16 }},
		{"err_rate", func(r *RepetitionReport) { r.ErrRate = 0.02 }},
		{"num_blocks", func(r *RepetitionReport) { r.NumBlocks = 17 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := base()
			tt.mutate(input)
			_, err := Compare(input, base())
			require.ErrorIs(t, err, ErrParameterMismatch)
			assert.True(t, IsParameterMismatch(err))
			assert.Contains(t, err.Error(), tt.name)
		})
	}
}

func TestCompareDegenerateModel(t *testing.T) {
	model := &RepetitionReport{Hits: map[string]int{}, Blocksize: 8, ErrRate: 0.01, NumBlocks: 4}
	_, err := Compare(model, model)
	require.ErrorIs(t, err, ErrDegenerateDistribution)
	assert.True(t, IsDegenerateDistribution(err))
	assert.Equal(t, exitDegenerate, exitCode(err))
}

func TestTrimSmallBuckets(t *testing.T) {
	trimmed := TrimSmallBuckets(FrequencyTable{1: 100, 2: 5, 3: 4, 4: 0, 5: 1})
	assert.Equal(t, FrequencyTable{1: 100, 2: 5}, trimmed)
}

func TestFitBuckets(t *testing.T) {
	fitted := FitBuckets(FrequencyTable{1: 3, 7: 9}, FrequencyTable{1: 10, 2: 10})
	assert.Equal(t, FrequencyTable{1: 3, 2: 0}, fitted)
}

func TestChiSquareTestLengthMismatch(t *testing.T) {
	assert.Panics(t, func() { ChiSquareTest([]float64{1}, []float64{1, 2}) })
}
