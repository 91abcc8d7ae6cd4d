/*
* Pearson chi-squared goodness-of-fit module
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

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Buckets with an expected count below this are not valid for the test.
const minBucketCount = 5

// GoodnessOfFitResult holds the outcome of one chi-square comparison.
// PValue is only meaningful when HasPValue is set, which requires at least
// one degree of freedom.
type GoodnessOfFitResult struct {
	ChiSquare        float64 `json:"chi_square_statistic"`
	PValue           float64 `json:"p_value,omitempty"`
	HasPValue        bool    `json:"-"`
	DegreesOfFreedom int     `json:"degrees_of_freedom"`
}

// Comparison is the full outcome of Compare, including the intermediate
// tables used for reporting.
type Comparison struct {
	ModelCounts  FrequencyTable
	InputCounts  FrequencyTable
	TrimmedModel FrequencyTable
	FittedInput  FrequencyTable
	Result       GoodnessOfFitResult

	ModelRatio RepetitionRatio
	InputRatio RepetitionRatio
}

func checkParameters(input, model *RepetitionReport) error {
	if input.Blocksize != model.Blocksize {
		return newParameterMismatchError("blocksize", input.Blocksize, model.Blocksize)
	}
	if input.ErrRate != model.ErrRate {
		return newParameterMismatchError("err_rate", input.ErrRate, model.ErrRate)
	}
	if input.NumBlocks != model.NumBlocks {
		return newParameterMismatchError("num_blocks", input.NumBlocks, model.NumBlocks)
	}
	return nil
}

// TrimSmallBuckets drops buckets whose count is too small for the
// chi-square approximation to hold.
func TrimSmallBuckets(counts FrequencyTable) FrequencyTable {
	trimmed := FrequencyTable{}
	for k, v := range counts {
		if v >= minBucketCount {
			trimmed[k] = v
		}
	}
	return trimmed
}

// FitBuckets restricts observed to exactly the buckets of expected, padding
// missing buckets with zero.
func FitBuckets(observed, expected FrequencyTable) FrequencyTable {
	fitted := make(FrequencyTable, len(expected))
	for k := range expected {
		fitted[k] = observed[k]
	}
	return fitted
}

// ChiSquareTest computes the Pearson statistic for aligned observed and
// expected counts. Expected counts must all be positive.
func ChiSquareTest(observed, expected []float64) GoodnessOfFitResult {
	if len(observed) != len(expected) {
		panic("blockrep: chi-square inputs differ in length")
	}
	res := GoodnessOfFitResult{
		ChiSquare:        stat.ChiSquare(observed, expected),
		DegreesOfFreedom: len(expected) - 1,
	}
	if res.DegreesOfFreedom > 0 {
		dist := distuv.ChiSquared{K: float64(res.DegreesOfFreedom)}
		res.PValue = dist.Survival(res.ChiSquare)
		res.HasPValue = true
	}
	return res
}

// Compare tests whether the repetition profile of input is consistent with
// the one of model.
func Compare(input, model *RepetitionReport) (*Comparison, error) {
	if err := checkParameters(input, model); err != nil {
		return nil, err
	}

	inputDist, err := BuildDistribution(input)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	modelDist, err := BuildDistribution(model)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	cmp := &Comparison{
		InputCounts: inputDist.Counts(),
		ModelCounts: modelDist.Counts(),
	}

	cmp.TrimmedModel = TrimSmallBuckets(cmp.ModelCounts)
	if len(cmp.TrimmedModel) == 0 {
		return nil, fmt.Errorf("%w: no model bucket has at least %d occurrences", ErrDegenerateDistribution, minBucketCount)
	}
	cmp.FittedInput = FitBuckets(cmp.InputCounts, cmp.TrimmedModel)

	// Both tables share the same key set, so their ordered counts line up.
	cmp.Result = ChiSquareTest(cmp.FittedInput.Counts(), cmp.TrimmedModel.Counts())

	cmp.InputRatio = EstimateRepetitionRatio(input)
	cmp.ModelRatio = EstimateRepetitionRatio(model)
	return cmp, nil
}
