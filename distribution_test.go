/*
* Repetition distribution tests
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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDistributionExpandsHits(t *testing.T) {
	r := &RepetitionReport{
		Hits:      map[string]int{"5": 3, "7": 1, "9": 2},
		Blocksize: 8,
		ErrRate:   0.01,
		NumBlocks: 20,
	}
	d, err := BuildDistribution(r)
	require.NoError(t, err)

	// 3 units at weight 3, 2 at weight 2, 1 hit plus 14 padding units at weight 1.
	assert.Equal(t, FrequencyTable{1: 15, 2: 2, 3: 3}, d.Counts())
	assert.Equal(t, 20, d.Occurrences())
}

func TestBuildDistributionWithoutHits(t *testing.T) {
	d, err := BuildDistribution(&RepetitionReport{Hits: map[string]int{}, NumBlocks: 16})
	require.NoError(t, err)
	assert.Equal(t, FrequencyTable{1: 16}, d.Counts())
}

func TestBuildDistributionEmptyReport(t *testing.T) {
	d, err := BuildDistribution(&RepetitionReport{})
	require.NoError(t, err)
	assert.Empty(t, d.Counts())
	assert.Zero(t, d.Occurrences())
}

func TestBuildDistributionSumsToNumBlocks(t *testing.T) {
	data := randomBytes(t, 5000, 21)
	report := estimateBytes(t, data, 8, 0.01, WithSeed(3))

	d, err := BuildDistribution(report)
	require.NoError(t, err)
	assert.Equal(t, report.NumBlocks, d.Occurrences())
	assert.Equal(t, report.NumBlocks, d.Counts().Total())
}

func TestBuildDistributionRejectsMalformed(t *testing.T) {
	_, err := BuildDistribution(&RepetitionReport{Hits: map[string]int{"1": 5}, NumBlocks: 4})
	assert.ErrorIs(t, err, ErrMalformedReport)

	_, err = BuildDistribution(&RepetitionReport{Hits: map[string]int{"1": -1}, NumBlocks: 4})
	assert.ErrorIs(t, err, ErrMalformedReport)
}

func TestBuildDistributionIsPure(t *testing.T) {
	r := &RepetitionReport{Hits: map[string]int{"1": 2}, NumBlocks: 10}
	a, err := BuildDistribution(r)
	require.NoError(t, err)
	b, err := BuildDistribution(r)
	require.NoError(t, err)
	assert.Equal(t, a.Counts(), b.Counts())
	assert.Equal(t, map[string]int{"1": 2}, r.Hits)

	counts := a.Counts()
	counts[1] = 1000
	assert.Equal(t, FrequencyTable{1: 8, 2: 2}, a.Counts())
}

func TestFrequencyTableOrdering(t *testing.T) {
	table := FrequencyTable{10: 1, 2: 7, 1: 30}
	assert.Equal(t, []int{1, 2, 10}, table.Keys())
	assert.Equal(t, []float64{30, 7, 1}, table.Counts())
	assert.Equal(t, "[(1, 30), (2, 7), (10, 1)]", table.String())
	assert.Equal(t, "[]", FrequencyTable{}.String())
}
