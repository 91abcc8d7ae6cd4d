/*
* Hit count summary tests
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
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeHits(t *testing.T) {
	r := &RepetitionReport{Hits: map[string]int{"1": 1, "2": 2, "3": 6}, NumBlocks: 20}
	s := SummarizeHits(r)

	assert.Equal(t, 3, s.RepeatedBlocks)
	assert.Equal(t, 9, s.TotalHits)
	assert.InDelta(t, 3.0, s.Mean, 1e-9)
	assert.InDelta(t, 2.0, s.Median, 1e-9)
	assert.InDelta(t, 6.0, s.Max, 1e-9)
	assert.Positive(t, s.StdDev)
}

func TestSummarizeHitsEmpty(t *testing.T) {
	s := SummarizeHits(&RepetitionReport{NumBlocks: 5})
	assert.Equal(t, HitSummary{}, s)
}

func TestHitSummaryLogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("measured", "hits", HitSummary{RepeatedBlocks: 2, TotalHits: 5})

	assert.Contains(t, buf.String(), "hits.repeated_blocks=2")
	assert.Contains(t, buf.String(), "hits.total_hits=5")
}
