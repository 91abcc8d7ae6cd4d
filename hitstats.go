/*
* Hit count summary statistics
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
	"log/slog"

	"github.com/montanaflynn/stats"
)

// HitSummary describes the distribution of hit counts over repeated blocks.
type HitSummary struct {
	RepeatedBlocks int
	TotalHits      int
	Mean           float64
	Median         float64
	Max            float64
	StdDev         float64
}

func SummarizeHits(r *RepetitionReport) HitSummary {
	data := make(stats.Float64Data, 0, len(r.Hits))
	for _, v := range r.Hits {
		data = append(data, float64(v))
	}
	summary := HitSummary{RepeatedBlocks: len(data), TotalHits: r.TotalHits()}
	if len(data) == 0 {
		return summary
	}

	// Errors only occur on empty input, which is handled above.
	summary.Mean, _ = stats.Mean(data)
	summary.Median, _ = stats.Median(data)
	summary.Max, _ = stats.Max(data)
	summary.StdDev, _ = stats.StandardDeviation(data)
	return summary
}

func (s HitSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("repeated_blocks", s.RepeatedBlocks),
		slog.Int("total_hits", s.TotalHits),
		slog.Float64("mean", s.Mean),
		slog.Float64("median", s.Median),
		slog.Float64("max", s.Max),
		slog.Float64("stddev", s.StdDev),
	)
}
