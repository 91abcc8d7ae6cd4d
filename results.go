/*
* Analysis result rendering
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
	"strconv"
	"strings"
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatRatio(label string, r RepetitionRatio) string {
	return fmt.Sprintf("Repetition ratio (%s): average false positive rate %s, expected false positives %.3f, "+
		"expected repetitions %.3f, observed repetitions %d, ratio %.4f\n",
		label, formatFloat(r.AvgFalsePositiveRate), r.ExpectedFalsePositives,
		r.ExpectedRepetitions, r.ObservedRepetitions, r.Ratio)
}

// FormatResults renders a comparison as the plain text analysis report.
func FormatResults(cmp *Comparison) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Unmodified expected distribution: %s\n", cmp.ModelCounts)
	fmt.Fprintf(&sb, "Unmodified observed distribution: %s\n\n", cmp.InputCounts)
	fmt.Fprintf(&sb, "Expected distribution used for chi-square calculation: %s\n", cmp.TrimmedModel)
	fmt.Fprintf(&sb, "Observed distribution used for chi-square calculation: %s\n\n", cmp.FittedInput)
	sb.WriteString(formatRatio("expected", cmp.ModelRatio))
	sb.WriteString(formatRatio("observed", cmp.InputRatio))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Chi-square: %s\n", formatFloat(cmp.Result.ChiSquare))
	if cmp.Result.HasPValue {
		fmt.Fprintf(&sb, "P-value: %s\n", formatFloat(cmp.Result.PValue))
	} else {
		sb.WriteString("P-value: n/a\n")
	}
	fmt.Fprintf(&sb, "Degrees of Freedom: %d", cmp.Result.DegreesOfFreedom)
	return sb.String()
}
