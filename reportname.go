/*
* Report file name parsing
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
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/rure-go"
)

var reportNameRegex = rure.MustCompile(`^(.+)-(8|16|24|32|48|64|96|128|256|512)-([0-9]+(?:\.[0-9]+)?(?:e[+-]?[0-9]+)?)\.json$`)

// ReportName holds the parameters encoded in a report file name.
type ReportName struct {
	File      string
	Stem      string
	Blocksize int
	ErrRate   float64
}

// ParseReportName splits a name of the form <stem>-<blocksize>-<err_rate>.json.
func ParseReportName(name string) (ReportName, bool) {
	caps := reportNameRegex.NewCaptures()
	if !reportNameRegex.Captures(caps, name) {
		return ReportName{}, false
	}
	group := func(i int) string {
		start, end, ok := caps.Group(i)
		if !ok {
			return ""
		}
		return name[start:end]
	}

	bits, err := strconv.Atoi(group(2))
	if err != nil {
		return ReportName{}, false
	}
	rate, err := strconv.ParseFloat(group(3), 64)
	if err != nil || validateErrorRate(rate) != nil {
		return ReportName{}, false
	}
	return ReportName{File: name, Stem: group(1), Blocksize: bits, ErrRate: rate}, true
}

// ScanReports lists the report files in dir whose names follow the naming
// convention, sorted by name.
func ScanReports(dir string) ([]ReportName, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []ReportName
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if rn, ok := ParseReportName(e.Name()); ok {
			names = append(names, rn)
		}
	}
	slices.SortFunc(names, func(a, b ReportName) int {
		return strings.Compare(a.File, b.File)
	})
	return names, nil
}

// Path joins the report name with its directory.
func (rn ReportName) Path(dir string) string {
	return filepath.Join(dir, rn.File)
}
