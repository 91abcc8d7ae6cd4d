/*
* Run catalog tests
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
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	catalog, err := OpenCatalog(filepath.Join(t.TempDir(), "nested", "catalog.db"))
	require.NoError(t, err)
	defer catalog.Close()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, catalog.Record(ctx, RunRecord{
		ID: "first", Kind: runMeasure, CreatedAt: base,
		Input: "input/a.bin", InputDigest: "abc", Output: "json/a-8-0.01.json",
		Blocksize: 8, ErrRate: 0.01, NumBlocks: 16, TotalHits: 2,
	}))
	require.NoError(t, catalog.Record(ctx, RunRecord{
		ID: "second", Kind: runAnalyze, CreatedAt: base.Add(time.Minute),
		Input: "json/a-8-0.01.json", Model: "json/b-8-0.01.json", Output: "output/a-8-0.01.txt",
		Blocksize: 8, ErrRate: 0.01, NumBlocks: 16,
		ChiSquare:        sql.NullFloat64{Float64: 1.5, Valid: true},
		DegreesOfFreedom: sql.NullInt64{Int64: 2, Valid: true},
	}))

	records, err := catalog.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "second", records[0].ID)
	assert.Equal(t, runAnalyze, records[0].Kind)
	assert.True(t, records[0].ChiSquare.Valid)
	assert.Equal(t, 1.5, records[0].ChiSquare.Float64)
	assert.False(t, records[0].PValue.Valid)
	assert.Equal(t, int64(2), records[0].DegreesOfFreedom.Int64)

	assert.Equal(t, "first", records[1].ID)
	assert.Equal(t, "abc", records[1].InputDigest)
	assert.True(t, base.Equal(records[1].CreatedAt))
	assert.False(t, records[1].ChiSquare.Valid)

	limited, err := catalog.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestCatalogGeneratesIDs(t *testing.T) {
	catalog, err := OpenCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer catalog.Close()

	ctx := context.Background()
	require.NoError(t, catalog.Record(ctx, RunRecord{Kind: runMeasure, Input: "a", Output: "b"}))
	require.NoError(t, catalog.Record(ctx, RunRecord{Kind: runMeasure, Input: "a", Output: "b"}))

	records, err := catalog.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.NotEqual(t, records[0].ID, records[1].ID)
	assert.False(t, records[0].CreatedAt.IsZero())
}

func TestDigestString(t *testing.T) {
	h := newDigest()
	_, _ = h.Write([]byte("blockrep"))
	sum := digestString(h)
	assert.Len(t, sum, 64)
	assert.Equal(t, strings.ToLower(sum), sum)

	other := newDigest()
	assert.NotEqual(t, sum, digestString(other))
}
