/*
* Run catalog
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
	"encoding/hex"
	"fmt"
	"hash"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/blake2b"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS runs (
    id            TEXT PRIMARY KEY,
    kind          TEXT NOT NULL,
    created_at    TEXT NOT NULL,
    input         TEXT NOT NULL,
    input_digest  TEXT NOT NULL DEFAULT '',
    model         TEXT NOT NULL DEFAULT '',
    output        TEXT NOT NULL,
    blocksize     INTEGER NOT NULL,
    err_rate      REAL NOT NULL,
    num_blocks    INTEGER NOT NULL,
    total_hits    INTEGER NOT NULL,
    chi_square    REAL,
    p_value       REAL,
    dof           INTEGER
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`

// Fixed width, so that stored times sort lexically.
const catalogTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

const (
	runMeasure = "measure"
	runAnalyze = "analyze"
)

// RunRecord is one completed measure or analyze invocation.
type RunRecord struct {
	ID          string
	Kind        string
	CreatedAt   time.Time
	Input       string
	InputDigest string
	Model       string
	Output      string
	Blocksize   int
	ErrRate     float64
	NumBlocks   int
	TotalHits   int

	ChiSquare        sql.NullFloat64
	PValue           sql.NullFloat64
	DegreesOfFreedom sql.NullInt64
}

// Catalog keeps a history of runs in SQLite. Report and result files stay
// the primary output; the catalog only indexes them.
type Catalog struct {
	db *sql.DB
}

func OpenCatalog(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if _, err := db.Exec(catalogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *Catalog) Record(ctx context.Context, rec RunRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO runs (id, kind, created_at, input, input_digest, model, output,
			blocksize, err_rate, num_blocks, total_hits, chi_square, p_value, dof)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Kind, rec.CreatedAt.UTC().Format(catalogTimeFormat), rec.Input, rec.InputDigest,
		rec.Model, rec.Output, rec.Blocksize, rec.ErrRate, rec.NumBlocks, rec.TotalHits,
		rec.ChiSquare, rec.PValue, rec.DegreesOfFreedom,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (c *Catalog) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, kind, created_at, input, input_digest, model, output,
			blocksize, err_rate, num_blocks, total_hits, chi_square, p_value, dof
		FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var created string
		if err := rows.Scan(&rec.ID, &rec.Kind, &created, &rec.Input, &rec.InputDigest, &rec.Model,
			&rec.Output, &rec.Blocksize, &rec.ErrRate, &rec.NumBlocks, &rec.TotalHits,
			&rec.ChiSquare, &rec.PValue, &rec.DegreesOfFreedom); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.CreatedAt, err = time.Parse(catalogTimeFormat, created)
		if err != nil {
			return nil, fmt.Errorf("parse run time %q: %w", created, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// newDigest returns the hash used to fingerprint measured input files.
func newDigest() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only fails for keys longer than 64 bytes.
		panic(err)
	}
	return h
}

func digestString(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}
