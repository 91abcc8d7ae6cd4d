/*
* Repetition report persistence
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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const reportSchemaURL = "blockrep://schema/repetition-report.json"

const reportSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["hits", "blocksize", "err_rate", "num_blocks"],
  "properties": {
    "hits": {
      "type": "object",
      "propertyNames": {"pattern": "^(0|[1-9][0-9]*)$"},
      "additionalProperties": {"type": "integer", "minimum": 0}
    },
    "blocksize": {"enum": [8, 16, 24, 32, 48, 64, 96, 128, 256, 512]},
    "err_rate": {"type": "number", "exclusiveMinimum": 0, "exclusiveMaximum": 1},
    "num_blocks": {"type": "integer", "minimum": 0}
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadReportSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(reportSchemaURL, strings.NewReader(reportSchema)); err != nil {
			schemaErr = fmt.Errorf("add report schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(reportSchemaURL)
	})
	return compiledSchema, schemaErr
}

// EncodeReport renders a report as indented JSON.
func EncodeReport(r *RepetitionReport) ([]byte, error) {
	hits := r.Hits
	if hits == nil {
		hits = map[string]int{}
	}
	out := *r
	out.Hits = hits
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeReport parses and validates a report document.
func DecodeReport(data []byte) (*RepetitionReport, error) {
	schema, err := loadReportSchema()
	if err != nil {
		return nil, err
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}

	var r RepetitionReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}
	if err := checkHits(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// checkHits verifies that every key is a block value representable at the
// report's blocksize and that hits never outnumber blocks.
func checkHits(r *RepetitionReport) error {
	var total int
	for key, v := range r.Hits {
		b, err := ParseBlock(key)
		if err != nil {
			return err
		}
		if b.BitLen() > r.Blocksize {
			return fmt.Errorf("%w: block %s does not fit in %d bits", ErrMalformedReport, key, r.Blocksize)
		}
		total += v
	}
	if total > r.NumBlocks {
		return fmt.Errorf("%w: %d hits exceed %d blocks", ErrMalformedReport, total, r.NumBlocks)
	}
	return nil
}

func ReadReport(path string) (*RepetitionReport, error) {
	if _, err := requireFile(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := DecodeReport(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return r, nil
}

func WriteReport(path string, r *RepetitionReport) error {
	data, err := EncodeReport(r)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// formatErrRate renders an error rate the way it appears in report names,
// e.g. 0.01 or 1e-05.
func formatErrRate(errRate float64) string {
	return strconv.FormatFloat(errRate, 'g', -1, 64)
}

// ReportFileName is the name of the report for inputPath measured with the
// given parameters: <input-stem>-<blocksize>-<err_rate>.json.
func ReportFileName(inputPath string, blocksize int, errRate float64) string {
	return fmt.Sprintf("%s-%d-%s.json", stem(inputPath), blocksize, formatErrRate(errRate))
}

// ResultFileName is the name of the analysis written for an input report.
func ResultFileName(inputReportPath string) string {
	return stem(inputReportPath) + ".txt"
}
