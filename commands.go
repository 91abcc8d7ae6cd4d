/*
* Command implementations
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
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
)

// Blocks processed between two progress updates.
const progressInterval = 1 << 16

type app struct {
	cfg    *Config
	log    *slog.Logger
	runID  string
	stdout io.Writer
	stderr io.Writer
}

func (a *app) newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "usage: blockrep %s %s\n", name, usage)
		fs.PrintDefaults()
	}
	return fs
}

func parseArgs(fs *flag.FlagSet, args []string, positional int) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() != positional {
		fs.Usage()
		return fmt.Errorf("%w: %s takes %d arguments, got %d", ErrUsage, fs.Name(), positional, fs.NArg())
	}
	return nil
}

// resolve places a bare file name inside dir. Absolute paths are kept.
func resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func (a *app) measure(ctx context.Context, args []string) error {
	fs := a.newFlagSet("measure", "[flags] <file> <blocksize-bits> <err-rate>")
	seed := fs.Uint64("seed", a.cfg.Measure.Seed, "Bloom filter hash seed")
	randomSeed := fs.Bool("random-seed", a.cfg.Measure.RandomSeed, "draw a random hash seed instead of -seed")
	progress := fs.Bool("progress", a.cfg.Measure.Progress, "print read progress to stderr")
	if err := parseArgs(fs, args, 3); err != nil {
		return err
	}

	inputPath := resolve(a.cfg.InputDir, fs.Arg(0))
	blocksize, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("%w: %q is not an integer", ErrInvalidBlocksize, fs.Arg(1))
	}
	errRate, err := strconv.ParseFloat(fs.Arg(2), 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", ErrInvalidErrorRate, fs.Arg(2))
	}

	if err := validateBlocksize(blocksize); err != nil {
		return err
	}
	info, err := requireFile(inputPath)
	if err != nil {
		return err
	}
	if err := validateErrorRate(errRate); err != nil {
		return err
	}

	if _, err := ensureDir(a.cfg.JSONDir); err != nil {
		return fmt.Errorf("prepare json directory: %w", err)
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	width := blocksize / 8
	numBlocks := BlockCount(info.Size(), width)
	digest := newDigest()
	stream := StreamBlocks(ctx, io.TeeReader(f, digest), width, a.cfg.Measure.ChunkSize)
	defer stream.Close()

	opts := []EstimateOption{WithSeed(*seed)}
	if *randomSeed {
		opts = append(opts, WithRandomSeed())
	}
	pp := progressPrinter{w: a.stderr, width: width}
	if *progress {
		opts = append(opts, WithProgress(progressInterval, pp.blocks))
	}

	a.log.Debug("measuring", "input", inputPath, "blocksize", blocksize, "err_rate", errRate, "num_blocks", numBlocks)
	report, err := Estimate(stream, blocksize, numBlocks, errRate, opts...)
	if err != nil {
		return fmt.Errorf("measure %s: %w", inputPath, err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("measure %s: %w", inputPath, err)
	}
	if *progress {
		pp.done()
	}

	outPath := filepath.Join(a.cfg.JSONDir, ReportFileName(inputPath, blocksize, errRate))
	if err := WriteReport(outPath, report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	summary := SummarizeHits(report)
	a.log.Info("measured",
		"input", inputPath,
		"output", outPath,
		"num_blocks", report.NumBlocks,
		"filter_bits", report.Filter.Bits,
		"filter_hashes", report.Filter.Hashes,
		"seed", report.Filter.Seed,
		"hits", summary,
	)

	a.record(ctx, RunRecord{
		Kind:        runMeasure,
		Input:       inputPath,
		InputDigest: digestString(digest),
		Output:      outPath,
		Blocksize:   report.Blocksize,
		ErrRate:     report.ErrRate,
		NumBlocks:   report.NumBlocks,
		TotalHits:   summary.TotalHits,
	})

	fmt.Fprintln(a.stdout, outPath)
	return nil
}

func (a *app) analyze(ctx context.Context, args []string) error {
	fs := a.newFlagSet("analyze", "<input-report> <model-report>")
	if err := parseArgs(fs, args, 2); err != nil {
		return err
	}

	inputPath := resolve(a.cfg.JSONDir, fs.Arg(0))
	modelPath := resolve(a.cfg.JSONDir, fs.Arg(1))
	if _, err := requireFile(inputPath); err != nil {
		return err
	}
	if _, err := requireFile(modelPath); err != nil {
		return err
	}

	input, err := ReadReport(inputPath)
	if err != nil {
		return err
	}
	model, err := ReadReport(modelPath)
	if err != nil {
		return err
	}

	cmp, err := Compare(input, model)
	if err != nil {
		return fmt.Errorf("compare %s with %s: %w", filepath.Base(inputPath), filepath.Base(modelPath), err)
	}

	if _, err := ensureDir(a.cfg.OutputDir); err != nil {
		return fmt.Errorf("prepare output directory: %w", err)
	}
	outPath := filepath.Join(a.cfg.OutputDir, ResultFileName(inputPath))
	if err := writeFileAtomic(outPath, []byte(FormatResults(cmp))); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	res := cmp.Result
	a.log.Info("analyzed",
		"input", inputPath,
		"model", modelPath,
		"output", outPath,
		"buckets", len(cmp.TrimmedModel),
		"chi_square", res.ChiSquare,
		"dof", res.DegreesOfFreedom,
	)

	rec := RunRecord{
		Kind:             runAnalyze,
		Input:            inputPath,
		Model:            modelPath,
		Output:           outPath,
		Blocksize:        input.Blocksize,
		ErrRate:          input.ErrRate,
		NumBlocks:        input.NumBlocks,
		TotalHits:        input.TotalHits(),
		ChiSquare:        sql.NullFloat64{Float64: res.ChiSquare, Valid: true},
		DegreesOfFreedom: sql.NullInt64{Int64: int64(res.DegreesOfFreedom), Valid: true},
	}
	if res.HasPValue {
		rec.PValue = sql.NullFloat64{Float64: res.PValue, Valid: true}
	}
	a.record(ctx, rec)

	fmt.Fprintln(a.stdout, outPath)
	return nil
}

func (a *app) setup(_ context.Context, args []string) error {
	fs := a.newFlagSet("setup", "")
	if err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	for _, dir := range []string{a.cfg.InputDir, a.cfg.OutputDir, a.cfg.JSONDir} {
		created, err := ensureDir(dir)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(a.stdout, "Creating directory: %s\n", dir)
		} else {
			fmt.Fprintf(a.stdout, "Directory: %s already exists!\n", dir)
		}
	}
	return nil
}

func (a *app) list(_ context.Context, args []string) error {
	fs := a.newFlagSet("list", "")
	if err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	names, err := ScanReports(a.cfg.JSONDir)
	if errors.Is(err, os.ErrNotExist) {
		return newFileNotFoundError(a.cfg.JSONDir)
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tBLOCKSIZE\tERR_RATE\tNUM_BLOCKS\tHITS\tSTATUS")
	for _, rn := range names {
		r, err := ReadReport(rn.Path(a.cfg.JSONDir))
		if err != nil {
			a.log.Warn("unreadable report", "file", rn.File, "err", err)
			fmt.Fprintf(tw, "%s\t%d\t%s\t-\t-\tinvalid\n", rn.File, rn.Blocksize, formatErrRate(rn.ErrRate))
			continue
		}
		status := "ok"
		if r.Blocksize != rn.Blocksize || r.ErrRate != rn.ErrRate {
			status = "name mismatch"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\t%s\n", rn.File, r.Blocksize, formatErrRate(r.ErrRate), r.NumBlocks, r.TotalHits(), status)
	}
	return tw.Flush()
}

func (a *app) history(ctx context.Context, args []string) error {
	fs := a.newFlagSet("history", "[-limit n]")
	limit := fs.Int("limit", 20, "number of runs to show")
	if err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	if !a.cfg.Catalog.Enabled {
		return errors.New("run catalog is disabled")
	}

	catalog, err := OpenCatalog(a.cfg.CatalogPath())
	if err != nil {
		return err
	}
	defer catalog.Close()

	records, err := catalog.Recent(ctx, *limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tKIND\tINPUT\tOUTPUT\tBLOCKSIZE\tERR_RATE\tNUM_BLOCKS\tHITS\tCHI_SQUARE\tDOF")
	for _, rec := range records {
		chi, dof := "-", "-"
		if rec.ChiSquare.Valid {
			chi = formatFloat(rec.ChiSquare.Float64)
		}
		if rec.DegreesOfFreedom.Valid {
			dof = strconv.FormatInt(rec.DegreesOfFreedom.Int64, 10)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%d\t%d\t%s\t%s\n",
			rec.CreatedAt.Local().Format("2006-01-02 15:04:05"), rec.Kind,
			filepath.Base(rec.Input), filepath.Base(rec.Output),
			rec.Blocksize, formatErrRate(rec.ErrRate), rec.NumBlocks, rec.TotalHits, chi, dof)
	}
	return tw.Flush()
}

// record appends a run to the catalog. Failures only produce a warning.
func (a *app) record(ctx context.Context, rec RunRecord) {
	if !a.cfg.Catalog.Enabled {
		return
	}
	rec.ID = a.runID
	catalog, err := OpenCatalog(a.cfg.CatalogPath())
	if err != nil {
		a.log.Warn("run catalog unavailable", "err", err)
		return
	}
	defer catalog.Close()
	if err := catalog.Record(ctx, rec); err != nil {
		a.log.Warn("could not record run", "err", err)
	}
}
