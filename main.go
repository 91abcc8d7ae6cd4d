/*
* Command line entry point
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
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const usage = `usage: blockrep [-config file] [-log-level level] <command> [arguments]

commands:
  measure <file> <blocksize-bits> <err-rate>   estimate block repetitions of a file
  analyze <input-report> <model-report>        chi-square test of two reports
  setup                                        create the input, output and json directories
  list                                         list reports in the json directory
  history                                      show recent runs
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("blockrep", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	configPath := fs.String("config", os.Getenv("BLOCKREP_CONFIG"), "configuration file (toml, yaml or json)")
	logLevel := fs.String("log-level", "", "override the configured log level")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitValidation
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitValidation
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stderr, "blockrep: load .env: %v\n", err)
		return exitFailure
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "blockrep: %v\n", err)
		return exitCode(err)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	runID := uuid.NewString()
	logger, err := NewLogger(cfg.Log, stderr, runID)
	if err != nil {
		fmt.Fprintf(stderr, "blockrep: %v\n", err)
		return exitValidation
	}

	a := &app{cfg: cfg, log: logger, runID: runID, stdout: stdout, stderr: stderr}
	commands := map[string]func(context.Context, []string) error{
		"measure": a.measure,
		"analyze": a.analyze,
		"setup":   a.setup,
		"list":    a.list,
		"history": a.history,
	}

	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "blockrep: unknown command %q\n", name)
		fs.Usage()
		return exitValidation
	}

	if err := cmd(ctx, rest); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "blockrep: %v\n", err)
		return exitCode(err)
	}
	return exitOK
}
