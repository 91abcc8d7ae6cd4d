/*
* Error kinds reported by measurement and analysis
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
	"errors"
	"fmt"
)

var (
	// Input validation errors
	ErrInvalidBlocksize   = errors.New("invalid blocksize")
	ErrInvalidErrorRate   = errors.New("invalid error rate")
	ErrFileNotFound       = errors.New("file not found")
	ErrInvalidReport      = errors.New("invalid repetition report")
	ErrMalformedReport    = errors.New("malformed repetition report")
	ErrBlockCountMismatch = errors.New("block count mismatch")
	ErrUsage              = errors.New("usage")

	// Raised when two reports were measured with different parameters
	ErrParameterMismatch = errors.New("parameter mismatch")

	// Raised when no model bucket is large enough for the chi-square test
	ErrDegenerateDistribution = errors.New("degenerate distribution")
)

func newParameterMismatchError(field string, input, model any) error {
	return fmt.Errorf("%w: %s differs (input %v, model %v)", ErrParameterMismatch, field, input, model)
}

func newFileNotFoundError(path string) error {
	return fmt.Errorf("%w: %s", ErrFileNotFound, path)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidBlocksize) ||
		errors.Is(err, ErrInvalidErrorRate) ||
		errors.Is(err, ErrFileNotFound) ||
		errors.Is(err, ErrInvalidReport) ||
		errors.Is(err, ErrMalformedReport) ||
		errors.Is(err, ErrBlockCountMismatch) ||
		errors.Is(err, ErrUsage)
}

func IsParameterMismatch(err error) bool {
	return errors.Is(err, ErrParameterMismatch)
}

func IsDegenerateDistribution(err error) bool {
	return errors.Is(err, ErrDegenerateDistribution)
}

// Process exit codes, one per error kind.
const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
	exitMismatch   = 3
	exitDegenerate = 4
)

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case IsValidationError(err):
		return exitValidation
	case IsParameterMismatch(err):
		return exitMismatch
	case IsDegenerateDistribution(err):
		return exitDegenerate
	default:
		return exitFailure
	}
}
