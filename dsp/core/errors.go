package core

import "errors"

// Sentinel errors shared by the analysis stages. Stages wrap them with the
// offending values; match with errors.Is.
var (
	// ErrDegenerateSignal reports a constant (or silent) input where a
	// non-degenerate range is required.
	ErrDegenerateSignal = errors.New("degenerate signal")
	// ErrInsufficientSamples reports a signal shorter than a processing window.
	ErrInsufficientSamples = errors.New("insufficient samples")
	// ErrDecomposition reports a mode decomposition that did not converge or
	// produced too few modes.
	ErrDecomposition = errors.New("decomposition failed")
	// ErrInsufficientData reports a series too short for a statistical
	// estimator.
	ErrInsufficientData = errors.New("insufficient data")
)
