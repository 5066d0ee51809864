package detection

import "errors"

// Per-cell errors: the cell (or candidate) is skipped with a logged reason
// and the pass continues. Pass-level failures (missing boundaries, missing
// model) are surfaced by the pipeline, not here.
var (
	// ErrInsufficientHistory means the cell does not yet have the minimum
	// number of observations for a trustworthy baseline. The cell is
	// skipped, never given a guessed baseline.
	ErrInsufficientHistory = errors.New("insufficient observation history")

	// ErrMalformedObservation means band values are missing or invalid in a
	// way that prevents evaluating the cell at all.
	ErrMalformedObservation = errors.New("malformed observation")

	// ErrUnobservedCell means the newest observation covered zero pixels;
	// the cell is excluded as unobserved rather than treated as stable.
	ErrUnobservedCell = errors.New("cell has no observed pixels")

	// ErrValidatorInference means the neural validator could not score the
	// candidate (bad vector length, non-finite values). The candidate is
	// discarded, never defaulted to a passing score.
	ErrValidatorInference = errors.New("validator inference failed")
)
