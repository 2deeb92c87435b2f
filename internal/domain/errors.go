package domain

import "errors"

var (
	// ErrMalformedQuote marks a single bad venue record. The record is
	// skipped; the cycle continues.
	ErrMalformedQuote = errors.New("malformed quote")

	// ErrFetchFailed marks a venue that was unreachable or too slow for the
	// current cycle. The cycle proceeds with the other venue's quotes.
	ErrFetchFailed = errors.New("venue fetch failed")

	// ErrNoMatch is the normal outcome for a quote with no counterpart on
	// the other venue. Not an error condition in the pipeline.
	ErrNoMatch = errors.New("no match found")

	// ErrComputation guards the calculator against out-of-range prices
	// reaching the edge arithmetic.
	ErrComputation = errors.New("price out of computable range")

	ErrNotFound    = errors.New("not found")
	ErrContextDone = errors.New("context cancelled")
)
