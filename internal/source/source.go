// Package source fetches raw tabular content from an external sheet
// source. It returns the header row and all data rows; classification
// sampling and entity mapping happen downstream.
package source

import (
	"context"
	"errors"
)

// Fetch failure taxonomy. These are sentinel errors so callers can map
// them to user-facing messages without string matching.
var (
	// ErrSourceUnreachable covers transport and permission failures,
	// such as a sheet that is not link-shared.
	ErrSourceUnreachable = errors.New("source unreachable")

	// ErrSourceEmpty means the source had a header but zero data rows,
	// or no content at all.
	ErrSourceEmpty = errors.New("source is empty")

	// ErrSourceTooLarge means the row count exceeds the configured cap.
	ErrSourceTooLarge = errors.New("source exceeds row limit")
)

// Sheet is the fetched tabular content: one header row plus data rows.
// Rows may be ragged; consumers index defensively.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// Sample returns the first k data rows, for classifier content probing.
func (s *Sheet) Sample(k int) [][]string {
	if k >= len(s.Rows) {
		return s.Rows
	}
	return s.Rows[:k]
}

// Connector fetches a sheet by opaque reference. Implementations must be
// safe to call repeatedly: fetching has no side effects on the source.
type Connector interface {
	Fetch(ctx context.Context, sourceRef string) (*Sheet, error)
}
