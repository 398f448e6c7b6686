// Package datasource loads daily OHLCV bars into cleaned Datasets, either
// from directories of per-stock text files or from a Parquet bar store,
// and writes the store back out.
package datasource

import (
	"context"

	"github.com/moznion/go-optional"
)

// ProgressCallback reports loading progress: current unit, total units
// (0 when unknown up front), and the unit just finished.
type ProgressCallback func(current int, total int, name string)

// BarSource loads a cleaned Dataset from some backing store.
type BarSource interface {
	// Load reads every usable symbol and assembles the Dataset.
	Load(ctx context.Context, onProgress optional.Option[ProgressCallback]) (*Dataset, error)
	// Name identifies the source kind in logs.
	Name() string
	// Close releases underlying resources.
	Close() error
}
