package writer

import (
	"github.com/hindsight-lab/hindsight/internal/datasource"
)

// MarketDataWriter defines the interface for writing downloaded market data
// to a destination store.
type MarketDataWriter interface {
	// Initialize sets up the writer. Calling it again discards anything
	// buffered since the last Finalize.
	Initialize() error
	// Write persists a single raw daily bar for the given symbol.
	Write(symbol string, bar datasource.RawBar) error
	// Finalize completes the writing process (cleans the buffered series,
	// exports files) and returns the path of the finished store.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}
