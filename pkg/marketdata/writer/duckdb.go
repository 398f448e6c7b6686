package writer

import (
	"go.uber.org/zap"

	"github.com/hindsight-lab/hindsight/internal/datasource"
	"github.com/hindsight-lab/hindsight/internal/logger"
	"github.com/hindsight-lab/hindsight/pkg/errors"
)

// DuckDBWriter buffers raw bars per symbol and, at Finalize, runs them
// through the cleaning rules and exports the surviving series to a
// Parquet bar store.
type DuckDBWriter struct {
	outputPath string
	cleanOpts  datasource.CleanOptions
	logger     *logger.Logger
	bars       map[string][]datasource.RawBar
	// symbols preserves insertion order so the store sequence follows
	// download order.
	symbols []string
}

// NewDuckDBWriter creates a writer that exports to outputPath using the
// given cleaning thresholds.
func NewDuckDBWriter(outputPath string, opts datasource.CleanOptions, log *logger.Logger) *DuckDBWriter {
	return &DuckDBWriter{
		outputPath: outputPath,
		cleanOpts:  opts,
		logger:     log,
		bars:       nil,
		symbols:    nil,
	}
}

// Initialize resets the buffer.
func (w *DuckDBWriter) Initialize() error {
	w.bars = make(map[string][]datasource.RawBar)
	w.symbols = nil

	return nil
}

// Write buffers one raw bar for symbol.
func (w *DuckDBWriter) Write(symbol string, bar datasource.RawBar) error {
	if w.bars == nil {
		return errors.New(errors.ErrCodeMarketDataWriteFailed, "writer is not initialized")
	}

	if _, ok := w.bars[symbol]; !ok {
		w.symbols = append(w.symbols, symbol)
	}

	w.bars[symbol] = append(w.bars[symbol], bar)

	return nil
}

// Finalize cleans every buffered symbol and writes the surviving series
// to the Parquet store at the configured output path. Symbols rejected by
// cleaning are skipped with a warning; rejecting all of them is an error.
func (w *DuckDBWriter) Finalize() (string, error) {
	if w.bars == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer is not initialized")
	}

	series := make([]datasource.CleanedSeries, 0, len(w.symbols))

	for _, symbol := range w.symbols {
		cleaned, err := datasource.CleanSeries(symbol, w.bars[symbol], w.cleanOpts, w.logger)
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeNoUsableData) {
				w.logger.Warn("skipping symbol with no usable data",
					zap.String("symbol", symbol),
					zap.Error(err))

				continue
			}

			return "", err
		}

		series = append(series, cleaned)
	}

	if len(series) == 0 {
		return "", errors.New(errors.ErrCodeNoUsableData, "no downloaded symbol survived cleaning")
	}

	store := datasource.NewStoreWriter(w.outputPath, w.logger)
	if err := store.Initialize(); err != nil {
		return "", err
	}

	defer func() {
		if cerr := store.Close(); cerr != nil {
			w.logger.Warn("error closing bar store writer", zap.Error(cerr))
		}
	}()

	if err := store.WriteDataset(datasource.NewDataset(series)); err != nil {
		return "", err
	}

	return store.Finalize()
}

// Close drops the buffer.
func (w *DuckDBWriter) Close() error {
	w.bars = nil
	w.symbols = nil

	return nil
}

// GetOutputPath returns the configured output file path.
func (w *DuckDBWriter) GetOutputPath() string {
	return w.outputPath
}
