package datasource

import (
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/hindsight-lab/hindsight/internal/logger"
	"github.com/hindsight-lab/hindsight/internal/types"
	"github.com/hindsight-lab/hindsight/pkg/errors"
)

// StoreWriter persists a cleaned Dataset as a Parquet bar store. Rows
// carry a seq column: the bar's position in the timeline, or -1 for
// outlier rows that only the validator's view keeps. Writing goes
// through an in-memory DuckDB table and a single transaction, exported
// with COPY at Finalize.
type StoreWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
	logger     *logger.Logger
}

// NewStoreWriter creates a writer targeting the given Parquet file path.
func NewStoreWriter(outputPath string, log *logger.Logger) *StoreWriter {
	return &StoreWriter{
		outputPath: outputPath,
		logger:     log,
	}
}

// Initialize opens the database, creates the bar table, begins the write
// transaction, and prepares the insert statement.
func (w *StoreWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to open duckdb", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS day_bars (
			seq BIGINT,
			symbol VARCHAR,
			date TIMESTAMP,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE,
			max_quantity BIGINT,
			price_range DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to create table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(`
		INSERT INTO day_bars (seq, symbol, date, open, high, low, close, volume, max_quantity, price_range)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to prepare statement", err)
	}

	return nil
}

// Write persists a single bar with its timeline sequence (-1 when the
// bar is outside the timeline).
func (w *StoreWriter) Write(bar types.DayBar, seq int64) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeStoreWriteFailed, "writer not initialized")
	}

	_, err := w.stmt.Exec(
		seq,
		bar.Symbol,
		bar.Date,
		bar.Open,
		bar.High,
		bar.Low,
		bar.Close,
		bar.Volume,
		bar.MaxQuantity,
		bar.Range,
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to insert bar", err)
	}

	return nil
}

// WriteDataset persists a whole Dataset: every pre-outlier bar of every
// symbol, annotated with its timeline position when it has one.
func (w *StoreWriter) WriteDataset(ds *Dataset) error {
	timeline := ds.Timeline()
	pos := make(map[string]int64, len(timeline))

	for i, bar := range timeline {
		pos[bar.Symbol+"\x00"+bar.DateKey()] = int64(i)
	}

	for _, symbol := range ds.Symbols() {
		for _, bar := range ds.Series(symbol) {
			seq, ok := pos[bar.Symbol+"\x00"+bar.DateKey()]
			if !ok {
				seq = -1
			}

			if err := w.Write(bar, seq); err != nil {
				return err
			}
		}
	}

	return nil
}

// Finalize commits the transaction and exports the table to Parquet.
func (w *StoreWriter) Finalize() (string, error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeStoreWriteFailed, "writer not initialized or transaction is nil")
	}

	if err := w.tx.Commit(); err != nil {
		w.tx.Rollback()

		return "", errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to commit transaction", err)
	}

	w.tx = nil

	_, err := w.db.Exec(fmt.Sprintf(`COPY day_bars TO '%s' (FORMAT PARQUET)`, w.outputPath))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to export to parquet", err)
	}

	w.logger.Info("exported bar store", zap.String("path", w.outputPath))

	return w.outputPath, nil
}

// Close releases the statement, rolls back any unfinished transaction,
// and closes the database.
func (w *StoreWriter) Close() error {
	var closeErrors []error

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			closeErrors = append(closeErrors, err)
		}

		w.stmt = nil
	}

	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			w.logger.Warn("failed to rollback transaction during close", zap.Error(err))
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			closeErrors = append(closeErrors, err)
		}

		w.db = nil
	}

	if len(closeErrors) > 0 {
		errMsg := "errors occurred during close:"
		for _, e := range closeErrors {
			errMsg += fmt.Sprintf("\n- %v", e)
		}

		return errors.New(errors.ErrCodeStoreWriteFailed, errMsg)
	}

	return nil
}
