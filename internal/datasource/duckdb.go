package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/hindsight-lab/hindsight/internal/logger"
	"github.com/hindsight-lab/hindsight/internal/types"
	"github.com/hindsight-lab/hindsight/pkg/errors"
)

// DuckDBBarSource reads a cleaned-bar Parquet store written by a
// StoreWriter. It opens an in-memory DuckDB and exposes the store as a
// view; the persisted seq column reproduces the exact timeline ordering
// of the original cleaning run, outlier rows belong only to the
// validator's per-symbol view.
type DuckDBBarSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBBarSource opens an in-memory DuckDB instance for reading a
// bar store. Initialize must be called with the store path before Load.
func NewDuckDBBarSource(log *logger.Logger) (*DuckDBBarSource, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBBarSource{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize points the source at a Parquet store file.
func (d *DuckDBBarSource) Initialize(path string) error {
	d.logger.Debug("initializing duckdb bar source", zap.String("path", path))

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS day_bars;`); err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to drop existing view", err)
	}

	// Raw SQL: squirrel has no CREATE VIEW support.
	query := fmt.Sprintf(`
		CREATE VIEW day_bars AS
		SELECT * FROM read_parquet('%s');
	`, path)

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to read bar store %s", path)
	}

	return nil
}

// Name implements BarSource.
func (d *DuckDBBarSource) Name() string {
	return "duckdb"
}

// Close implements BarSource.
func (d *DuckDBBarSource) Close() error {
	return d.db.Close()
}

// Count returns the total number of stored rows, outliers included.
func (d *DuckDBBarSource) Count() (int, error) {
	var count int

	err := d.sq.Select("COUNT(*)").From("day_bars").RunWith(d.db).QueryRow().Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// Load implements BarSource. The per-symbol series come back in
// (symbol, date) order, the timeline in persisted seq order, so the
// reconstructed Dataset partitions identically to the cleaning run that
// wrote the store.
func (d *DuckDBBarSource) Load(ctx context.Context, onProgress optional.Option[ProgressCallback]) (*Dataset, error) {
	total, err := d.symbolCount(ctx)
	if err != nil {
		return nil, err
	}

	series := make(map[string][]types.DayBar)
	symbols := make([]string, 0, total)

	err = d.scanBars(ctx, `
		SELECT symbol, date, open, high, low, close, volume, max_quantity, price_range
		FROM day_bars
		ORDER BY symbol, date
	`, func(bar types.DayBar) {
		if len(symbols) == 0 || symbols[len(symbols)-1] != bar.Symbol {
			symbols = append(symbols, bar.Symbol)

			if onProgress.IsSome() {
				onProgress.Unwrap()(len(symbols), total, bar.Symbol)
			}
		}

		series[bar.Symbol] = append(series[bar.Symbol], bar)
	})
	if err != nil {
		return nil, err
	}

	if len(series) == 0 {
		return nil, errors.New(errors.ErrCodeNoUsableData, "bar store is empty")
	}

	var timeline []types.DayBar

	err = d.scanBars(ctx, `
		SELECT symbol, date, open, high, low, close, volume, max_quantity, price_range
		FROM day_bars
		WHERE seq >= 0
		ORDER BY seq
	`, func(bar types.DayBar) {
		timeline = append(timeline, bar)
	})
	if err != nil {
		return nil, err
	}

	d.logger.Info("loaded bar store",
		zap.Int("symbols", len(symbols)),
		zap.Int("timeline_bars", len(timeline)))

	return newDatasetFromParts(timeline, series, symbols), nil
}

func (d *DuckDBBarSource) symbolCount(ctx context.Context) (int, error) {
	var count int

	err := d.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT symbol) FROM day_bars`).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count symbols", err)
	}

	return count, nil
}

// scanBars runs a bar-shaped query and hands each decoded row to visit.
func (d *DuckDBBarSource) scanBars(ctx context.Context, query string, visit func(types.DayBar)) error {
	stmt, err := d.db.Prepare(query)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to prepare query", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			symbol                         string
			date                           time.Time
			open, high, low, close, volume float64
			maxQuantity                    int64
			priceRange                     float64
		)

		if err := rows.Scan(&symbol, &date, &open, &high, &low, &close, &volume, &maxQuantity, &priceRange); err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar row", err)
		}

		visit(types.DayBar{
			Symbol:      symbol,
			Date:        date.UTC(),
			Open:        open,
			High:        high,
			Low:         low,
			Close:       close,
			Volume:      volume,
			MaxQuantity: maxQuantity,
			Range:       priceRange,
		})
	}

	return rows.Err()
}
