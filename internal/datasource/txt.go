package datasource

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/hindsight-lab/hindsight/internal/logger"
	"github.com/hindsight-lab/hindsight/internal/types"
	"github.com/hindsight-lab/hindsight/pkg/errors"
)

// TxtDataSource reads a directory of per-stock CSV text files, one file
// per symbol, named like AAPL.us.txt with a Date,Open,High,Low,Close,
// Volume header (extra columns are ignored). Files are visited in sorted
// name order so the resulting timeline is deterministic.
type TxtDataSource struct {
	dir    string
	opts   CleanOptions
	logger *logger.Logger
}

// NewTxtDataSource creates a text-directory source.
func NewTxtDataSource(dir string, opts CleanOptions, log *logger.Logger) *TxtDataSource {
	return &TxtDataSource{
		dir:    dir,
		opts:   opts,
		logger: log,
	}
}

// Name implements BarSource.
func (s *TxtDataSource) Name() string {
	return "txt"
}

// Close implements BarSource. Nothing is held open between loads.
func (s *TxtDataSource) Close() error {
	return nil
}

// Load implements BarSource. Unusable files are logged and skipped; the
// load fails only when the directory is missing or no symbol survives
// cleaning.
func (s *TxtDataSource) Load(ctx context.Context, onProgress optional.Option[ProgressCallback]) (*Dataset, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "data directory not found: %s", s.dir)
	}

	names := make([]string, 0, len(entries))

	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
			names = append(names, e.Name())
		}
	}

	s.logger.Info("loading stock files", zap.String("dir", s.dir), zap.Int("files", len(names)))

	series := make([]CleanedSeries, 0, len(names))

	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		symbol := symbolFromFilename(name)

		raw, err := s.readFile(filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Error("error reading file", zap.String("file", name), zap.Error(err))

			continue
		}

		if len(raw) == 0 {
			s.logger.Warn("file contains no data", zap.String("file", name))

			continue
		}

		cleaned, err := CleanSeries(symbol, raw, s.opts, s.logger)
		if err != nil {
			s.logger.Warn("skipping symbol", zap.String("file", name), zap.Error(err))

			continue
		}

		series = append(series, cleaned)

		if onProgress.IsSome() {
			onProgress.Unwrap()(i+1, len(names), symbol)
		}
	}

	if len(series) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoUsableData, "no usable stock data in %s", s.dir)
	}

	s.logger.Info("loaded and filtered stock data", zap.Int("symbols", len(series)))

	return NewDataset(series), nil
}

// symbolFromFilename maps "aapl.us.txt" to "AAPL".
func symbolFromFilename(name string) string {
	if i := strings.Index(name, "."); i >= 0 {
		name = name[:i]
	}

	return strings.ToUpper(name)
}

// readFile parses one CSV file into raw bars. The header row decides
// column positions; the five OHLCV columns and Date are required.
func (s *TxtDataSource) readFile(path string) ([]RawBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}

	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParseFailed, "failed to read header", err)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}

	for _, required := range []string{"Date", "Open", "High", "Low", "Close", "Volume"} {
		if _, ok := col[required]; !ok {
			return nil, errors.Newf(errors.ErrCodeParseFailed, "missing column %q", required)
		}
	}

	var raw []RawBar

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParseFailed, "failed to read row", err)
		}

		if len(record) < len(header) {
			return nil, errors.Newf(errors.ErrCodeParseFailed, "row has %d fields, header has %d", len(record), len(header))
		}

		date, err := time.Parse(types.DateLayout, record[col["Date"]])
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeParseFailed, err, "bad date %q", record[col["Date"]])
		}

		bar := RawBar{Date: date}

		for name, dst := range map[string]*float64{
			"Open":   &bar.Open,
			"High":   &bar.High,
			"Low":    &bar.Low,
			"Close":  &bar.Close,
			"Volume": &bar.Volume,
		} {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col[name]]), 64)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrCodeParseFailed, err, "bad %s value %q", name, record[col[name]])
			}

			*dst = v
		}

		raw = append(raw, bar)
	}

	return raw, nil
}
