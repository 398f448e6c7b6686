package writer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/hindsight-lab/hindsight/internal/datasource"
	"github.com/hindsight-lab/hindsight/internal/logger"
	"github.com/hindsight-lab/hindsight/pkg/errors"
)

type DuckDBWriterTestSuite struct {
	suite.Suite
	tempDir string
	logger  *logger.Logger
}

func TestDuckDBWriterSuite(t *testing.T) {
	suite.Run(t, new(DuckDBWriterTestSuite))
}

func (suite *DuckDBWriterTestSuite) SetupSuite() {
	tempDir, err := os.MkdirTemp("", "duckdb-writer-test")
	suite.Require().NoError(err)
	suite.tempDir = tempDir

	log, err := logger.NewLogger()
	suite.Require().NoError(err)
	suite.logger = log
}

func (suite *DuckDBWriterTestSuite) TearDownSuite() {
	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

func testCleanOptions() datasource.CleanOptions {
	return datasource.CleanOptions{
		ZeroValueThreshold: 0.1,
		OutlierStdDevs:     3,
		VolumeFraction:     0.1,
	}
}

// rawDay builds one well-formed raw bar for January 2020.
func rawDay(dayOfMonth int, price float64) datasource.RawBar {
	return datasource.RawBar{
		Date:   time.Date(2020, time.January, dayOfMonth, 0, 0, 0, 0, time.UTC),
		Open:   price,
		High:   price + 1,
		Low:    price - 1,
		Close:  price + 0.5,
		Volume: 1000,
	}
}

// loadStore reads a finished Parquet store back into a Dataset.
func (suite *DuckDBWriterTestSuite) loadStore(path string) *datasource.Dataset {
	source, err := datasource.NewDuckDBBarSource(suite.logger)
	suite.Require().NoError(err)

	defer source.Close()

	suite.Require().NoError(source.Initialize(path))

	ds, err := source.Load(context.Background(), optional.None[datasource.ProgressCallback]())
	suite.Require().NoError(err)

	return ds
}

func (suite *DuckDBWriterTestSuite) TestWriteWithoutInitialize() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "no_init.parquet"), testCleanOptions(), suite.logger)

	err := writer.Write("AAPL", rawDay(2, 10))
	suite.Error(err)
	suite.Contains(err.Error(), "not initialized")
}

func (suite *DuckDBWriterTestSuite) TestFinalizeWithoutInitialize() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "no_init_finalize.parquet"), testCleanOptions(), suite.logger)

	_, err := writer.Finalize()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataWriteFailed))
}

func (suite *DuckDBWriterTestSuite) TestFinalizeRoundTrip() {
	outputPath := filepath.Join(suite.tempDir, "round_trip.parquet")
	writer := NewDuckDBWriter(outputPath, testCleanOptions(), suite.logger)

	suite.Require().NoError(writer.Initialize())
	suite.Equal(outputPath, writer.GetOutputPath())

	for day := 2; day <= 4; day++ {
		suite.Require().NoError(writer.Write("AAPL", rawDay(day, 10)))
	}

	for day := 2; day <= 4; day++ {
		suite.Require().NoError(writer.Write("MSFT", rawDay(day, 20)))
	}

	path, err := writer.Finalize()
	suite.Require().NoError(err)
	suite.Equal(outputPath, path)
	suite.Require().NoError(writer.Close())

	_, err = os.Stat(path)
	suite.Require().NoError(err)

	ds := suite.loadStore(path)
	suite.ElementsMatch([]string{"AAPL", "MSFT"}, ds.Symbols())
	suite.Len(ds.Timeline(), 6)

	bar, ok := ds.Lookup("AAPL", time.Date(2020, time.January, 3, 0, 0, 0, 0, time.UTC))
	suite.Require().True(ok)
	suite.InDelta(10.0, bar.Open, 1e-9)
	suite.InDelta(11.0, bar.High, 1e-9)
	suite.InDelta(9.0, bar.Low, 1e-9)
	suite.InDelta(10.5, bar.Close, 1e-9)
	// 10% of the day's 1000 shares.
	suite.Equal(int64(100), bar.MaxQuantity)
}

func (suite *DuckDBWriterTestSuite) TestFinalizeSkipsUnusableSymbols() {
	outputPath := filepath.Join(suite.tempDir, "skip_unusable.parquet")
	writer := NewDuckDBWriter(outputPath, testCleanOptions(), suite.logger)

	suite.Require().NoError(writer.Initialize())

	for day := 2; day <= 4; day++ {
		suite.Require().NoError(writer.Write("GOOD", rawDay(day, 10)))
	}

	// Every BAD row carries a zero price, so cleaning rejects the symbol.
	for day := 2; day <= 4; day++ {
		bar := rawDay(day, 10)
		bar.Open = 0
		suite.Require().NoError(writer.Write("BAD", bar))
	}

	path, err := writer.Finalize()
	suite.Require().NoError(err)

	ds := suite.loadStore(path)
	suite.Equal([]string{"GOOD"}, ds.Symbols())
	suite.Len(ds.Timeline(), 3)
}

func (suite *DuckDBWriterTestSuite) TestFinalizeAllSymbolsRejected() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "all_rejected.parquet"), testCleanOptions(), suite.logger)

	suite.Require().NoError(writer.Initialize())

	bar := rawDay(2, 10)
	bar.Volume = 0
	suite.Require().NoError(writer.Write("BAD", bar))

	_, err := writer.Finalize()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoUsableData))
}

func (suite *DuckDBWriterTestSuite) TestInitializeResetsBuffer() {
	outputPath := filepath.Join(suite.tempDir, "reset.parquet")
	writer := NewDuckDBWriter(outputPath, testCleanOptions(), suite.logger)

	suite.Require().NoError(writer.Initialize())
	suite.Require().NoError(writer.Write("STALE", rawDay(2, 10)))

	suite.Require().NoError(writer.Initialize())

	for day := 2; day <= 4; day++ {
		suite.Require().NoError(writer.Write("FRESH", rawDay(day, 10)))
	}

	path, err := writer.Finalize()
	suite.Require().NoError(err)

	ds := suite.loadStore(path)
	suite.Equal([]string{"FRESH"}, ds.Symbols())
}

func (suite *DuckDBWriterTestSuite) TestWriteAfterClose() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "closed.parquet"), testCleanOptions(), suite.logger)

	suite.Require().NoError(writer.Initialize())
	suite.Require().NoError(writer.Close())

	err := writer.Write("AAPL", rawDay(2, 10))
	suite.Error(err)
}
