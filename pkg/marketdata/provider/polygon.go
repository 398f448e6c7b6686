package provider

import (
	"context"
	"fmt"
	"os"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/hindsight-lab/hindsight/internal/datasource"
	"github.com/hindsight-lab/hindsight/internal/logger"
	"github.com/hindsight-lab/hindsight/pkg/errors"
	"github.com/hindsight-lab/hindsight/pkg/marketdata/writer"
)

// PolygonAggsIterator is the slice of the polygon aggregate iterator the
// client consumes.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient is the slice of the polygon REST client the provider
// uses, separated so tests can substitute canned responses.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

// polygonRESTClient adapts the real polygon client to PolygonAPIClient.
type polygonRESTClient struct {
	client *polygon.Client
}

func (c *polygonRESTClient) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return c.client.ListAggs(ctx, params, options...)
}

// PolygonClient downloads daily aggregates from polygon.io.
type PolygonClient struct {
	apiClient PolygonAPIClient
	writer    writer.MarketDataWriter
	logger    *logger.Logger
}

func NewPolygonClient(apiKey string, log *logger.Logger) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidProvider, "polygon apiKey is required")
	}

	return &PolygonClient{
		apiClient: &polygonRESTClient{client: polygon.New(apiKey)},
		writer:    nil,
		logger:    log,
	}, nil
}

// NewPolygonClientWithAPI builds a client around an existing API client.
// Tests use this to stay off the network.
func NewPolygonClientWithAPI(api PolygonAPIClient, log *logger.Logger) *PolygonClient {
	return &PolygonClient{
		apiClient: api,
		writer:    nil,
		logger:    log,
	}
}

func (c *PolygonClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

func (c *PolygonClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (path string, err error) {
	if c.writer == nil {
		return "", errors.New(errors.ErrCodeInvalidProvider, "no writer configured for PolygonClient, call ConfigWriter first")
	}

	if err = c.writer.Initialize(); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to initialize writer", err)
	}

	written := 0

	// Drop the output file when the download dies before producing
	// anything. Runs after the writer is closed.
	defer func() {
		if err == nil || written > 0 {
			return
		}

		if p := c.writer.GetOutputPath(); p != "" {
			if rmErr := os.Remove(p); rmErr != nil && !os.IsNotExist(rmErr) {
				c.logger.Warn("failed to remove partial output",
					zap.String("path", p),
					zap.Error(rmErr))
			}
		}
	}()

	defer func() {
		if cerr := c.writer.Close(); cerr != nil {
			if err == nil {
				err = errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "error closing writer", cerr)
			} else {
				c.logger.Warn("error closing writer after another error", zap.Error(cerr))
			}
		}
	}()

	totalDays := endDate.Sub(startDate).Hours()/24 + 1

	bar := progressbar.NewOptions(int(totalDays),
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", ticker)),
		progressbar.OptionShowCount())

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(startDate),
		To:         models.Millis(endDate),
	}.WithLimit(50000)

	iter := c.apiClient.ListAggs(ctx, params)

	for iter.Next() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr

			return "", err
		}

		agg := iter.Item()
		day := time.Time(agg.Timestamp)

		raw := datasource.RawBar{
			Date:   day,
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		}

		if err = c.writer.Write(ticker, raw); err != nil {
			return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write data", err)
		}

		written++

		// Progress tracks days covered rather than bars written, clamped
		// so holidays and weekends cannot push it past the total.
		daysElapsed := day.Sub(startDate).Hours() / 24
		if daysElapsed < 0 {
			daysElapsed = 0
		}

		if daysElapsed > totalDays {
			daysElapsed = totalDays
		}

		if onProgress != nil {
			onProgress(daysElapsed, totalDays, fmt.Sprintf("Downloading %s", ticker))
		}

		bar.Set(int(daysElapsed))
	}

	if iter.Err() != nil {
		err = errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "error iterating polygon aggregates", iter.Err())

		return "", err
	}

	bar.Finish()
	c.logger.Info("finished downloading",
		zap.String("ticker", ticker),
		zap.Int("bars", written))

	outputPath, err := c.writer.Finalize()
	if err != nil {
		err = errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to finalize writer", err)

		return "", err
	}

	return outputPath, nil
}
