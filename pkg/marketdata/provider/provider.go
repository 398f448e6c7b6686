package provider

import (
	"context"
	"time"

	"github.com/hindsight-lab/hindsight/internal/logger"
	"github.com/hindsight-lab/hindsight/pkg/errors"
	"github.com/hindsight-lab/hindsight/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
)

// OnDownloadProgress reports download progress: days covered so far, total
// days in the requested range, and a human-readable status line.
type OnDownloadProgress = func(current float64, total float64, message string)

type Provider interface {
	// ConfigWriter configures the writer for the provider.
	// The writer decides where the downloaded bars end up.
	ConfigWriter(writer writer.MarketDataWriter)
	// Download fetches daily bars for the given ticker and date range and
	// hands them to the configured writer. The context can be used to
	// cancel the download operation. Returns the path of the finished
	// store.
	Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (path string, err error)
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
func NewMarketDataProvider(providerType ProviderType, apiKey string, log *logger.Logger) (Provider, error) {
	switch providerType {
	case ProviderPolygon:
		return NewPolygonClient(apiKey, log)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}
