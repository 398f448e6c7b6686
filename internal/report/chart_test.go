package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsight-lab/hindsight/pkg/errors"
)

func TestRenderBalanceChartStructure(t *testing.T) {
	ledger := map[int]float64{
		2018: 1.5e3,
		2019: 2.7e5,
		2020: 8.1e9,
	}

	var buf bytes.Buffer
	require.NoError(t, RenderBalanceChart(&buf, ledger, "small"))

	svg := buf.String()
	assert.True(t, strings.HasPrefix(svg, "<svg "))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Contains(t, svg, "Balance Over Years - Small Scenario")
	assert.Contains(t, svg, "<polyline fill='none' stroke='darkred'")
	assert.Contains(t, svg, "fill-opacity='0.3'")
	assert.Contains(t, svg, ">Year</text>")
	assert.Contains(t, svg, ">Balance (Log Scale)</text>")

	// Ticks every two years starting from the first year.
	assert.Contains(t, svg, ">2018</text>")
	assert.Contains(t, svg, ">2020</text>")
	assert.NotContains(t, svg, ">2019</text>")

	// Log-scale decade labels spanning the balance range.
	assert.Contains(t, svg, ">1e3</text>")
	assert.Contains(t, svg, ">1e10</text>")

	// One marker per charted year.
	assert.Equal(t, 3, strings.Count(svg, "<circle"))
}

func TestRenderBalanceChartOddFirstYearTicks(t *testing.T) {
	ledger := map[int]float64{
		2019: 100,
		2020: 200,
		2021: 400,
		2022: 800,
	}

	var buf bytes.Buffer
	require.NoError(t, RenderBalanceChart(&buf, ledger, "large"))

	svg := buf.String()
	assert.Contains(t, svg, ">2019</text>")
	assert.Contains(t, svg, ">2021</text>")
	assert.NotContains(t, svg, ">2020</text>")
	assert.NotContains(t, svg, ">2022</text>")
}

func TestRenderBalanceChartSingleYear(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderBalanceChart(&buf, map[int]float64{2020: 1180}, "small"))

	svg := buf.String()
	assert.Contains(t, svg, ">2020</text>")
	assert.Equal(t, 1, strings.Count(svg, "<circle"))
}

func TestRenderBalanceChartEmptyLedger(t *testing.T) {
	var buf bytes.Buffer
	err := RenderBalanceChart(&buf, nil, "small")

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeEmptyLedger))
}

func TestRenderBalanceChartRejectsNonPositiveBalance(t *testing.T) {
	var buf bytes.Buffer
	err := RenderBalanceChart(&buf, map[int]float64{2020: 0}, "small")

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeReportFailed))
}

func TestWriteBalanceChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.svg")

	require.NoError(t, WriteBalanceChart(path, map[int]float64{2020: 1180, 2021: 1540}, "large"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Balance Over Years - Large Scenario")
}
