package report

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/hindsight-lab/hindsight/pkg/errors"
)

// Chart geometry. The canvas matches a 12x7 inch figure at 100 DPI.
const (
	chartWidth  = 1200
	chartHeight = 700

	chartMarginLeft   = 70
	chartMarginRight  = 30
	chartMarginTop    = 50
	chartMarginBottom = 60
)

// RenderBalanceChart draws the yearly balance ledger as a standalone SVG:
// years on the x axis with a tick every two years, balance on a log10
// y axis, a dark-red line with point markers and a shaded area beneath it.
func RenderBalanceChart(w io.Writer, ledger map[int]float64, scenario string) error {
	if len(ledger) == 0 {
		return errors.New(errors.ErrCodeEmptyLedger, "balance ledger is empty, nothing to chart")
	}

	years := make([]int, 0, len(ledger))
	for year := range ledger {
		years = append(years, year)
	}
	sort.Ints(years)

	logs := make([]float64, len(years))
	for i, year := range years {
		balance := ledger[year]
		if balance <= 0 {
			return errors.Newf(errors.ErrCodeReportFailed, "balance %.4f for year %d cannot be drawn on a log scale", balance, year)
		}
		logs[i] = math.Log10(balance)
	}

	minYear, maxYear := years[0], years[len(years)-1]
	minLog, maxLog := logs[0], logs[0]
	for _, l := range logs {
		minLog = math.Min(minLog, l)
		maxLog = math.Max(maxLog, l)
	}

	// Round the y range outward to whole decades so ticks land on powers
	// of ten and every data point stays inside the frame.
	axisMinLog := math.Floor(minLog)
	axisMaxLog := math.Ceil(maxLog)
	if axisMaxLog == axisMinLog {
		axisMaxLog++
	}

	plotWidth := float64(chartWidth - chartMarginLeft - chartMarginRight)
	plotHeight := float64(chartHeight - chartMarginTop - chartMarginBottom)
	sx := plotWidth / (float64(maxYear-minYear) + 1e-9)
	sy := plotHeight / (axisMaxLog - axisMinLog)

	xAt := func(year int) float64 { return float64(year-minYear) * sx }
	yAt := func(logBalance float64) float64 { return plotHeight - (logBalance-axisMinLog)*sy }

	var b bytes.Buffer
	fmt.Fprintf(&b, "<svg xmlns='http://www.w3.org/2000/svg' width='%d' height='%d' viewBox='0 0 %d %d'>", chartWidth, chartHeight, chartWidth, chartHeight)
	b.WriteString("<rect width='100%' height='100%' fill='white'/>")
	fmt.Fprintf(&b, "<text x='%d' y='28' font-family='sans-serif' font-size='18' fill='#333'>Balance Over Years - %s Scenario</text>", chartMarginLeft, capitalize(scenario))
	fmt.Fprintf(&b, "<g transform='translate(%d,%d)'>", chartMarginLeft, chartMarginTop)

	// Dashed grid, one labelled tick per line.
	for year := minYear; year <= maxYear; year += 2 {
		x := xAt(year)
		fmt.Fprintf(&b, "<line x1='%.2f' y1='0' x2='%.2f' y2='%.2f' stroke='#cccccc' stroke-width='0.5' stroke-dasharray='4 3'/>", x, x, plotHeight)
		fmt.Fprintf(&b, "<text x='%.2f' y='%.2f' font-family='sans-serif' font-size='12' fill='#333' text-anchor='middle'>%d</text>", x, plotHeight+18, year)
	}

	tickStep := 1
	if span := int(axisMaxLog - axisMinLog); span > 8 {
		tickStep = (span + 7) / 8
	}
	for exp := int(axisMinLog); exp <= int(axisMaxLog); exp += tickStep {
		y := yAt(float64(exp))
		fmt.Fprintf(&b, "<line x1='0' y1='%.2f' x2='%.2f' y2='%.2f' stroke='#cccccc' stroke-width='0.5' stroke-dasharray='4 3'/>", y, plotWidth, y)
		fmt.Fprintf(&b, "<text x='-8' y='%.2f' font-family='sans-serif' font-size='12' fill='#333' text-anchor='end'>1e%d</text>", y+4, exp)
	}

	// Axes.
	fmt.Fprintf(&b, "<line x1='0' y1='0' x2='0' y2='%.2f' stroke='#333333'/>", plotHeight)
	fmt.Fprintf(&b, "<line x1='0' y1='%.2f' x2='%.2f' y2='%.2f' stroke='#333333'/>", plotHeight, plotWidth, plotHeight)

	// Shaded area under the balance line.
	b.WriteString("<polygon fill='darkred' fill-opacity='0.3' stroke='none' points='")
	fmt.Fprintf(&b, "%.2f,%.2f", xAt(minYear), plotHeight)
	for i, year := range years {
		fmt.Fprintf(&b, " %.2f,%.2f", xAt(year), yAt(logs[i]))
	}
	fmt.Fprintf(&b, " %.2f,%.2f", xAt(maxYear), plotHeight)
	b.WriteString("'/>")

	// The balance line itself, one marker per year.
	b.WriteString("<polyline fill='none' stroke='darkred' stroke-width='1.5' points='")
	for i, year := range years {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.2f,%.2f", xAt(year), yAt(logs[i]))
	}
	b.WriteString("'/>")
	for i, year := range years {
		fmt.Fprintf(&b, "<circle cx='%.2f' cy='%.2f' r='3' fill='darkred'/>", xAt(year), yAt(logs[i]))
	}

	// Axis titles.
	fmt.Fprintf(&b, "<text x='%.2f' y='%.2f' font-family='sans-serif' font-size='14' fill='#333' text-anchor='middle'>Year</text>", plotWidth/2, plotHeight+45)
	fmt.Fprintf(&b, "<text x='%.2f' y='%.2f' font-family='sans-serif' font-size='14' fill='#333' text-anchor='middle' transform='rotate(-90 %.2f %.2f)'>Balance (Log Scale)</text>", -50.0, plotHeight/2, -50.0, plotHeight/2)

	b.WriteString("</g></svg>")

	if _, err := w.Write(b.Bytes()); err != nil {
		return errors.Wrap(errors.ErrCodeReportFailed, "failed to write balance chart", err)
	}

	return nil
}

// WriteBalanceChart renders the chart into the file at path.
func WriteBalanceChart(path string, ledger map[int]float64, scenario string) error {
	var buf bytes.Buffer
	if err := RenderBalanceChart(&buf, ledger, scenario); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrap(errors.ErrCodeReportFailed, "failed to write balance chart file", err)
	}

	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
