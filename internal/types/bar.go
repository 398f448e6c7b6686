package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hindsight-lab/hindsight/pkg/errors"
)

// DateLayout is the calendar-day format used everywhere a date crosses a
// package boundary: move lists, bar lookups, store columns.
const DateLayout = "2006-01-02"

// DayBar is one stock's one trading day after cleaning. Prices and volume
// are strictly positive, Low is the day's true minimum and High the true
// maximum. MaxQuantity caps how many shares a single trade may take from
// that day's liquidity; Range is High minus Low.
type DayBar struct {
	Symbol      string    `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Date        time.Time `yaml:"date" json:"date" csv:"date" validate:"required"`
	Open        float64   `yaml:"open" json:"open" csv:"open" validate:"required,gt=0"`
	High        float64   `yaml:"high" json:"high" csv:"high" validate:"required,gt=0"`
	Low         float64   `yaml:"low" json:"low" csv:"low" validate:"required,gt=0"`
	Close       float64   `yaml:"close" json:"close" csv:"close" validate:"required,gt=0"`
	Volume      float64   `yaml:"volume" json:"volume" csv:"volume" validate:"required,gt=0"`
	MaxQuantity int64     `yaml:"max_quantity" json:"max_quantity" csv:"max_quantity" validate:"gte=0"`
	Range       float64   `yaml:"range" json:"range" csv:"range" validate:"gte=0"`
}

// Validate validates the DayBar struct.
func (b *DayBar) Validate() error {
	validate := validator.New()
	if err := validate.Struct(b); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidBar, "invalid day bar", err)
	}

	if b.Low > b.Open || b.Low > b.Close || b.Low > b.High {
		return errors.Newf(errors.ErrCodeInvalidBar, "low %.4f above another price of %s on %s", b.Low, b.Symbol, b.DateKey())
	}

	if b.High < b.Open || b.High < b.Close {
		return errors.Newf(errors.ErrCodeInvalidBar, "high %.4f below another price of %s on %s", b.High, b.Symbol, b.DateKey())
	}

	return nil
}

// DateKey returns the bar's date in DateLayout form.
func (b *DayBar) DateKey() string {
	return b.Date.Format(DateLayout)
}

// Year returns the calendar year of the bar.
func (b *DayBar) Year() int {
	return b.Date.Year()
}

// Month returns the calendar month of the bar.
func (b *DayBar) Month() time.Month {
	return b.Date.Month()
}
