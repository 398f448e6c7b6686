package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsight-lab/hindsight/pkg/errors"
)

func TestNewMove(t *testing.T) {
	date := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMove(date, ActionBuyLow, "X", 100)

	assert.Equal(t, "2020-01-01", m.Date)
	assert.Equal(t, ActionBuyLow, m.Action)
	assert.Equal(t, "X", m.Symbol)
	assert.Equal(t, "100", m.Quantity)
}

func TestMoveString(t *testing.T) {
	m := Move{Date: "2017-03-15", Action: ActionSellHigh, Symbol: "AAPL", Quantity: "2500"}
	assert.Equal(t, "2017-03-15 sell-high AAPL 2500", m.String())
}

func TestParseMoveLine(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		expected    Move
		shouldError bool
	}{
		{
			name:     "well formed",
			line:     "2020-01-01 buy-low X 100",
			expected: Move{Date: "2020-01-01", Action: ActionBuyLow, Symbol: "X", Quantity: "100"},
		},
		{
			name:     "extra whitespace",
			line:     "  2020-01-01   sell-close   X   100  ",
			expected: Move{Date: "2020-01-01", Action: ActionSellClose, Symbol: "X", Quantity: "100"},
		},
		{
			name:        "too few fields",
			line:        "2020-01-01 buy-low X",
			shouldError: true,
		},
		{
			name:        "too many fields",
			line:        "2020-01-01 buy-low X 100 extra",
			shouldError: true,
		},
		{
			name:        "empty line",
			line:        "",
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMoveLine(tt.line)
			if tt.shouldError {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeMalformedMove))

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, m)
		})
	}
}

func TestMoveRoundTrip(t *testing.T) {
	original := NewMove(time.Date(2015, 6, 30, 0, 0, 0, 0, time.UTC), ActionBuyOpen, "MSFT", 42)
	parsed, err := ParseMoveLine(original.String())
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestMoveValidate(t *testing.T) {
	tests := []struct {
		name        string
		move        Move
		shouldError bool
	}{
		{
			name: "valid move",
			move: Move{Date: "2020-01-01", Action: ActionBuyLow, Symbol: "X", Quantity: "100"},
		},
		{
			name:        "bad date",
			move:        Move{Date: "01/01/2020", Action: ActionBuyLow, Symbol: "X", Quantity: "100"},
			shouldError: true,
		},
		{
			name:        "unknown action",
			move:        Move{Date: "2020-01-01", Action: "hold", Symbol: "X", Quantity: "100"},
			shouldError: true,
		},
		{
			name:        "missing symbol",
			move:        Move{Date: "2020-01-01", Action: ActionSellClose, Quantity: "100"},
			shouldError: true,
		},
		{
			name:        "non-numeric quantity",
			move:        Move{Date: "2020-01-01", Action: ActionSellClose, Symbol: "X", Quantity: "many"},
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.move.Validate()
			if tt.shouldError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestActionSides(t *testing.T) {
	assert.True(t, ActionBuyOpen.IsBuy())
	assert.True(t, ActionBuyLow.IsBuy())
	assert.False(t, ActionSellHigh.IsBuy())
	assert.False(t, ActionSellClose.IsBuy())

	assert.True(t, ActionSellHigh.IsSell())
	assert.True(t, ActionSellClose.IsSell())
	assert.False(t, ActionBuyOpen.IsSell())
	assert.False(t, ActionBuyLow.IsSell())
}
