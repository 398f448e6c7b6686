package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hindsight-lab/hindsight/pkg/errors"
)

// Action identifies which of the four daily price points a trade leg
// executes at.
type Action string

const (
	ActionBuyOpen   Action = "buy-open"
	ActionBuyLow    Action = "buy-low"
	ActionSellHigh  Action = "sell-high"
	ActionSellClose Action = "sell-close"
)

// IsBuy reports whether the action is a buying leg.
func (a Action) IsBuy() bool {
	return a == ActionBuyOpen || a == ActionBuyLow
}

// IsSell reports whether the action is a selling leg.
func (a Action) IsSell() bool {
	return a == ActionSellHigh || a == ActionSellClose
}

// Move is one trade leg exactly as it appears in a serialized move list.
// All fields are textual: the list format is the contract, and the replay
// validator parses dates and quantities back out of it rather than
// trusting richer types. Strategies emit moves in same-day pairs, buy leg
// first.
type Move struct {
	Date     string `yaml:"date" json:"date" csv:"date" validate:"required,datetime=2006-01-02"`
	Action   Action `yaml:"action" json:"action" csv:"action" validate:"required,oneof=buy-open buy-low sell-high sell-close"`
	Symbol   string `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Quantity string `yaml:"quantity" json:"quantity" csv:"quantity" validate:"required,number"`
}

// NewMove builds a move for the given trading day.
func NewMove(date time.Time, action Action, symbol string, quantity int64) Move {
	return Move{
		Date:     date.Format(DateLayout),
		Action:   action,
		Symbol:   symbol,
		Quantity: strconv.FormatInt(quantity, 10),
	}
}

// String returns the serialized line form: "date action symbol quantity".
func (m Move) String() string {
	return fmt.Sprintf("%s %s %s %s", m.Date, m.Action, m.Symbol, m.Quantity)
}

// ParseMoveLine parses one serialized move line back into a Move. Field
// contents are not interpreted here; the replay validator owns that.
func ParseMoveLine(line string) (Move, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return Move{}, errors.Newf(errors.ErrCodeMalformedMove, "expected 4 fields, got %d in %q", len(fields), line)
	}

	return Move{
		Date:     fields[0],
		Action:   Action(fields[1]),
		Symbol:   fields[2],
		Quantity: fields[3],
	}, nil
}

// Validate validates the Move struct.
func (m *Move) Validate() error {
	validate := validator.New()
	if err := validate.Struct(m); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidMove, "invalid move", err)
	}

	return nil
}
