package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsight-lab/hindsight/internal/types"
	"github.com/hindsight-lab/hindsight/pkg/errors"
)

func sampleMoves() []types.Move {
	return []types.Move{
		{Date: "2020-01-02", Action: types.ActionBuyLow, Symbol: "X", Quantity: "100"},
		{Date: "2020-01-02", Action: types.ActionSellClose, Symbol: "X", Quantity: "100"},
		{Date: "2020-01-06", Action: types.ActionBuyOpen, Symbol: "Y", Quantity: "7"},
		{Date: "2020-01-06", Action: types.ActionSellHigh, Symbol: "Y", Quantity: "7"},
	}
}

func TestWriteAndReadMoves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moves.txt")
	moves := sampleMoves()

	require.NoError(t, WriteMoves(path, moves))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "4\n2020-01-02 buy-low X 100\n2020-01-02 sell-close X 100\n2020-01-06 buy-open Y 7\n2020-01-06 sell-high Y 7\n", string(raw))

	got, err := ReadMoves(path)
	require.NoError(t, err)
	assert.Equal(t, moves, got)
}

func TestWriteMovesEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moves.txt")

	require.NoError(t, WriteMoves(path, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0\n", string(raw))

	got, err := ReadMoves(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadMovesRejectsMalformedFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "count mismatch",
			content: "3\n2020-01-02 buy-low X 100\n2020-01-02 sell-close X 100\n",
		},
		{
			name:    "count not a number",
			content: "many\n2020-01-02 buy-low X 100\n",
		},
		{
			name:    "negative count",
			content: "-1\n",
		},
		{
			name:    "short move line",
			content: "1\n2020-01-02 buy-low X\n",
		},
		{
			name:    "empty file",
			content: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "moves.txt")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0644))

			_, err := ReadMoves(path)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeMalformedMove))
		})
	}
}

func TestReadMovesMissingFile(t *testing.T) {
	_, err := ReadMoves(filepath.Join(t.TempDir(), "nope.txt"))

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeReportFailed))
}

func TestReadMovesSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moves.txt")
	require.NoError(t, os.WriteFile(path, []byte("2\n2020-01-02 buy-low X 100\n\n2020-01-02 sell-close X 100\n\n"), 0644))

	got, err := ReadMoves(path)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
