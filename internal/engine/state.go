package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/hindsight-lab/hindsight/internal/logger"
	"github.com/hindsight-lab/hindsight/internal/types"
)

// RunState tracks one run's output in an embedded DuckDB: the move list
// in execution order and the end-of-year balances. It can export both
// as Parquet for inspection after the run.
type RunState struct {
	db      *sql.DB
	logger  *logger.Logger
	sq      squirrel.StatementBuilderType
	nextSeq int64
}

// NewRunState creates an in-memory run state.
func NewRunState(logger *logger.Logger) *RunState {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))
		return nil
	}

	return &RunState{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// Initialize creates the tables for tracking moves and balances.
func (s *RunState) Initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS moves (
			seq BIGINT PRIMARY KEY,
			date VARCHAR,
			action VARCHAR,
			symbol VARCHAR,
			quantity VARCHAR
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create moves table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS balances (
			year INTEGER PRIMARY KEY,
			balance DOUBLE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create balances table: %w", err)
	}

	return nil
}

// RecordMoves appends moves to the run's move list, preserving their
// order.
func (s *RunState) RecordMoves(moves []types.Move) error {
	if len(moves) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO moves (seq, date, action, symbol, quantity) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}

	for _, move := range moves {
		if _, err := stmt.Exec(s.nextSeq, move.Date, string(move.Action), move.Symbol, move.Quantity); err != nil {
			stmt.Close()
			tx.Rollback()

			return fmt.Errorf("failed to insert move: %w", err)
		}

		s.nextSeq++
	}

	if err := stmt.Close(); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to close statement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RecordBalance stores the end-of-year balance for a year.
func (s *RunState) RecordBalance(year int, balance float64) error {
	insertQuery := s.sq.
		Insert("balances").
		Columns("year", "balance").
		Values(year, balance).
		RunWith(s.db)

	if _, err := insertQuery.Exec(); err != nil {
		return fmt.Errorf("failed to insert balance: %w", err)
	}

	return nil
}

// RecordResult stores a whole run result: all moves plus every year's
// closing balance.
func (s *RunState) RecordResult(result *Result) error {
	if err := s.RecordMoves(result.Moves); err != nil {
		return err
	}

	for year, balance := range result.Ledger {
		if err := s.RecordBalance(year, balance); err != nil {
			return err
		}
	}

	return nil
}

// MoveCount returns the number of recorded moves.
func (s *RunState) MoveCount() (int, error) {
	countQuery := s.sq.
		Select("COUNT(*)").
		From("moves").
		RunWith(s.db)

	var count int
	if err := countQuery.QueryRow().Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count moves: %w", err)
	}

	return count, nil
}

// Moves returns all recorded moves in execution order.
func (s *RunState) Moves() ([]types.Move, error) {
	selectQuery := s.sq.
		Select("date", "action", "symbol", "quantity").
		From("moves").
		OrderBy("seq ASC").
		RunWith(s.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query moves: %w", err)
	}
	defer rows.Close()

	var moves []types.Move

	for rows.Next() {
		var (
			move   types.Move
			action string
		)

		if err := rows.Scan(&move.Date, &action, &move.Symbol, &move.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan move: %w", err)
		}

		move.Action = types.Action(action)
		moves = append(moves, move)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating moves: %w", err)
	}

	return moves, nil
}

// Balances returns the recorded year-to-balance ledger.
func (s *RunState) Balances() (map[int]float64, error) {
	selectQuery := s.sq.
		Select("year", "balance").
		From("balances").
		OrderBy("year ASC").
		RunWith(s.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close()

	ledger := make(map[int]float64)

	for rows.Next() {
		var (
			year    int
			balance float64
		)

		if err := rows.Scan(&year, &balance); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}

		ledger[year] = balance
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balances: %w", err)
	}

	return ledger, nil
}

// Cleanup resets the run state.
func (s *RunState) Cleanup() error {
	// Use raw SQL for dropping tables - Squirrel doesn't have DROP syntax
	_, err := s.db.Exec(`
		DROP TABLE IF EXISTS moves;
		DROP TABLE IF EXISTS balances;
	`)
	if err != nil {
		return fmt.Errorf("failed to cleanup tables: %w", err)
	}

	s.nextSeq = 0

	// Reinitialize
	return s.Initialize()
}

// Write exports the run's moves and balances to Parquet files in the
// given directory.
func (s *RunState) Write(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Export to Parquet - using raw SQL as Squirrel doesn't support COPY
	movesPath := filepath.Join(path, "moves.parquet")
	if _, err := s.db.Exec(fmt.Sprintf(`COPY moves TO '%s' (FORMAT PARQUET)`, movesPath)); err != nil {
		return fmt.Errorf("failed to export moves to Parquet: %w", err)
	}

	balancesPath := filepath.Join(path, "balances.parquet")
	if _, err := s.db.Exec(fmt.Sprintf(`COPY balances TO '%s' (FORMAT PARQUET)`, balancesPath)); err != nil {
		return fmt.Errorf("failed to export balances to Parquet: %w", err)
	}

	s.logger.Info("Successfully exported run state to Parquet files",
		zap.String("moves", movesPath),
		zap.String("balances", balancesPath),
	)

	return nil
}

// Close releases the underlying database.
func (s *RunState) Close() error {
	return s.db.Close()
}
