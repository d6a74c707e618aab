package sqlite

import (
	"context"
	"fmt"

	"quintry/internal/history"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS quiz_history (
		id TEXT PRIMARY KEY,
		date INTEGER NOT NULL,
		score INTEGER NOT NULL,
		total INTEGER NOT NULL,
		accuracy REAL NOT NULL,
		duration INTEGER NOT NULL,
		difficulty TEXT NOT NULL,
		-- JSON arrays of names, order preserved.
		regions TEXT NOT NULL,
		countries TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_quiz_history_date ON quiz_history(date DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_quiz_history_difficulty ON quiz_history(difficulty);`,
	`CREATE TABLE IF NOT EXISTS quiz_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		quiz_id TEXT NOT NULL,
		port TEXT NOT NULL,
		is_correct INTEGER NOT NULL,
		FOREIGN KEY (quiz_id) REFERENCES quiz_history(id) ON DELETE CASCADE
	);`,
	`CREATE INDEX IF NOT EXISTS idx_quiz_results_port_correct ON quiz_results(port, is_correct);`,
	`CREATE INDEX IF NOT EXISTS idx_quiz_results_quiz_id ON quiz_results(quiz_id);`,
}

// ensureSchema creates tables and indexes once per process. A failed attempt
// is retried by the next operation.
func (s *Store) ensureSchema(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()

	if s.schemaReady {
		return nil
	}
	if err := s.initSchema(ctx); err != nil {
		return fmt.Errorf("%w: %w", history.ErrInitialization, err)
	}
	s.schemaReady = true
	return nil
}

func (s *Store) initSchema(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return tx.Commit()
}
