package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"quintry/internal/history"
)

const insertHistoryQuery = `INSERT INTO quiz_history (id, date, score, total, accuracy, duration, difficulty, regions, countries)
	VALUES (:id, :date, :score, :total, :accuracy, :duration, :difficulty, :regions, :countries)`

type historyRow struct {
	ID         string         `db:"id"`
	Date       int64          `db:"date"`
	Score      int            `db:"score"`
	Total      int            `db:"total"`
	Accuracy   float64        `db:"accuracy"`
	Duration   int            `db:"duration"`
	Difficulty string         `db:"difficulty"`
	Regions    sql.NullString `db:"regions"`
	Countries  sql.NullString `db:"countries"`
}

type resultRow struct {
	QuizID    string `db:"quiz_id"`
	Port      string `db:"port"`
	IsCorrect int64  `db:"is_correct"`
}

// Save writes the summary and all of its results in one transaction. Nothing
// is left behind when any insert fails.
//
// A second save with the same id fails with history.ErrDuplicateQuiz and keeps
// the stored record unchanged.
func (s *Store) Save(ctx context.Context, record history.QuizSummary) error {
	if strings.TrimSpace(record.ID) == "" {
		return history.ErrMissingID
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	regions, err := encodeNames(record.Regions)
	if err != nil {
		return fmt.Errorf("%w: regions: %w", history.ErrEncoding, err)
	}
	countries, err := encodeNames(record.Countries)
	if err != nil {
		return fmt.Errorf("%w: countries: %w", history.ErrEncoding, err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := historyRow{
		ID:         record.ID,
		Date:       record.Date,
		Score:      record.Score,
		Total:      record.Total,
		Accuracy:   record.Accuracy,
		Duration:   record.Duration,
		Difficulty: record.Difficulty,
		Regions:    sql.NullString{String: regions, Valid: true},
		Countries:  sql.NullString{String: countries, Valid: true},
	}
	if _, err := tx.NamedExecContext(ctx, insertHistoryQuery, row); err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %q: %w", history.ErrDuplicateQuiz, record.ID, err)
		}
		return fmt.Errorf("failed to insert quiz history: %w", err)
	}

	if len(record.Results) > 0 {
		stmt, err := tx.PreparexContext(ctx, `INSERT INTO quiz_results (quiz_id, port, is_correct) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare quiz result insert: %w", err)
		}
		defer stmt.Close()

		for _, result := range record.Results {
			if _, err := stmt.ExecContext(ctx, record.ID, result.Port, boolToInt(result.IsCorrect)); err != nil {
				return fmt.Errorf("failed to insert quiz result: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit quiz history: %w", err)
	}

	s.logger.Debug("Quiz history inserted",
		zap.String("quiz_id", record.ID),
		zap.Int("results", len(record.Results)),
	)
	return nil
}

// ListAll returns every summary, most recent first, with its results attached.
// Quizzes sharing a timestamp come back in insertion order.
func (s *Store) ListAll(ctx context.Context) ([]history.QuizSummary, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var rows []historyRow
	if err := tx.SelectContext(
		ctx,
		&rows,
		`SELECT id, date, score, total, accuracy, duration, difficulty, regions, countries
		 FROM quiz_history
		 ORDER BY date DESC, rowid ASC`,
	); err != nil {
		return nil, fmt.Errorf("failed to fetch quiz history: %w", err)
	}

	var results []resultRow
	if err := tx.SelectContext(
		ctx,
		&results,
		`SELECT quiz_id, port, is_correct FROM quiz_results ORDER BY id ASC`,
	); err != nil {
		return nil, fmt.Errorf("failed to fetch quiz results: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit quiz history read: %w", err)
	}

	resultsByQuiz := make(map[string][]history.ItemResult, len(rows))
	for _, result := range results {
		resultsByQuiz[result.QuizID] = append(resultsByQuiz[result.QuizID], history.ItemResult{
			Port:      result.Port,
			IsCorrect: result.IsCorrect != 0,
		})
	}

	records := make([]history.QuizSummary, 0, len(rows))
	for _, row := range rows {
		items := resultsByQuiz[row.ID]
		if items == nil {
			items = []history.ItemResult{}
		}
		records = append(records, history.QuizSummary{
			ID:         row.ID,
			Date:       row.Date,
			Score:      row.Score,
			Total:      row.Total,
			Accuracy:   row.Accuracy,
			Duration:   row.Duration,
			Difficulty: row.Difficulty,
			Regions:    decodeNames(row.Regions),
			Countries:  decodeNames(row.Countries),
			Results:    items,
		})
	}

	return records, nil
}

// ClearAll removes every result and summary. Results go first so the delete
// does not depend on cascade being enabled.
func (s *Store) ClearAll(ctx context.Context) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_results`); err != nil {
		return fmt.Errorf("failed to clear quiz results: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_history`); err != nil {
		return fmt.Errorf("failed to clear quiz history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit quiz history clear: %w", err)
	}

	s.logger.Debug("Quiz history cleared")
	return nil
}

// encodeNames rejects invalid UTF-8 instead of letting json.Marshal swap the
// bad bytes for U+FFFD, which would break the round trip.
func encodeNames(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	for idx, name := range names {
		if !utf8.ValidString(name) {
			return "", fmt.Errorf("name %d (%q) is not valid UTF-8", idx, name)
		}
	}
	encoded, err := json.Marshal(names)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// decodeNames never fails: a corrupt or missing column reads as no names so a
// single bad row cannot hide the rest of the history.
func decodeNames(raw sql.NullString) []string {
	names := []string{}
	if !raw.Valid {
		return names
	}
	if err := json.Unmarshal([]byte(raw.String), &names); err != nil || names == nil {
		return []string{}
	}
	return names
}

func isDuplicateKey(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
