package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"quintry/internal/history"
)

type portStatsRow struct {
	Port     string `db:"port"`
	Attempts int    `db:"attempts"`
	Correct  int    `db:"correct"`
}

type difficultyStatsRow struct {
	Difficulty  string  `db:"difficulty"`
	Count       int     `db:"count"`
	AvgAccuracy float64 `db:"avg_accuracy"`
}

// Aggregates reads the average, the difficulty breakdown and the per-port
// stats inside one transaction so a concurrent save cannot land between them.
func (s *Store) Aggregates(ctx context.Context) (history.Aggregates, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return history.Aggregates{}, err
	}
	defer release()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return history.Aggregates{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	average, err := averageAccuracy(ctx, tx)
	if err != nil {
		return history.Aggregates{}, err
	}
	difficulties, err := difficultyStats(ctx, tx)
	if err != nil {
		return history.Aggregates{}, err
	}
	ports, err := portStats(ctx, tx)
	if err != nil {
		return history.Aggregates{}, err
	}

	if err := tx.Commit(); err != nil {
		return history.Aggregates{}, fmt.Errorf("failed to commit stats read: %w", err)
	}

	return history.Aggregates{
		AverageAccuracy: average,
		Difficulties:    difficulties,
		Ports:           ports,
	}, nil
}

// portStats aggregates every stored result by port. Accuracy is a percentage.
// Ports with equal attempts are ordered by name.
func portStats(ctx context.Context, q sqlx.QueryerContext) ([]history.PortStats, error) {
	var rows []portStatsRow
	if err := sqlx.SelectContext(
		ctx,
		q,
		&rows,
		// Served by idx_quiz_results_port_correct.
		`SELECT port, COUNT(*) AS attempts, SUM(is_correct) AS correct
		 FROM quiz_results
		 GROUP BY port
		 ORDER BY attempts DESC, port ASC`,
	); err != nil {
		return nil, fmt.Errorf("failed to aggregate port stats: %w", err)
	}

	stats := make([]history.PortStats, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, history.PortStats{
			Port:     row.Port,
			Attempts: row.Attempts,
			Correct:  row.Correct,
			Accuracy: float64(row.Correct) / float64(row.Attempts) * 100,
		})
	}
	return stats, nil
}

func difficultyStats(ctx context.Context, q sqlx.QueryerContext) ([]history.DifficultyStats, error) {
	var rows []difficultyStatsRow
	if err := sqlx.SelectContext(
		ctx,
		q,
		&rows,
		`SELECT difficulty, COUNT(*) AS count, AVG(accuracy) AS avg_accuracy
		 FROM quiz_history
		 GROUP BY difficulty
		 ORDER BY difficulty ASC`,
	); err != nil {
		return nil, fmt.Errorf("failed to aggregate difficulty stats: %w", err)
	}

	stats := make([]history.DifficultyStats, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, history.DifficultyStats(row))
	}
	return stats, nil
}

func averageAccuracy(ctx context.Context, q sqlx.QueryerContext) (float64, error) {
	var average float64
	if err := sqlx.GetContext(ctx, q, &average, `SELECT COALESCE(AVG(accuracy), 0.0) FROM quiz_history`); err != nil {
		return 0, fmt.Errorf("failed to compute average accuracy: %w", err)
	}
	return average, nil
}
