package history

import (
	"context"
	"errors"
)

var (
	ErrInitialization = errors.New("history store initialization failed")
	ErrDuplicateQuiz  = errors.New("quiz history already exists")
	ErrEncoding       = errors.New("quiz history encoding failed")
	ErrMissingID      = errors.New("quiz history id is required")
	ErrStoreClosed    = errors.New("history store is closed")
)

type HistoryRepository interface {
	Save(ctx context.Context, record QuizSummary) error
	ListAll(ctx context.Context) ([]QuizSummary, error)
	ClearAll(ctx context.Context) error
}

// StatsRepository serves the aggregate queries backing the stats panel. All
// three aggregates come from one consistent read.
type StatsRepository interface {
	Aggregates(ctx context.Context) (Aggregates, error)
}
