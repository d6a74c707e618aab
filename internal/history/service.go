package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service is the surface the desktop shell calls into. Every error it returns
// carries a message that can be shown to the user as is.
type Service struct {
	records HistoryRepository
	stats   StatsRepository
	logger  *zap.Logger
}

func NewService(records HistoryRepository, stats StatsRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		records: records,
		stats:   stats,
		logger:  logger,
	}
}

// NewRecordID returns a fresh identifier for a quiz attempt.
func NewRecordID() string {
	return uuid.NewString()
}

func (s *Service) SaveQuizHistory(ctx context.Context, record QuizSummary) error {
	if err := s.records.Save(ctx, record); err != nil {
		s.logger.Error("Failed to save quiz history", zap.String("quiz_id", record.ID), zap.Error(err))
		return fmt.Errorf("failed to save quiz history: %w", err)
	}

	s.logger.Info("Quiz history saved",
		zap.String("quiz_id", record.ID),
		zap.Int("results", len(record.Results)),
	)
	return nil
}

func (s *Service) GetQuizHistory(ctx context.Context) ([]QuizSummary, error) {
	records, err := s.records.ListAll(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch quiz history", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch quiz history: %w", err)
	}
	return records, nil
}

func (s *Service) ClearQuizHistory(ctx context.Context) error {
	if err := s.records.ClearAll(ctx); err != nil {
		s.logger.Error("Failed to clear quiz history", zap.Error(err))
		return fmt.Errorf("failed to clear quiz history: %w", err)
	}

	s.logger.Info("Quiz history cleared")
	return nil
}

// Stats gathers the aggregate view. limit bounds the weakest and strongest port
// lists; values <= 0 fall back to 10.
func (s *Service) Stats(ctx context.Context, limit int) (Summary, error) {
	if s.stats == nil {
		return Summary{}, errors.New("failed to compute quiz stats: stats repository is not configured")
	}

	aggregates, err := s.stats.Aggregates(ctx)
	if err != nil {
		s.logger.Error("Failed to compute quiz stats", zap.Error(err))
		return Summary{}, fmt.Errorf("failed to compute quiz stats: %w", err)
	}

	return Summary{
		AverageAccuracy: aggregates.AverageAccuracy,
		ByDifficulty:    PerformanceByDifficulty(aggregates.Difficulties),
		Weakest:         WeakestPorts(aggregates.Ports, limit),
		Strongest:       StrongestPorts(aggregates.Ports, limit),
	}, nil
}
