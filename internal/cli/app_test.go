package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"quintry/internal/history"
	"quintry/internal/history/sqlite"
)

func newTestService(t *testing.T) *history.Service {
	t.Helper()

	logger := zaptest.NewLogger(t)
	store, err := sqlite.Open(context.Background(), sqlite.Options{
		Path: filepath.Join(t.TempDir(), "quintry.db"),
	}, logger)
	if err != nil {
		t.Fatalf("sqlite.Open failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return history.NewService(store, store, logger)
}

const sampleJSON = `{
	"id": "q1",
	"date": 1000,
	"score": 4,
	"total": 5,
	"accuracy": 0.8,
	"duration": 60,
	"difficulty": "hard",
	"regions": ["Europe"],
	"countries": ["France", "Spain"],
	"results": [
		{"port": "FR-001", "isCorrect": true},
		{"port": "ES-002", "isCorrect": false}
	]
}`

func TestRunSaveListClear(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	var out bytes.Buffer
	if err := Run(ctx, service, []string{"save"}, strings.NewReader(sampleJSON), &out); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if strings.TrimSpace(out.String()) != "q1" {
		t.Fatalf("expected saved id, got %q", out.String())
	}

	out.Reset()
	if err := Run(ctx, service, []string{"list"}, nil, &out); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var records []history.QuizSummary
	if err := json.Unmarshal(out.Bytes(), &records); err != nil {
		t.Fatalf("decode list output failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "q1" || len(records[0].Results) != 2 {
		t.Fatalf("unexpected list output: %+v", records)
	}
	if !strings.Contains(out.String(), `"isCorrect": true`) {
		t.Fatalf("expected front-end field names, got %s", out.String())
	}

	out.Reset()
	if err := Run(ctx, service, []string{"clear"}, nil, &out); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	out.Reset()
	if err := Run(ctx, service, []string{"list"}, nil, &out); err != nil {
		t.Fatalf("list after clear failed: %v", err)
	}
	if strings.TrimSpace(out.String()) != "[]" {
		t.Fatalf("expected empty list, got %q", out.String())
	}
}

func TestRunSaveGeneratesIDAndDate(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	var out bytes.Buffer
	input := `{"score": 1, "total": 1, "accuracy": 1, "difficulty": "easy"}`
	if err := Run(ctx, service, []string{"save"}, strings.NewReader(input), &out); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	id := strings.TrimSpace(out.String())
	if id == "" {
		t.Fatalf("expected generated id")
	}

	records, err := service.GetQuizHistory(ctx)
	if err != nil {
		t.Fatalf("GetQuizHistory failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != id || records[0].Date == 0 {
		t.Fatalf("unexpected stored record: %+v", records)
	}
}

func TestRunSaveIDFlagOverridesBody(t *testing.T) {
	service := newTestService(t)

	var out bytes.Buffer
	if err := Run(context.Background(), service, []string{"save", "-id", "custom"}, strings.NewReader(sampleJSON), &out); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if strings.TrimSpace(out.String()) != "custom" {
		t.Fatalf("expected custom id, got %q", out.String())
	}
}

func TestRunSaveDuplicateFails(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	if err := Run(ctx, service, []string{"save"}, strings.NewReader(sampleJSON), &bytes.Buffer{}); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	err := Run(ctx, service, []string{"save"}, strings.NewReader(sampleJSON), &bytes.Buffer{})
	if !errors.Is(err, history.ErrDuplicateQuiz) {
		t.Fatalf("expected ErrDuplicateQuiz, got %v", err)
	}
}

func TestRunSaveRejectsInvalidJSON(t *testing.T) {
	service := newTestService(t)

	err := Run(context.Background(), service, []string{"save"}, strings.NewReader("{not json"), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "invalid quiz history JSON") {
		t.Fatalf("expected JSON error, got %v", err)
	}
}

func TestRunStats(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		record := history.QuizSummary{
			ID: id, Date: 1, Score: 1, Total: 2, Accuracy: 0.5, Difficulty: "normal",
			Results: []history.ItemResult{
				{Port: "Rotterdam", IsCorrect: false},
				{Port: "Hamburg", IsCorrect: true},
			},
		}
		if err := service.SaveQuizHistory(ctx, record); err != nil {
			t.Fatalf("SaveQuizHistory %s failed: %v", id, err)
		}
	}

	var out bytes.Buffer
	if err := Run(ctx, service, []string{"stats", "-limit", "3"}, nil, &out); err != nil {
		t.Fatalf("stats failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{"Average accuracy: 50.0%", "normal", "Rotterdam", "Hamburg", "easy"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in stats output:\n%s", want, text)
		}
	}
}

func TestRunUnknownCommand(t *testing.T) {
	service := newTestService(t)

	if err := Run(context.Background(), service, nil, nil, &bytes.Buffer{}); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand for no args, got %v", err)
	}
	if err := Run(context.Background(), service, []string{"export"}, nil, &bytes.Buffer{}); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}
