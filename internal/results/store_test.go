package results

import (
	"path/filepath"
	"testing"
	"time"

	"quizroom/internal/game"
)

func sampleSummary(pin string, endedAt time.Time) game.Summary {
	return game.Summary{
		QuizTitle: "capital cities",
		Pin:       pin,
		Reason:    "completed",
		StartedAt: endedAt.Add(-5 * time.Minute),
		EndedAt:   endedAt,
		Participants: []game.LeaderboardEntry{
			{PlayerID: "p1", Name: "Alice", Score: 360, CorrectAnswers: 1},
			{PlayerID: "p2", Name: "Bob", Score: 0, CorrectAnswers: 0},
		},
		PerQuestion: []game.QuestionSummary{
			{Index: 0, Prompt: "capital of France?", Stats: game.QuestionStats{Submitted: 2, Total: 2}},
		},
	}
}

func TestSaveAndLoad(t *testing.T) {
	st := NewStore(t.TempDir())
	endedAt := time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC)

	if err := st.Save(sampleSummary("123456", endedAt)); err != nil {
		t.Fatalf("save: %v", err)
	}

	names, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 1 {
		t.Fatalf("expected one saved file, got %v", names)
	}
	if names[0] != "123456-20260501T123000.json" {
		t.Fatalf("unexpected file name %q", names[0])
	}

	got, err := st.Load(names[0])
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Pin != "123456" || got.QuizTitle != "capital cities" {
		t.Fatalf("unexpected summary: %+v", got)
	}
	if len(got.Participants) != 2 || got.Participants[0].Score != 360 {
		t.Fatalf("unexpected participants: %+v", got.Participants)
	}
	if len(got.PerQuestion) != 1 || got.PerQuestion[0].Stats.Submitted != 2 {
		t.Fatalf("unexpected per-question stats: %+v", got.PerQuestion)
	}
}

func TestRematchesDoNotClobber(t *testing.T) {
	st := NewStore(t.TempDir())
	first := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	if err := st.Save(sampleSummary("123456", first)); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := st.Save(sampleSummary("123456", first.Add(10*time.Minute))); err != nil {
		t.Fatalf("save rematch: %v", err)
	}

	names, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected two files for two games on one pin, got %v", names)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "results")
	st := NewStore(dir)

	if err := st.Save(sampleSummary("654321", time.Now().UTC())); err != nil {
		t.Fatalf("save into missing directory: %v", err)
	}
}

func TestListEmptyDirectory(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "never-created"))
	names, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected no files, got %v", names)
	}
}
