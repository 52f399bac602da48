package game

import (
	"errors"
	"fmt"
	"testing"
)

func testQuiz(n int) Quiz {
	qs := make([]Question, n)
	for i := range qs {
		qs[i] = Question{
			ID:      fmt.Sprintf("q%d", i),
			Type:    QuestionSingleChoice,
			Prompt:  fmt.Sprintf("question %d", i),
			Options: []Option{{ID: "a"}, {ID: "b"}},
			Correct: []string{"a"},
		}
	}
	return Quiz{Title: "registry quiz", Questions: qs}
}

func TestCreateAssignsUniquePins(t *testing.T) {
	r := NewRegistry(6)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		s, err := r.Create(fmt.Sprintf("host%d", i), testQuiz(1), Settings{})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if !ValidPinFormat(s.Pin) {
			t.Fatalf("malformed pin %q", s.Pin)
		}
		if seen[s.Pin] {
			t.Fatalf("pin %q assigned twice", s.Pin)
		}
		seen[s.Pin] = true
		if s.GameID == "" {
			t.Fatal("expected a game id")
		}
	}
}

func TestCreateRejectsEmptyQuiz(t *testing.T) {
	r := NewRegistry(6)
	if _, err := r.Create("host", Quiz{Title: "empty"}, Settings{}); !errors.Is(err, ErrEmptyQuiz) {
		t.Fatalf("expected empty-quiz error, got %v", err)
	}
}

func TestGetAndDelete(t *testing.T) {
	r := NewRegistry(6)
	s, err := r.Create("host", testQuiz(1), Settings{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := r.Get(s.Pin)
	if err != nil || got != s {
		t.Fatalf("get returned %v, %v", got, err)
	}

	r.Delete(s.Pin)
	if _, err := r.Get(s.Pin); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected not-found after delete, got %v", err)
	}
	// deleting again is fine
	r.Delete(s.Pin)
}

func TestFindByHost(t *testing.T) {
	r := NewRegistry(6)
	s, err := r.Create("host-a", testQuiz(1), Settings{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if got := r.FindByHost("host-a"); got != s {
		t.Fatalf("expected the host's session, got %v", got)
	}
	if got := r.FindByHost("host-b"); got != nil {
		t.Fatalf("expected nil for unknown host, got %v", got)
	}
}

func TestListJoinableFiltersLobbies(t *testing.T) {
	r := NewRegistry(6)
	lobby, err := r.Create("host-a", testQuiz(2), Settings{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	running, err := r.Create("host-b", testQuiz(2), Settings{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	running.mu.Lock()
	running.state = StateAsking
	running.mu.Unlock()

	list := r.ListJoinable()
	if len(list) != 1 {
		t.Fatalf("expected one joinable game, got %d", len(list))
	}
	if list[0].Pin != lobby.Pin || list[0].QuestionCount != 2 {
		t.Fatalf("unexpected advertisement: %+v", list[0])
	}
}

func TestRandomizeQuestionsSetting(t *testing.T) {
	r := NewRegistry(6)
	quiz := testQuiz(30)
	s, err := r.Create("host", quiz, Settings{RandomizeQuestions: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(s.Quiz.Questions) != len(quiz.Questions) {
		t.Fatalf("shuffle must keep all questions, got %d", len(s.Quiz.Questions))
	}
	ids := make(map[string]bool, len(quiz.Questions))
	for _, q := range s.Quiz.Questions {
		ids[q.ID] = true
	}
	for _, q := range quiz.Questions {
		if !ids[q.ID] {
			t.Fatalf("question %s lost in shuffle", q.ID)
		}
	}
}

func TestValidPinFormat(t *testing.T) {
	cases := []struct {
		pin  string
		want bool
	}{
		{"123456", true},
		{"000000", true},
		{"12345", false},
		{"1234567", false},
		{"12345a", false},
		{"", false},
		{"12 456", false},
	}
	for _, c := range cases {
		if got := ValidPinFormat(c.pin); got != c.want {
			t.Fatalf("ValidPinFormat(%q) = %v, want %v", c.pin, got, c.want)
		}
	}
}
