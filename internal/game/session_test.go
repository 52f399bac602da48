package game

import "testing"

func TestTimeLimitResolution(t *testing.T) {
	quiz := Quiz{Questions: []Question{
		{ID: "q0", Type: QuestionSingleChoice, TimeLimitMs: 7_000},
		{ID: "q1", Type: QuestionSingleChoice},
	}}

	s := newSession("123456", "g1", "host", quiz, Settings{})
	if got := s.timeLimitMsLocked(0, 20_000); got != 7_000 {
		t.Fatalf("question override must win, got %d", got)
	}
	if got := s.timeLimitMsLocked(1, 20_000); got != 20_000 {
		t.Fatalf("expected fallback, got %d", got)
	}

	s = newSession("123456", "g1", "host", quiz, Settings{GlobalTimeLimitMs: 12_000})
	if got := s.timeLimitMsLocked(0, 20_000); got != 7_000 {
		t.Fatalf("question override must beat the session setting, got %d", got)
	}
	if got := s.timeLimitMsLocked(1, 20_000); got != 12_000 {
		t.Fatalf("expected session-wide limit, got %d", got)
	}
}

func TestLeaderboardElapsedTieBreak(t *testing.T) {
	s := newSession("123456", "g1", "host", Quiz{Questions: []Question{{ID: "q0"}}}, Settings{})

	// equal scores; the faster cumulative time on correct answers ranks first
	slow := &Player{ID: "p1", ConnID: "c1", Name: "Slow", Score: 100, Answers: []Answer{
		{Submitted: true, Correctness: 1, ElapsedMs: 9_000, Awarded: 100},
	}}
	fast := &Player{ID: "p2", ConnID: "c2", Name: "Fast", Score: 100, Answers: []Answer{
		{Submitted: true, Correctness: 1, ElapsedMs: 2_000, Awarded: 100},
	}}
	s.addPlayerLocked(slow)
	s.addPlayerLocked(fast)

	lb := s.leaderboardLocked()
	if lb[0].Name != "Fast" || lb[1].Name != "Slow" {
		t.Fatalf("expected elapsed tie-break, got %+v", lb)
	}
	if lb[0].CorrectAnswers != 1 {
		t.Fatalf("expected one correct answer counted, got %d", lb[0].CorrectAnswers)
	}
}

func TestNameTakenIsCaseInsensitive(t *testing.T) {
	s := newSession("123456", "g1", "host", Quiz{Questions: []Question{{ID: "q0"}}}, Settings{})
	s.addPlayerLocked(&Player{ID: "p1", ConnID: "c1", Name: "Alice"})

	if !s.nameTakenLocked("ALICE") {
		t.Fatal("case variants of a taken name must collide")
	}
	if !s.nameTakenLocked("  alice  ") {
		t.Fatal("surrounding whitespace must not dodge the collision")
	}
	if s.nameTakenLocked("Bob") {
		t.Fatal("a fresh name must not collide")
	}
}
