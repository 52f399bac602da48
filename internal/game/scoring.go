package game

import (
	"math"
	"strings"
)

// Scoring awards points for one answer. It is deterministic: same inputs,
// same award, no clock or randomness inside.
type Scoring struct {
	Base          int
	BonusWindowMs int64
}

// Award computes the points for an answer with the given correctness fraction
// (0..1; full credit at 1). The speed bonus decays linearly across the bonus
// window, which is capped at the question's time limit.
func (sc Scoring) Award(correctness float64, elapsedMs, timeLimitMs int64, d Difficulty, doublePoints bool) int {
	if correctness <= 0 {
		return 0
	}
	if correctness > 1 {
		correctness = 1
	}
	window := sc.BonusWindowMs
	if timeLimitMs > 0 && timeLimitMs < window {
		window = timeLimitMs
	}
	bonus := 0.0
	if window > 0 && elapsedMs < window {
		bonus = float64(window-elapsedMs) / float64(window)
	}
	raw := float64(sc.Base) * correctness * (1 + bonus) * float64(d.Multiplier())
	if doublePoints {
		raw *= 2
	}
	award := int(math.Round(raw))
	if award < 0 {
		award = 0
	}
	return award
}

// Correctness grades value against q and returns a fraction in [0,1].
// A value whose shape does not fit the question's type is a type mismatch,
// not a wrong answer.
func Correctness(q Question, v AnswerValue) (float64, error) {
	switch q.Type {
	case QuestionSingleChoice, QuestionTrueFalse:
		if v.OptionID == "" {
			return 0, ErrTypeMismatch
		}
		if len(q.Correct) > 0 && v.OptionID == q.Correct[0] {
			return 1, nil
		}
		return 0, nil

	case QuestionMultipleCorrect:
		if len(v.OptionIDs) == 0 {
			return 0, ErrTypeMismatch
		}
		return jaccard(q.Correct, v.OptionIDs), nil

	case QuestionNumeric:
		if v.Number == nil {
			return 0, ErrTypeMismatch
		}
		if math.Abs(*v.Number-q.Expected) <= q.Tolerance {
			return 1, nil
		}
		return 0, nil

	case QuestionText:
		if v.Text == "" {
			return 0, ErrTypeMismatch
		}
		if normalizeText(v.Text) == normalizeText(q.ExpectedText) {
			return 1, nil
		}
		return 0, nil

	case QuestionOrdering:
		if len(v.Order) != len(q.CorrectOrder) {
			return 0, ErrTypeMismatch
		}
		return orderingScore(q.CorrectOrder, v.Order)

	case QuestionMatching:
		if len(v.Matches) == 0 {
			return 0, ErrTypeMismatch
		}
		return matchingScore(q.Pairs, v.Matches), nil

	default:
		return 0, ErrTypeMismatch
	}
}

// normalizeText trims, case-folds, and collapses internal whitespace.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// jaccard is |A∩B| / |A∪B| over option-id sets.
func jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, x := range a {
		setA[x] = struct{}{}
	}
	union := make(map[string]struct{}, len(a)+len(b))
	inter := 0
	for x := range setA {
		union[x] = struct{}{}
	}
	seen := make(map[string]struct{}, len(b))
	for _, x := range b {
		if _, dup := seen[x]; dup {
			continue
		}
		seen[x] = struct{}{}
		union[x] = struct{}{}
		if _, ok := setA[x]; ok {
			inter++
		}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(inter) / float64(len(union))
}

// orderingScore grades a permutation by normalized Kendall distance:
// 1 − inversions/maxInversions. A submission that is not a permutation of
// the correct items is a type mismatch.
func orderingScore(correct, got []string) (float64, error) {
	rank := make(map[string]int, len(correct))
	for i, id := range correct {
		rank[id] = i
	}
	ranks := make([]int, len(got))
	seen := make(map[string]struct{}, len(got))
	for i, id := range got {
		r, ok := rank[id]
		if !ok {
			return 0, ErrTypeMismatch
		}
		if _, dup := seen[id]; dup {
			return 0, ErrTypeMismatch
		}
		seen[id] = struct{}{}
		ranks[i] = r
	}
	n := len(ranks)
	if n < 2 {
		return 1, nil
	}
	inversions := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if ranks[i] > ranks[j] {
				inversions++
			}
		}
	}
	maxInv := n * (n - 1) / 2
	return 1 - float64(inversions)/float64(maxInv), nil
}

// matchingScore is the fraction of canonical pairs matched exactly.
func matchingScore(pairs []MatchPair, got map[string]string) float64 {
	if len(pairs) == 0 {
		return 0
	}
	hit := 0
	for _, p := range pairs {
		if got[p.Left] == p.Right {
			hit++
		}
	}
	return float64(hit) / float64(len(pairs))
}
