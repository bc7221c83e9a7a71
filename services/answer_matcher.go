package services

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

const (
	DefaultTolerance = 0.8
	prefixConfidence = 0.95
)

// Match is the outcome of checking one guess.
type Match struct {
	Correct    bool
	Answer     string
	Confidence float64
}

// AnswerMatcher decides whether a free-text guess names an event. It tries,
// in order: an exact match after case folding, a prefix of an accepted
// answer that covers at least Tolerance of it, and edit-distance similarity
// of at least Tolerance.
type AnswerMatcher struct {
	Tolerance float64
}

func NewAnswerMatcher(tolerance float64) *AnswerMatcher {
	if tolerance <= 0 || tolerance > 1 {
		tolerance = DefaultTolerance
	}
	return &AnswerMatcher{Tolerance: tolerance}
}

func normalizeAnswer(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}

func (m *AnswerMatcher) Match(guess string, answers []string) Match {
	g := normalizeAnswer(guess)
	if g == "" || len(answers) == 0 {
		return Match{}
	}

	keys := make([]string, len(answers))
	t := newTrie()
	for i, a := range answers {
		keys[i] = normalizeAnswer(a)
		if keys[i] == g {
			return Match{Correct: true, Answer: a, Confidence: 1}
		}
		t.insert(keys[i], a)
	}

	guessLen := float64(utf8.RuneCountInString(g))
	for _, a := range t.withPrefix(g) {
		if guessLen >= m.Tolerance*float64(utf8.RuneCountInString(normalizeAnswer(a))) {
			return Match{Correct: true, Answer: a, Confidence: prefixConfidence}
		}
	}

	best := Match{}
	for i, key := range keys {
		if sim := similarity(g, key); sim > best.Confidence {
			best = Match{Answer: answers[i], Confidence: sim}
		}
	}
	best.Correct = best.Confidence >= m.Tolerance
	if !best.Correct {
		return Match{Confidence: best.Confidence}
	}
	return best
}

// similarity is 1 minus the edit distance over the longer length.
func similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
