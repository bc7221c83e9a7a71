package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"guessr/config"
	"guessr/round"
)

type palette struct {
	accent, good, bad, warn, dim, reset string
}

// paletteFor returns ANSI colors for theme. Output that is not a terminal
// is never colored.
func paletteFor(theme config.Theme, out io.Writer) palette {
	if f, ok := out.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		theme = config.ThemePlain
	}
	switch theme {
	case config.ThemeDark:
		return palette{accent: "\033[96m", good: "\033[92m", bad: "\033[91m", warn: "\033[93m", dim: "\033[37m", reset: "\033[0m"}
	case config.ThemeLight:
		return palette{accent: "\033[34m", good: "\033[32m", bad: "\033[31m", warn: "\033[33m", dim: "\033[90m", reset: "\033[0m"}
	default:
		return palette{}
	}
}

func (p palette) paint(color, s string) string {
	if color == "" {
		return s
	}
	return color + s + p.reset
}

// countdown warnings, in seconds left on the question.
var warnAt = map[int]bool{30: true, 10: true, 5: true}

// terminal renders round snapshots as a running transcript.
type terminal struct {
	mu  sync.Mutex
	out io.Writer
	p   palette

	round     int64
	index     int
	guessed   int64
	warned    map[int]bool
	message   string
	announced bool
}

func newTerminal(out io.Writer, theme config.Theme) *terminal {
	return &terminal{out: out, p: paletteFor(theme, out), index: -1}
}

func (t *terminal) printf(format string, args ...any) {
	fmt.Fprintf(t.out, format, args...)
}

// Render prints whatever changed since the previous snapshot.
func (t *terminal) Render(s round.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s.RoundID != t.round && s.State == round.StateActive {
		t.round = s.RoundID
		t.index = -1
		t.guessed = 0
		t.announced = false
	}

	if s.Message != t.message {
		t.message = s.Message
		if s.Message != "" {
			t.printf("%s\n", t.p.paint(t.p.warn, s.Message))
		}
	}

	if g := s.LastGuess; g != nil && g.QuestionID != t.guessed {
		t.guessed = g.QuestionID
		if g.Correct {
			t.printf("%s +%d points (score %d)\n", t.p.paint(t.p.good, "Correct!"), g.PointsEarned, s.Score)
		} else {
			t.printf("%s It was %s. %d %s left.\n", t.p.paint(t.p.bad, "Wrong."), t.p.paint(t.p.accent, g.CorrectAnswer), s.Lives, plural(s.Lives, "life", "lives"))
		}
	}

	if s.State == round.StateActive {
		if q, ok := s.CurrentQuestion(); ok && s.CurrentIndex != t.index {
			t.index = s.CurrentIndex
			t.warned = map[int]bool{}
			t.printQuestion(s, q)
		}
		if left := s.PerQuestionSecondsLeft; warnAt[left] && !t.warned[left] {
			t.warned[left] = true
			t.printf("%s\n", t.p.paint(t.p.warn, fmt.Sprintf("%d seconds left!", left)))
		}
	}

	if s.State == round.StateEnded && !t.announced {
		t.announced = true
		t.printEnd(s)
	}
}

func (t *terminal) printQuestion(s round.Snapshot, q round.Question) {
	t.printf("\n%s  %s\n",
		t.p.paint(t.p.accent, fmt.Sprintf("Question %d/%d", s.CurrentIndex+1, len(s.Questions))),
		t.p.paint(t.p.dim, fmt.Sprintf("%d points, %d %s, %ds", q.Points, s.Lives, plural(s.Lives, "life", "lives"), s.PerQuestionSecondsLeft)))
	if q.Organization != "" {
		t.printf("Hosted by %s\n", q.Organization)
	}
	t.printf("%s\n", q.Hint)
	if q.ImageURL != "" {
		t.printf("%s\n", t.p.paint(t.p.dim, "(this event has a picture; open the web app to see it)"))
	}
	t.printf("%s\n", t.p.paint(t.p.dim, "Type your guess, or :quit to give up."))
}

func reasonText(r round.Reason) string {
	switch r {
	case round.ReasonTimeUp:
		return "Time's up!"
	case round.ReasonNoLives:
		return "Out of lives!"
	case round.ReasonCompletedAll:
		return "You answered every question!"
	case round.ReasonManual:
		return "You left the round."
	default:
		return "Round over."
	}
}

func (t *terminal) printEnd(s round.Snapshot) {
	t.printf("\n%s\n", t.p.paint(t.p.accent, reasonText(s.Reason)))
	if s.Summary == nil {
		t.printf("Score %d, not submitted.\n", s.Score)
		return
	}
	sum := s.Summary
	accuracy := "n/a"
	if sum.Accuracy != nil {
		accuracy = fmt.Sprintf("%.2f%%", *sum.Accuracy)
	}
	t.printf("Final score: %s\n", t.p.paint(t.p.good, fmt.Sprint(sum.FinalScore)))
	t.printf("Accuracy:    %s\n", accuracy)
	t.printf("Time:        %d:%02d\n", sum.TotalElapsedSeconds/60, sum.TotalElapsedSeconds%60)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// lineReader feeds stdin lines to prompts and the game loop alike.
type lineReader struct {
	lines chan string
}

func newLineReader(r io.Reader) *lineReader {
	l := &lineReader{lines: make(chan string)}
	go func() {
		defer close(l.lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			l.lines <- scanner.Text()
		}
	}()
	return l
}

func (l *lineReader) Lines() <-chan string { return l.lines }

func (l *lineReader) prompt(out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, ok := <-l.lines
	if !ok {
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(line), nil
}
