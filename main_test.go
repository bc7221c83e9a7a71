package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"guessr/clients"
	"guessr/config"
	"guessr/round"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) waitFor(t *testing.T, text string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(b.String(), text) {
		if time.Now().After(deadline) {
			t.Fatalf("expected output containing %q, got:\n%s", text, b.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type stubGateway struct {
	questions []round.Question
	startErr  error
	answers   map[int64]string
	score     int
}

func (g *stubGateway) StartRound(context.Context) (round.RoundData, error) {
	if g.startErr != nil {
		return round.RoundData{}, g.startErr
	}
	return round.RoundData{RoundID: 1, Questions: g.questions}, nil
}

func (g *stubGateway) SubmitGuess(_ context.Context, req round.GuessRequest) (round.GuessVerdict, error) {
	answer := g.answers[req.QuestionID]
	correct := strings.EqualFold(req.Answer, answer)
	points := 0
	if correct {
		points = 100
		g.score += points
	}
	score := g.score
	return round.GuessVerdict{Correct: correct, Score: &score, PointsEarned: points, CorrectAnswer: answer}, nil
}

func (g *stubGateway) FinalizeRound(context.Context, int64) (round.Finalization, error) {
	score := g.score
	accuracy := 100.0
	return round.Finalization{FinalScore: &score, Accuracy: &accuracy}, nil
}

func twoQuestions() *stubGateway {
	return &stubGateway{
		questions: []round.Question{
			{ID: 1, Hint: "Fire on the lawn", Organization: "Student Activities", Points: 100},
			{ID: 2, Hint: "Music on the quad", Points: 100},
		},
		answers: map[int64]string{1: "Bonfire", 2: "Spark Festival"},
	}
}

func startPlay(gw round.Gateway) (chan string, *syncBuffer, chan error) {
	lines := make(chan string)
	out := &syncBuffer{}
	errCh := make(chan error, 1)
	go func() {
		errCh <- playRound(context.Background(), gw, round.DefaultConfig(),
			&lineReader{lines: lines}, newTerminal(out, config.ThemeDark), round.Options{})
	}()
	return lines, out, errCh
}

func TestPlayRoundToCompletion(t *testing.T) {
	lines, out, errCh := startPlay(twoQuestions())

	out.waitFor(t, "Question 1/2")
	lines <- "bonfire"
	out.waitFor(t, "Question 2/2")
	lines <- "spark festival"

	if err := <-errCh; err != nil {
		t.Fatalf("play: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Hosted by Student Activities", "Correct! +100 points (score 100)", "You answered every question!", "Final score: 200", "Accuracy:    100.00%"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output:\n%s", want, got)
		}
	}
	if strings.Contains(got, "\033[") {
		t.Fatal("expected no color codes when output is not a terminal")
	}
}

func TestPlayRoundQuit(t *testing.T) {
	lines, out, errCh := startPlay(twoQuestions())

	out.waitFor(t, "Question 1/2")
	lines <- "homecoming"
	out.waitFor(t, "Wrong. It was Bonfire. 2 lives left.")
	lines <- ":quit"

	if err := <-errCh; err != nil {
		t.Fatalf("play: %v", err)
	}
	if got := out.String(); !strings.Contains(got, "You left the round.") || !strings.Contains(got, "Score 0, not submitted.") {
		t.Fatalf("unexpected output:\n%s", got)
	}
}

func TestPlayRoundStdinClosedQuits(t *testing.T) {
	lines, out, errCh := startPlay(twoQuestions())
	out.waitFor(t, "Question 1/2")
	close(lines)
	if err := <-errCh; err != nil {
		t.Fatalf("play: %v", err)
	}
	out.waitFor(t, "You left the round.")
}

func TestPlayRoundLoadFailure(t *testing.T) {
	_, _, errCh := startPlay(&stubGateway{startErr: errors.New("server unavailable")})
	err := <-errCh
	if err == nil || !strings.Contains(err.Error(), "server unavailable") {
		t.Fatalf("expected load failure, got %v", err)
	}
}

func TestTerminalCountdownWarnings(t *testing.T) {
	var out bytes.Buffer
	ui := newTerminal(&out, config.ThemePlain)
	snap := round.Snapshot{
		State:     round.StateActive,
		RoundID:   3,
		Questions: []round.Question{{ID: 1, Hint: "hint", Points: 100}},
		Lives:     1,
	}
	for _, left := range []int{31, 30, 30, 11, 10, 6, 5, 5} {
		snap.PerQuestionSecondsLeft = left
		ui.Render(snap)
	}
	got := out.String()
	for _, n := range []string{"30", "10", "5"} {
		if c := strings.Count(got, n+" seconds left!"); c != 1 {
			t.Fatalf("expected one %ss warning, got %d in:\n%s", n, c, got)
		}
	}
	if strings.Count(got, "Question 1/1") != 1 || !strings.Contains(got, "1 life,") {
		t.Fatalf("expected a single question header, got:\n%s", got)
	}
}

func TestPrefsSetAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")

	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs(append(args, "--prefs", path))
		if err := cmd.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}

	run("prefs", "set", "--theme", "light", "--api-url", "http://guessr.test:9000", "--email", "a@uic.edu")
	prefs, err := config.LoadPreferences(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := config.Preferences{Theme: config.ThemeLight, APIBaseURL: "http://guessr.test:9000", Email: "a@uic.edu"}
	if prefs != want {
		t.Fatalf("expected %+v, got %+v", want, prefs)
	}

	t.Setenv("GUESSR_THEME", "plain")
	out := run("prefs", "show")
	if !strings.Contains(out, "theme:   plain") || !strings.Contains(out, "api url: http://guessr.test:9000") {
		t.Fatalf("expected env override in output, got:\n%s", out)
	}
}

func TestPrefsRejectsUnknownTheme(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"prefs", "set", "--theme", "neon", "--prefs", filepath.Join(t.TempDir(), "p.yaml")})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "unknown theme") {
		t.Fatalf("expected unknown theme error, got %v", err)
	}
}

func TestPrintBoard(t *testing.T) {
	var out bytes.Buffer
	printBoard(&out, "All-time leaderboard", clients.Leaderboard{Entries: []clients.LeaderboardRow{
		{Rank: 1, UserEmail: "a@uic.edu", Score: 700, Accuracy: 100, Date: "2026-10-12"},
	}})
	got := out.String()
	if !strings.Contains(got, "a@uic.edu") || !strings.Contains(got, "100.00%") {
		t.Fatalf("unexpected board:\n%s", got)
	}

	out.Reset()
	printBoard(&out, "Weekly", clients.Leaderboard{})
	if !strings.Contains(out.String(), "No scores yet.") {
		t.Fatalf("expected empty message, got %s", out.String())
	}
}
