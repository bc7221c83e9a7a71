package main

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"guessr/clients"
	"guessr/round"
)

// playRound runs one round against gw, reading guesses from in, until the
// round ends or ctx is cancelled.
func playRound(ctx context.Context, gw round.Gateway, cfg round.Config, in *lineReader, ui *terminal, opts round.Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	finished := make(chan round.Snapshot, 1)
	var once sync.Once
	opts.Config = cfg
	opts.OnChange = func(s round.Snapshot) {
		ui.Render(s)
		if s.State == round.StateEnded || (s.State == round.StateIdle && s.Message != "") {
			once.Do(func() { finished <- s })
		}
	}

	runner := round.NewRunner(gw, opts)
	go runner.Run(ctx)
	runner.Start()

	lines := in.Lines()
	for {
		select {
		case s := <-finished:
			cancel()
			<-runner.Done()
			if s.State == round.StateIdle {
				return errors.New(s.Message)
			}
			return nil
		case line, ok := <-lines:
			if !ok {
				lines = nil
				runner.Quit()
				continue
			}
			switch strings.TrimSpace(line) {
			case ":quit", ":q":
				runner.Quit()
			default:
				runner.SubmitGuess(line)
			}
		case <-runner.Done():
			return ctx.Err()
		}
	}
}

func newPlayCmd(opts *cliOptions) *cobra.Command {
	var seconds, lives int

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a round in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prefs, err := opts.preferences()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			in := newLineReader(cmd.InOrStdin())

			client, err := opts.login(cmd, prefs, in, out)
			if err != nil {
				return err
			}
			defer logoutQuietly(client)

			logger := opts.logger()
			return playRound(cmd.Context(), clients.NewRoundGateway(client),
				round.Config{Lives: lives, QuestionSeconds: seconds},
				in, newTerminal(out, prefs.Theme),
				round.Options{Logger: &logger})
		},
	}

	fs := cmd.Flags()
	fs.IntVar(&seconds, "seconds", round.DefaultConfig().QuestionSeconds, "seconds per question (env: GUESSR_SECONDS)")
	fs.IntVar(&lives, "lives", round.DefaultConfig().Lives, "lives per round (env: GUESSR_LIVES)")

	return cmd
}

func logoutQuietly(client *clients.GuessrClient) {
	_ = client.Logout(context.Background())
}
