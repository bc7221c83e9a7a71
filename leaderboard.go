package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"guessr/clients"
)

func printBoard(out io.Writer, title string, board clients.Leaderboard) {
	fmt.Fprintln(out, title)
	if len(board.Entries) == 0 {
		fmt.Fprintln(out, "No scores yet.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tPLAYER\tSCORE\tACCURACY\tDATE")
	for _, e := range board.Entries {
		fmt.Fprintf(w, "%d\t%s\t%d\t%.2f%%\t%s\n", e.Rank, e.UserEmail, e.Score, e.Accuracy, e.Date)
	}
	w.Flush()
}

func printStats(out io.Writer, s clients.UserStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "All-time best\t%d\t(rank %s)\n", s.AllTimeBestScore, rankText(s.AllTimeRank))
	fmt.Fprintf(w, "This week\t%d\t(rank %s)\n", s.WeeklyBestScore, rankText(s.WeeklyRank))
	fmt.Fprintf(w, "Rounds played\t%d\t\n", s.EntriesCount)
	fmt.Fprintf(w, "Players\t%d\t\n", s.TotalPlayers)
	w.Flush()
}

func rankText(rank int) string {
	if rank == 0 {
		return "-"
	}
	return fmt.Sprintf("#%d", rank)
}

// printFeed prints one live feed frame.
func printFeed(out io.Writer, m clients.FeedMessage) {
	if m.Type != "leaderboard_entry" {
		return
	}
	var row clients.LeaderboardRow
	if err := json.Unmarshal(m.Payload, &row); err != nil {
		return
	}
	fmt.Fprintf(out, "%s scored %d (%.2f%%)\n", row.UserEmail, row.Score, row.Accuracy)
}

func newLeaderboardCmd(opts *cliOptions) *cobra.Command {
	var limit int
	var follow bool

	cmd := &cobra.Command{
		Use:       "leaderboard [top|weekly|me]",
		Short:     "Show leaderboards",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"top", "weekly", "me"},
		RunE: func(cmd *cobra.Command, args []string) error {
			which := "top"
			if len(args) == 1 {
				which = args[0]
			}

			prefs, err := opts.preferences()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			client, err := opts.login(cmd, prefs, newLineReader(cmd.InOrStdin()), out)
			if err != nil {
				return err
			}
			defer logoutQuietly(client)

			ctx := cmd.Context()
			switch which {
			case "weekly":
				board, err := client.WeeklyScores(ctx, limit)
				if err != nil {
					return err
				}
				printBoard(out, fmt.Sprintf("Weekly leaderboard (%s to %s)", board.WeekStart, board.WeekEnd), board)
			case "me":
				stats, err := client.MyStats(ctx)
				if err != nil {
					return err
				}
				printStats(out, stats)
			default:
				board, err := client.TopScores(ctx, limit)
				if err != nil {
					return err
				}
				printBoard(out, "All-time leaderboard", board)
			}

			if !follow {
				return nil
			}
			fmt.Fprintln(out, "\nFollowing live scores, Ctrl-C to stop.")
			return client.FollowLeaderboard(ctx, func(m clients.FeedMessage) { printFeed(out, m) })
		},
	}

	fs := cmd.Flags()
	fs.IntVarP(&limit, "limit", "n", 10, "number of entries, 1 to 100 (env: GUESSR_LIMIT)")
	fs.BoolVarP(&follow, "follow", "f", false, "keep printing new scores as rounds finish (env: GUESSR_FOLLOW)")

	return cmd
}
