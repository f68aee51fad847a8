package commands

import (
	"errors"
	"fmt"
	"strconv"

	"yacontest/cmd/yacontest/globals"
	"yacontest/cmd/yacontest/utils"
	"yacontest/internal/contest"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(leaderboardCmd)
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard [page]",
	Short: "Prints a page of the contest standings.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		page := 1
		if len(args) == 1 {
			var err error
			page, err = strconv.Atoi(args[0])
			if err != nil || page < 1 {
				return fmt.Errorf("page must be a positive number, got %q", args[0])
			}
		}

		client, err := globals.Get(ctx).Client(ctx, nil)
		if err != nil {
			return err
		}
		standings, err := client.Leaderboard(ctx, page)
		if errors.Is(err, contest.ErrNoStandings) || (err == nil && len(standings.Rows) == 0) {
			fmt.Println("No results, try another page...")
			return nil
		}
		if err != nil {
			return err
		}

		t := utils.NewTable()
		for _, row := range standings.Rows {
			out := make(table.Row, len(row))
			for i, cell := range row {
				out[i] = cell
			}
			t.AppendRow(out)
		}
		t.Render()
		return nil
	},
}
