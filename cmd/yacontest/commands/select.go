package commands

import (
	"fmt"
	"strconv"

	"yacontest/cmd/yacontest/globals"
	"yacontest/internal/contest"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(selectCmd)
}

var selectCmd = &cobra.Command{
	Use:   "select <contest id>",
	Short: "Selects the contest every other command works with.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g := globals.Get(cmd.Context())

		contestId, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("contest id must be a number, got %q", args[0])
		}
		h, err := g.State(cmd.Context())
		if err != nil {
			return err
		}
		err = contest.SelectContest(cmd.Context(), h, contestId)
		if err != nil {
			return err
		}
		fmt.Printf("Selected contest %d.\n", contestId)
		return nil
	},
}
