package commands

import (
	"fmt"
	"path/filepath"
	"strconv"

	"yacontest/cmd/yacontest/globals"
	"yacontest/cmd/yacontest/utils"

	"github.com/spf13/cobra"
)

const solutionsDir = "solutions"

func init() {
	rootCmd.AddCommand(codeCmd)
}

var codeCmd = &cobra.Command{
	Use:   "code [contest ids...]",
	Short: "Downloads the newest accepted solution of every problem into ./solutions/<contest id>/.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		g := globals.Get(ctx)

		client, err := g.Client(ctx, nil)
		if err != nil {
			return err
		}

		contestIds := []int64{client.Contest().ContestId}
		if len(args) > 0 {
			contestIds = contestIds[:0]
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("contest id must be a positive number, got %q", arg)
				}
				contestIds = append(contestIds, id)
			}
		}

		for _, contestId := range contestIds {
			dir := filepath.Join(solutionsDir, strconv.FormatInt(contestId, 10))
			err = utils.PrepareDir(g.Prompter, dir)
			if err != nil {
				return err
			}
			saved, err := client.DownloadAccepted(ctx, contestId, dir)
			if err != nil {
				return err
			}
			if len(saved) == 0 {
				fmt.Printf("No accepted solutions in contest %d\n", contestId)
			}
		}
		return nil
	},
}
