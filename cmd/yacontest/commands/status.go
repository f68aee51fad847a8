package commands

import (
	"fmt"

	"yacontest/cmd/yacontest/globals"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status <problem>",
	Short: "Prints the status of the latest solution for a problem.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := globals.Get(ctx).Client(ctx, nil)
		if err != nil {
			return err
		}

		status, err := client.Status(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(status)

		if status.IsCompileError() {
			report, err := client.Report(ctx, status.Id)
			if err != nil {
				return err
			}
			fmt.Println(report)
		}
		return nil
	},
}
