package commands

import (
	"yacontest/cmd/yacontest/globals"
	"yacontest/cmd/yacontest/utils"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(problemsCmd)
}

var problemsCmd = &cobra.Command{
	Use:   "problems",
	Short: "Lists the problems of the selected contest.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := globals.Get(ctx).Client(ctx, nil)
		if err != nil {
			return err
		}

		problems, err := client.Directory.All(ctx)
		if err != nil {
			return err
		}
		ids, err := client.Directory.Ids(ctx)
		if err != nil {
			return err
		}

		t := utils.NewTable()
		t.AppendHeader(table.Row{"Problem", "Url"})
		for _, id := range ids {
			t.AppendRow(table.Row{id, problems[id]})
		}
		t.Render()
		return nil
	},
}
