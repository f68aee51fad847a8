package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"yacontest/cmd/yacontest/globals"
	"yacontest/cmd/yacontest/utils"
	"yacontest/internal/contest"

	"github.com/spf13/cobra"
)

const report_load_page_cache = "load.page_cache"

const problemsDir = "problems"

func init() {
	rootCmd.AddCommand(loadCmd)
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Saves the statement of every problem into ./problems/<id>.txt.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		g := globals.Get(ctx)

		var cache *contest.PageCache
		if dir := g.Settings.PageCacheDir(); dir != "" {
			var err error
			cache, err = contest.OpenPageCache(dir, g.Settings.PageCacheLifetime())
			if err != nil {
				g.Tel.ReportWarning(report_load_page_cache, err, dir)
				cache = nil
			} else {
				defer cache.Close()
			}
		}

		client, err := g.Client(ctx, cache)
		if err != nil {
			return err
		}
		ids, err := client.Directory.Ids(ctx)
		if err != nil {
			return err
		}

		err = utils.PrepareDir(g.Prompter, problemsDir)
		if err != nil {
			return err
		}
		for _, id := range ids {
			statement, err := client.LoadStatement(ctx, id)
			if err != nil {
				return err
			}
			err = os.WriteFile(filepath.Join(problemsDir, id+".txt"), []byte(statement+"\n"), 0644)
			if err != nil {
				return err
			}
			fmt.Printf("Loaded problem %s\n", id)
		}
		return nil
	},
}
