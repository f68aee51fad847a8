package commands

import (
	"errors"
	"fmt"

	"yacontest/cmd/yacontest/globals"
	"yacontest/cmd/yacontest/utils"
	"yacontest/internal/state"

	"github.com/spf13/cobra"
)

var domains = []string{"official.contest.yandex.ru", "contest.yandex.ru"}

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Creates the saved configuration: domain, login and optionally the password.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g := globals.Get(cmd.Context())

		existing, err := g.Store.Load(cmd.Context())
		if err != nil && !errors.Is(err, state.ErrNotFound) {
			return err
		}
		if err == nil {
			ok, err := g.Prompter.Confirm("A configuration already exists, overwrite it?")
			if err != nil {
				return err
			}
			if !ok {
				return utils.ErrAborted
			}
		}

		idx, err := g.Prompter.Choose("Select a domain", domains)
		if err != nil {
			return err
		}
		login, err := g.Prompter.Ask("Login")
		if err != nil {
			return err
		}

		record := state.Record{
			Domain:    domains[idx],
			Login:     login,
			ContestId: existing.ContestId,
		}
		storePassword, err := g.Prompter.Confirm("Store the password? Otherwise it is asked on every login")
		if err != nil {
			return err
		}
		if storePassword {
			record.Password, err = g.Prompter.Password("Password")
			if err != nil {
				return err
			}
		}

		err = g.Store.Save(cmd.Context(), record)
		if err != nil {
			return err
		}
		fmt.Println("Configuration saved.")
		return nil
	},
}
