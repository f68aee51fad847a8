package commands

import (
	"yacontest/cmd/yacontest/globals"
	"yacontest/internal/contest"

	"github.com/spf13/cobra"
)

var (
	sendLang  *string
	checkLang *string
)

func init() {
	sendLang = sendCmd.Flags().StringP("lang", "l", "", "Compiler to use instead of the saved one.")
	checkLang = checkCmd.Flags().StringP("lang", "l", "", "Compiler to use instead of the saved one.")
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(checkCmd)
}

func submit(cmd *cobra.Command, args []string, lang string, wait bool) error {
	ctx := cmd.Context()
	client, err := globals.Get(ctx).Client(ctx, nil)
	if err != nil {
		return err
	}
	return client.Submit(ctx, contest.SubmitOptions{
		File:     args[0],
		Problem:  args[1],
		Compiler: lang,
		Wait:     wait,
	})
}

var sendCmd = &cobra.Command{
	Use:   "send <file> <problem> [--lang <compiler>]",
	Short: "Submits a solution.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submit(cmd, args, *sendLang, false)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <file> <problem> [--lang <compiler>]",
	Short: "Submits a solution and waits for the verdict.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submit(cmd, args, *checkLang, true)
	},
}
