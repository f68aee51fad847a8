package commands

import (
	"fmt"
	"strings"

	"yacontest/cmd/yacontest/globals"
	"yacontest/internal/contest"

	"github.com/spf13/cobra"
)

type langAction int

const (
	langShow langAction = iota
	langSet
	langReset
	langList
)

// parseLangArgs maps the arguments of `lang` to an action, the keywords
// are matched ignoring case.
func parseLangArgs(args []string) (langAction, string) {
	if len(args) == 0 {
		return langShow, ""
	}
	if len(args) == 1 {
		switch strings.ToLower(strings.TrimSpace(args[0])) {
		case "reset":
			return langReset, ""
		case "list":
			return langList, ""
		}
	}
	return langSet, strings.Join(args, " ")
}

func init() {
	rootCmd.AddCommand(langCmd)
}

var langCmd = &cobra.Command{
	Use:   "lang [<name> | reset | list]",
	Short: "Shows, sets or resets the compiler used when `send` gets no --lang.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		g := globals.Get(ctx)

		action, name := parseLangArgs(args)
		if action == langList {
			client, err := g.Client(ctx, nil)
			if err != nil {
				return err
			}
			name, ok, err := client.ChoosePreferredCompiler(ctx)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("No available languages")
				return nil
			}
			fmt.Printf("Selected %s\n", name)
			return nil
		}

		h, err := g.State(ctx)
		if err != nil {
			return err
		}
		switch action {
		case langReset:
			return contest.SetPreferredCompiler(ctx, h, "")
		case langSet:
			return contest.SetPreferredCompiler(ctx, h, name)
		}

		lang := h.Record().Lang
		if lang == "" {
			fmt.Println("No language selected")
			return nil
		}
		fmt.Println(lang)
		return nil
	},
}
