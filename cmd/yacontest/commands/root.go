package commands

import (
	"context"
	"fmt"
	"os"

	"yacontest/cmd/yacontest/globals"
	"yacontest/internal/components/prompt"
	"yacontest/internal/components/telemetry"
	"yacontest/internal/settings"
	"yacontest/internal/state"

	"github.com/spf13/cobra"
)

var (
	verbose   *bool
	configDir *string
	dumpHttp  *string
)

// opened is set once PersistentPreRunE succeeds, it is closed after the
// command returns.
var opened *globals.Value

var rootCmd = &cobra.Command{
	Use:           "yacontest",
	Short:         "yacontest is a command line client for Yandex.Contest.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(*verbose)

		dir := *configDir
		if dir == "" {
			var err error
			dir, err = settings.DefaultDir()
			if err != nil {
				return fmt.Errorf("find config dir: %w", err)
			}
		}
		cfg, err := settings.Read(dir)
		if err != nil {
			return err
		}

		tracing, err := telemetry.SetupTracing(cmd.Context(), "yacontest", cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("setup tracing: %w", err)
		}

		store, err := state.Open(cfg.StatePath)
		if err != nil {
			return fmt.Errorf("open state: %w", err)
		}

		value := &globals.Value{
			Settings: cfg,
			Store:    store,
			Prompter: prompt.NewTerminal(),
			Tel:      telemetry.SlogAPI{},
			Tracing:  tracing,
		}
		if *dumpHttp != "" {
			output, err := telemetry.NewFilesystemOutput(*dumpHttp)
			if err != nil {
				return fmt.Errorf("create http dump dir: %w", err)
			}
			value.HttpDump = output
		}

		opened = value
		cmd.SetContext(globals.Set(cmd.Context(), value))
		return nil
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr.")
	configDir = rootCmd.PersistentFlags().String("config-dir", "", "Directory holding yacontest.json5 and the saved state.")
	dumpHttp = rootCmd.PersistentFlags().String("dump-http", "", "Write every http exchange to files in this directory.")
}

func ExecuteContext(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	if opened != nil {
		opened.Close(context.Background())
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
