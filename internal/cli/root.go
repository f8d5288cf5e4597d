package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

type rootFlags struct {
	configPath string
	dbPath     string
	atomic     bool
}

// NewRootCommand builds the securebank-init command. Running it without a
// subcommand provisions the database and seeds the demo data. Human output
// goes to out; logs go to errOut unless a log file is configured.
func NewRootCommand(out, errOut io.Writer, build BuildInfo) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "securebank-init",
		Short:         "Provision the SecureBank database and seed demo data",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := bootstrapOptions{
				ConfigPath: flags.configPath,
				Out:        out,
				LogOut:     errOut,
			}
			if cmd.Flags().Changed("db") {
				opts.DatabasePath = &flags.dbPath
			}
			if cmd.Flags().Changed("atomic") {
				opts.Atomic = &flags.atomic
			}
			return mapCommandError(runBootstrap(cmd.Context(), opts))
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to securebank.toml")
	cmd.Flags().StringVar(&flags.dbPath, "db", "", "Database file path (overrides config and env)")
	cmd.Flags().BoolVar(&flags.atomic, "atomic", false, "Seed in a single transaction and roll back on any failure")

	cmd.AddCommand(newVersionCommand(out, build))
	cmd.CompletionOptions.DisableDefaultCmd = true
	return cmd
}

func newVersionCommand(out io.Writer, build BuildInfo) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(build)
			}

			_, err := fmt.Fprintf(out, "version=%s commit=%s build_time=%s\n", build.Version, build.Commit, build.BuildTime)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print version as JSON")
	return cmd
}
