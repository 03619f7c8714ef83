package main

import (
	"os"

	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	dryRun     bool
	once       bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "mission-agent",
		Short: "Autonomous mission-solving agent",
		Long: `mission-agent polls the mission API, accepts missions at the preferred
difficulty, solves their puzzles and redeems the victory token for a level up.

Settings come from the settings table (when MYSQL_DSN is set), then the
environment, then the YAML file given with --config or CONFIG_FILE.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", os.Getenv("CONFIG_FILE"), "YAML settings file")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "print the resolved configuration and exit")
	cmd.Flags().BoolVar(&opts.once, "once", false, "run a single cycle and exit")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
