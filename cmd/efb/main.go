package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "efb",
		Short: "Flightbag, an electronic flight bag for virtual airline pilots",
		Long: "Flightbag keeps a per-flight log of phase events, derives the flight phase,\n" +
			"mirrors events to the dispatch proxy and can simulate an ACARS feed.",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "efb.yaml", "path to flight bag config file")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd(&configPath))
	cmd.AddCommand(newRosterCmd(&configPath))
	cmd.AddCommand(newSelectCmd(&configPath))
	cmd.AddCommand(newEventCmd(&configPath))
	cmd.AddCommand(newPhaseCmd(&configPath))
	cmd.AddCommand(newNoteCmd(&configPath))
	cmd.AddCommand(newSimCmd(&configPath))
	cmd.AddCommand(newLoginCmd(&configPath))
	cmd.AddCommand(newOAuthCmd(&configPath))
	cmd.AddCommand(newLogoutCmd(&configPath))
	cmd.AddCommand(newSettingsCmd(&configPath))
	cmd.AddCommand(newResetCmd(&configPath))
	cmd.AddCommand(newServeCmd(&configPath))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "efb %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
