package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRosterCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "roster",
		Short: "List the pilot's flights",
		Long:  "Fetches the roster from the dispatch proxy, falling back to the sample roster when the proxy is off or failing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoster(cmd, *configPath)
		},
	}
}

func runRoster(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()
	a, err := openApp(configPath)
	if err != nil {
		return err
	}

	flights, res := a.loadRoster(cmd.Context())
	if res.OK {
		fmt.Fprintf(out, "Roster from %s (%d flights)\n", a.gateway.BaseURL(), len(flights))
	} else {
		fmt.Fprintf(out, "Sample roster (%s)\n", res)
	}
	if len(flights) == 0 {
		fmt.Fprintln(out, "No flights.")
		return nil
	}

	selected := a.session.SelectedFlight()
	for _, f := range flights {
		marker := " "
		if f.ID == selected {
			marker = "*"
		}
		phase, err := a.svc.GetPhase(f.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s  %s\n", marker, flightLine(f), phaseBadge(phase))
	}
	return nil
}

func newSelectCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "select <flight-id>",
		Short: "Make a roster flight the current one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(cmd, *configPath, args[0])
		},
	}
}

func runSelect(cmd *cobra.Command, configPath, id string) error {
	a, err := openApp(configPath)
	if err != nil {
		return err
	}
	a.loadRoster(cmd.Context())

	f, err := a.svc.SelectFlight(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Selected %s\n", flightLine(f))
	return nil
}
