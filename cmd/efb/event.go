package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/flightbag/internal/flight"
)

func newEventCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Record and list phase events",
	}

	cmd.AddCommand(newEventRecordCmd(configPath))
	cmd.AddCommand(newEventLogCmd(configPath))
	return cmd
}

func newEventRecordCmd(configPath *string) *cobra.Command {
	var (
		flightID string
		note     string
	)

	cmd := &cobra.Command{
		Use:   "record <type>",
		Short: "Record a phase event (START, OFFBLOCK, TAKEOFF, LANDING, COMPLETE)",
		Long: "Appends an event to the flight's local log and mirrors it to the dispatch proxy.\n" +
			"Any type is stored; only the five canonical types move the phase.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventRecord(cmd, *configPath, flightID, args[0], note)
		},
	}

	cmd.Flags().StringVarP(&flightID, "flight", "f", "", "flight id (defaults to the selected flight)")
	cmd.Flags().StringVarP(&note, "note", "n", "", "optional note")
	return cmd
}

func runEventRecord(cmd *cobra.Command, configPath, flightID, eventType, note string) error {
	out := cmd.OutOrStdout()
	a, err := openApp(configPath)
	if err != nil {
		return err
	}
	a.loadRoster(cmd.Context())

	id, err := a.flightOrSelected(flightID)
	if err != nil {
		return err
	}
	ev, err := a.svc.RecordEvent(cmd.Context(), id, eventType, note)
	if err != nil {
		return err
	}
	defer a.svc.WaitMirrors()
	phase, err := a.svc.GetPhase(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Recorded %s for %s at %s\n", ev.Type, id, ev.Time.Format("15:04:05Z"))
	if !ev.Type.IsCanonical() {
		fmt.Fprintf(out, "Note: %s is not a phase marker; the phase is unchanged.\n", ev.Type)
	}
	fmt.Fprintf(out, "Phase: %s\n", phaseBadge(phase))
	return nil
}

func newEventLogCmd(configPath *string) *cobra.Command {
	var flightID string

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show a flight's events, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventLog(cmd, *configPath, flightID)
		},
	}

	cmd.Flags().StringVarP(&flightID, "flight", "f", "", "flight id (defaults to the selected flight)")
	return cmd
}

func runEventLog(cmd *cobra.Command, configPath, flightID string) error {
	out := cmd.OutOrStdout()
	a, err := openApp(configPath)
	if err != nil {
		return err
	}
	a.loadRoster(cmd.Context())

	id, err := a.flightOrSelected(flightID)
	if err != nil {
		return err
	}
	events, err := a.svc.GetEventLog(id)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintf(out, "No events recorded for %s.\n", id)
		return nil
	}
	fmt.Fprintf(out, "Events for %s (%d):\n", id, len(events))
	for _, ev := range events {
		fmt.Fprintf(out, "  %s\n", eventLine(ev))
	}
	return nil
}

func newPhaseCmd(configPath *string) *cobra.Command {
	var flightID string

	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Show a flight's derived phase and progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPhase(cmd, *configPath, flightID)
		},
	}

	cmd.Flags().StringVarP(&flightID, "flight", "f", "", "flight id (defaults to the selected flight)")
	return cmd
}

func runPhase(cmd *cobra.Command, configPath, flightID string) error {
	out := cmd.OutOrStdout()
	a, err := openApp(configPath)
	if err != nil {
		return err
	}
	a.loadRoster(cmd.Context())

	id, err := a.flightOrSelected(flightID)
	if err != nil {
		return err
	}
	view, err := a.svc.Flight(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s\n", flightLine(view.Flight))
	fmt.Fprintf(out, "Phase: %s\n", phaseBadge(view.Phase))
	fmt.Fprintf(out, "%s\n", progressBar(view.Phase))
	if len(view.Events) > 0 {
		fmt.Fprintf(out, "Last: %s\n", eventLine(view.Events[0]))
	}
	if view.Phase.Step == 0 && len(view.Events) == 0 {
		fmt.Fprintf(out, "Record %s to begin.\n", flight.EventStart)
	}
	return nil
}
