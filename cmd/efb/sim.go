package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"
	"github.com/zulandar/flightbag/internal/efb"
)

func newSimCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Simulated ACARS feed",
	}

	cmd.AddCommand(newSimRunCmd(configPath))
	cmd.AddCommand(newSimPlanCmd(configPath))
	return cmd
}

func newSimRunCmd(configPath *string) *cobra.Command {
	var (
		flightID string
		scale    float64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play the scripted feed for a flight and wait for it to finish",
		Long: "Records START, OFFBLOCK, TAKEOFF, LANDING and COMPLETE on a timer, mirroring each\n" +
			"to the dispatch proxy. Interrupt to stop the feed early.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimRun(cmd, *configPath, flightID, scale)
		},
	}

	cmd.Flags().StringVarP(&flightID, "flight", "f", "", "flight id (defaults to the selected flight)")
	cmd.Flags().Float64Var(&scale, "scale", 0, "multiply every delay (e.g. 0.1 for a 10x faster feed)")
	return cmd
}

// feedPrinter prints feed progress and reports when the run ends.
type feedPrinter struct {
	out      io.Writer
	flightID string

	once sync.Once
	done chan efb.ChangeKind
}

func (p *feedPrinter) Refresh(c efb.Change) {
	if c.FlightID != p.flightID {
		return
	}
	switch c.Kind {
	case efb.ChangeEvent:
		if c.Event != nil {
			fmt.Fprintf(p.out, "  %s\n", eventLine(*c.Event))
		}
	case efb.ChangeSimFinished, efb.ChangeSimStopped:
		p.once.Do(func() { p.done <- c.Kind })
	}
}

func runSimRun(cmd *cobra.Command, configPath, flightID string, scale float64) error {
	out := cmd.OutOrStdout()
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if scale > 0 {
		cfg.Simulator.TimeScale = scale
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()
	a.loadRoster(ctx)

	id, err := a.flightOrSelected(flightID)
	if err != nil {
		return err
	}

	printer := &feedPrinter{out: out, flightID: id, done: make(chan efb.ChangeKind, 1)}
	unsubscribe := a.svc.Subscribe(printer)
	defer unsubscribe()

	if err := a.svc.StartSimulation(id); err != nil {
		return err
	}
	fmt.Fprintf(out, "ACARS feed started for %s\n", id)

	select {
	case kind := <-printer.done:
		if kind == efb.ChangeSimStopped {
			fmt.Fprintln(out, "ACARS feed stopped.")
			return nil
		}
	case <-ctx.Done():
		a.svc.StopSimulation()
		fmt.Fprintln(out, "ACARS feed stopped.")
		return nil
	}

	phase, err := a.svc.GetPhase(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "ACARS feed finished. Phase: %s\n", phaseBadge(phase))
	return nil
}

func newSimPlanCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the feed's steps and their offsets",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, step := range a.svc.SimulationPlan() {
				fmt.Fprintf(out, "  +%-8s %s\n", step.At, step.Type)
			}
			return nil
		},
	}
}
