package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newNoteCmd(configPath *string) *cobra.Command {
	var flightID string

	cmd := &cobra.Command{
		Use:   "note [text...]",
		Short: "Show or replace a flight's briefing note",
		Long:  "With no text, prints the note. With text, replaces it. Notes are kept across resets.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNote(cmd, *configPath, flightID, args)
		},
	}

	cmd.Flags().StringVarP(&flightID, "flight", "f", "", "flight id (defaults to the selected flight)")
	return cmd
}

func runNote(cmd *cobra.Command, configPath, flightID string, args []string) error {
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

	if len(args) == 0 {
		note := a.svc.Note(id)
		if note == "" {
			fmt.Fprintf(out, "No note for %s.\n", id)
			return nil
		}
		fmt.Fprintln(out, note)
		return nil
	}

	if err := a.svc.SaveNote(id, strings.Join(args, " ")); err != nil {
		return err
	}
	fmt.Fprintf(out, "Note saved for %s.\n", id)
	return nil
}
