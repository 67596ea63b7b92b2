package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSettingsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Dispatch proxy settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "api-base <url>",
		Short: "Override the dispatch proxy base URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetAPIBase(cmd, *configPath, args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear-api-base",
		Short: "Return to the configured dispatch proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetAPIBase(cmd, *configPath, "")
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "test [url]",
		Short: "Probe the dispatch proxy and print what it answers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := ""
			if len(args) == 1 {
				base = args[0]
			}
			return runSettingsTest(cmd, *configPath, base)
		},
	})
	return cmd
}

func runSetAPIBase(cmd *cobra.Command, configPath, base string) error {
	a, err := openApp(configPath)
	if err != nil {
		return err
	}
	if err := a.session.SetAPIBaseOverride(base); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if effective := a.gateway.BaseURL(); effective != "" {
		fmt.Fprintf(out, "Dispatch proxy: %s\n", effective)
	} else {
		fmt.Fprintln(out, "Dispatch proxy: off")
	}
	return nil
}

func runSettingsTest(cmd *cobra.Command, configPath, base string) error {
	a, err := openApp(configPath)
	if err != nil {
		return err
	}
	if base == "" {
		base = a.gateway.BaseURL()
	}
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	res, err := a.gateway.Probe(cmd.Context(), base)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "GET %s/api/flights → HTTP %d\n", base, res.Status)
	fmt.Fprintln(out, res.Body)
	return nil
}

func newResetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Sign out and forget the selection and proxy override",
		Long:  "Event logs and briefing notes are kept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			if err := a.svc.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session reset. Event logs and notes were kept.")
			return nil
		},
	}
}
