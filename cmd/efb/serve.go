package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/zulandar/flightbag/internal/config"
	"github.com/zulandar/flightbag/internal/dashboard"
	"github.com/zulandar/flightbag/internal/roster"
	"github.com/zulandar/flightbag/internal/telegraph"
	discordadapter "github.com/zulandar/flightbag/internal/telegraph/discord"
	slackadapter "github.com/zulandar/flightbag/internal/telegraph/slack"
)

func newServeCmd(configPath *string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API, chat announcer and roster refresh",
		Long: "Serves the local JSON API and refresh stream. When telegraph.platform is set, phase\n" +
			"events are announced to Slack or Discord. When roster.refresh_cron is set, the\n" +
			"roster is reloaded on that schedule.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, *configPath, port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (defaults to dashboard.port)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	out := cmd.OutOrStdout()
	a, err := openApp(configPath)
	if err != nil {
		return err
	}
	if port <= 0 {
		port = a.cfg.Dashboard.Port
	}
	if expr := a.cfg.Roster.RefreshCron; expr != "" {
		if err := roster.ValidateCron(expr); err != nil {
			return err
		}
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	flights, res := a.loadRoster(ctx)
	fmt.Fprintf(out, "Roster: %d flights (%s)\n", len(flights), res)

	if expr := a.cfg.Roster.RefreshCron; expr != "" {
		go func() {
			if err := a.svc.Roster().Schedule(ctx, expr); err != nil {
				log.Printf("serve: roster schedule: %v", err)
			}
		}()
		fmt.Fprintf(out, "Roster refresh scheduled: %s\n", expr)
	}

	if a.cfg.Telegraph.Platform != "" {
		if err := startAnnouncer(ctx, a, cmd); err != nil {
			return err
		}
	}

	defer a.svc.WaitMirrors()
	return dashboard.Start(ctx, dashboard.StartOpts{
		Service: a.svc,
		Port:    port,
		Out:     out,
	})
}

// startAnnouncer subscribes a chat announcer and runs it until ctx is done.
func startAnnouncer(ctx context.Context, a *app, cmd *cobra.Command) error {
	adapter, err := createAdapter(a.cfg)
	if err != nil {
		return err
	}
	announcer, err := telegraph.NewAnnouncer(telegraph.AnnouncerOpts{
		Adapter:   adapter,
		Source:    a.svc,
		ChannelID: a.cfg.Telegraph.Channel,
		Out:       cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	unsubscribe := a.svc.Subscribe(announcer)
	go func() {
		defer unsubscribe()
		if err := announcer.Run(ctx); err != nil {
			log.Printf("serve: %v", err)
		}
	}()
	return nil
}

// createAdapter builds a platform adapter from the config.
func createAdapter(cfg *config.Config) (telegraph.Adapter, error) {
	switch cfg.Telegraph.Platform {
	case "slack":
		return slackadapter.New(slackadapter.AdapterOpts{
			BotToken:  cfg.Telegraph.Slack.BotToken,
			ChannelID: cfg.Telegraph.Channel,
		})
	case "discord":
		return discordadapter.New(discordadapter.AdapterOpts{
			BotToken:  cfg.Telegraph.Discord.BotToken,
			ChannelID: cfg.Telegraph.Channel,
		})
	default:
		return nil, fmt.Errorf("telegraph: unsupported platform %q", cfg.Telegraph.Platform)
	}
}
