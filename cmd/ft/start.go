package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zulandar/fireteam/internal/bot"
	"github.com/zulandar/fireteam/internal/config"
	"github.com/zulandar/fireteam/internal/dashboard"
	"github.com/zulandar/fireteam/internal/db"
	"github.com/zulandar/fireteam/internal/history"
	"github.com/zulandar/fireteam/internal/mirror"
	"github.com/zulandar/fireteam/internal/platform/discord"
	"github.com/zulandar/fireteam/internal/raid"
)

func newStartCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the Fireteam bot",
		Long:  "Connects to Discord, registers the /raid command, and runs the raid session scheduler until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "fireteam.yaml", "path to Fireteam config file")
	return cmd
}

func runStart(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// History store is best-effort: the bot runs without it.
	var recorder raid.Recorder
	var hist *history.Store
	if gdb, err := db.Open(cfg.Storage); err != nil {
		log.Printf("start: history storage unavailable: %v", err)
	} else if hist, err = history.NewStore(gdb); err != nil {
		log.Printf("start: history storage unavailable: %v", err)
	} else {
		recorder = hist
	}

	var opsMirror raid.Mirror
	if cfg.Mirror.Enabled {
		m, err := mirror.NewSlack(mirror.SlackOpts{
			Token:     cfg.Mirror.Token,
			ChannelID: cfg.Mirror.ChannelID,
		})
		if err != nil {
			return fmt.Errorf("start: build mirror: %w", err)
		}
		opsMirror = m
	}

	adapter, err := discord.New(discord.AdapterOpts{
		BotToken: cfg.Discord.Token,
		GuildID:  cfg.Discord.GuildID,
	})
	if err != nil {
		return fmt.Errorf("start: build adapter: %w", err)
	}

	daemon, err := bot.NewDaemon(bot.DaemonOpts{
		Config:   cfg,
		Adapter:  adapter,
		Recorder: recorder,
		Mirror:   opsMirror,
		Out:      out,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Dashboard.Enabled {
		go func() {
			err := dashboard.Start(ctx, dashboard.StartOpts{
				Raids:   daemon.Coordinator(),
				History: hist,
				Port:    cfg.Dashboard.Port,
				Out:     out,
			})
			if err != nil {
				log.Printf("start: dashboard: %v", err)
			}
		}()
	}

	return daemon.Run(ctx)
}
