// Package bot wires the chat adapter, raid coordinator, and digest
// scheduler into a long-running daemon.
package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/zulandar/fireteam/internal/config"
	"github.com/zulandar/fireteam/internal/platform"
	"github.com/zulandar/fireteam/internal/raid"
)

// Daemon is the main bot process. It connects to the chat platform via an
// Adapter, pumps structured requests to the router, drives the deadline
// scheduler, and posts the optional upcoming-raid digest.
type Daemon struct {
	cfg     *config.Config
	adapter platform.Adapter
	coord   *raid.Coordinator
	out     io.Writer
}

// DaemonOpts holds parameters for creating a Daemon.
type DaemonOpts struct {
	Config   *config.Config
	Adapter  platform.Adapter
	Recorder raid.Recorder // optional outcome log
	Mirror   raid.Mirror   // optional ops mirror
	Out      io.Writer     // defaults to os.Stdout
}

// NewDaemon creates a Daemon and its coordinator.
func NewDaemon(opts DaemonOpts) (*Daemon, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bot: config is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("bot: adapter is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	coord, err := raid.NewCoordinator(raid.CoordinatorOpts{
		Display:    opts.Adapter,
		Directory:  opts.Adapter,
		TickPeriod: time.Duration(opts.Config.Raid.TickPeriodSec) * time.Second,
		Capacity:   opts.Config.Raid.RosterCapacity,
		Label:      opts.Config.Raid.CapacityLabel,
		Recorder:   opts.Recorder,
		Mirror:     opts.Mirror,
	})
	if err != nil {
		return nil, fmt.Errorf("bot: build coordinator: %w", err)
	}

	return &Daemon{
		cfg:     opts.Config,
		adapter: opts.Adapter,
		coord:   coord,
		out:     out,
	}, nil
}

// Coordinator returns the raid coordinator (the dashboard reads its
// session snapshots).
func (d *Daemon) Coordinator() *raid.Coordinator { return d.coord }

// Run starts the daemon. It connects the adapter, starts the deadline
// scheduler and digest scheduler, and pumps requests until the context is
// cancelled. On shutdown it closes the adapter gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	fmt.Fprintf(d.out, "Fireteam connecting...\n")
	if err := d.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("bot: connect: %w", err)
	}

	router, err := NewRouter(RouterOpts{
		Coordinator: d.coord,
		Adapter:     d.adapter,
		Activities:  d.cfg.Raid.Activities,
		Out:         d.out,
	})
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("bot: build router: %w", err)
	}

	requests, err := d.adapter.Listen(ctx)
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("bot: listen: %w", err)
	}

	go d.coord.Scheduler().Run(ctx)
	go d.runDigestScheduler(ctx)

	fmt.Fprintf(d.out, "Fireteam online\n")

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(d.out, "Fireteam shutting down...\n")
			if err := d.adapter.Close(); err != nil {
				log.Printf("bot: close adapter: %v", err)
			}
			fmt.Fprintf(d.out, "Fireteam stopped\n")
			return nil

		case req, ok := <-requests:
			if !ok {
				fmt.Fprintf(d.out, "Fireteam request channel closed\n")
				return nil
			}
			router.Handle(ctx, req)
		}
	}
}

// runDigestScheduler posts the upcoming-raid digest on the configured cron
// schedule. It returns immediately when the digest is disabled or the cron
// expression is invalid.
func (d *Daemon) runDigestScheduler(ctx context.Context) {
	digestCfg := d.cfg.Digest
	if !digestCfg.Enabled {
		return
	}
	wait := nextCronDuration(digestCfg.Cron)
	if wait <= 0 {
		log.Printf("bot: digest: invalid cron expression %q", digestCfg.Cron)
		return
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			d.fireDigest(ctx, digestCfg.ChannelID)
			if wait := nextCronDuration(digestCfg.Cron); wait > 0 {
				timer.Reset(wait)
			} else {
				return
			}
		}
	}
}

// fireDigest builds and posts a single digest. Suppressed when no raids
// are pending.
func (d *Daemon) fireDigest(ctx context.Context, channelID string) {
	text := BuildDigest(d.coord.Snapshots(), d.coord.Capacity(), time.Now())
	if text == "" {
		return
	}
	if err := d.adapter.SendChannelMessage(ctx, channelID, text); err != nil {
		log.Printf("bot: send digest: %v", err)
	}
}
