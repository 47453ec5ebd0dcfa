package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zulandar/fireteam/internal/config"
	"github.com/zulandar/fireteam/internal/db"
	"github.com/zulandar/fireteam/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var configPath string
	var limit int
	var organizer string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List resolved raids",
		Long:  "Lists recently resolved raid sessions from the history database, newest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, configPath, limit, organizer)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "fireteam.yaml", "path to Fireteam config file")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "max records to list")
	cmd.Flags().StringVar(&organizer, "organizer", "", "filter by organizer user ID")
	return cmd
}

func runHistory(cmd *cobra.Command, configPath string, limit int, organizer string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	gdb, err := db.Open(cfg.Storage)
	if err != nil {
		return err
	}
	store, err := history.NewStore(gdb)
	if err != nil {
		return err
	}

	var recs []history.Record
	if organizer != "" {
		recs, err = store.ByOrganizer(organizer, limit)
	} else {
		recs, err = store.Recent(limit)
	}
	if err != nil {
		return err
	}

	if len(recs) == 0 {
		fmt.Fprintln(out, "No resolved raids yet.")
		return nil
	}

	fmt.Fprintf(out, "%-20s %-12s %-7s %s\n", "ACTIVITY", "OUTCOME", "ROSTER", "RESOLVED")
	for _, r := range recs {
		fmt.Fprintf(out, "%-20s %-12s %-7s %s\n",
			truncate(r.Activity, 20), r.Outcome,
			fmt.Sprintf("%d", r.RosterSize),
			r.ResolvedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// truncate returns s truncated to maxLen with "..." appended if needed.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return strings.TrimSpace(s[:maxLen-3]) + "..."
}
