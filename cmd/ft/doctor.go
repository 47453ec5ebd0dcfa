package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zulandar/fireteam/internal/config"
	"github.com/zulandar/fireteam/internal/db"
)

func newDoctorCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and storage",
		Long:  "Runs diagnostic checks on Fireteam prerequisites: config file, Discord credentials, and the history database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "fireteam.yaml", "path to Fireteam config file")
	return cmd
}

type checkResult struct {
	name   string
	status string // "PASS", "FAIL", "WARN"
	detail string
}

func runDoctor(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Fireteam Doctor")
	fmt.Fprintln(out, "===============")

	var results []checkResult

	cfg, cfgResult := checkConfig(configPath)
	results = append(results, cfgResult)

	if cfg != nil {
		results = append(results, checkStorage(cfg))
		results = append(results, checkDigest(cfg))
	} else {
		results = append(results, checkResult{"Storage", "FAIL", "skipped (no config)"})
	}

	printResults(out, results)

	for _, r := range results {
		if r.status == "FAIL" {
			return fmt.Errorf("doctor: %d check(s) failed", countFailed(results))
		}
	}
	return nil
}

func checkConfig(path string) (*config.Config, checkResult) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, checkResult{"Config", "FAIL", err.Error()}
	}
	return cfg, checkResult{"Config", "PASS", path}
}

func checkStorage(cfg *config.Config) checkResult {
	gdb, err := db.Open(cfg.Storage)
	if err != nil {
		return checkResult{"Storage", "WARN", fmt.Sprintf("history unavailable: %v", err)}
	}
	sqlDB, err := gdb.DB()
	if err == nil {
		defer sqlDB.Close()
		if err := sqlDB.Ping(); err != nil {
			return checkResult{"Storage", "WARN", fmt.Sprintf("ping failed: %v", err)}
		}
	}
	return checkResult{"Storage", "PASS", cfg.Storage.Driver}
}

func checkDigest(cfg *config.Config) checkResult {
	if !cfg.Digest.Enabled {
		return checkResult{"Digest", "PASS", "disabled"}
	}
	return checkResult{"Digest", "PASS", cfg.Digest.Cron}
}

func printResults(out io.Writer, results []checkResult) {
	for _, r := range results {
		fmt.Fprintf(out, "[%s] %-10s %s\n", r.status, r.name, r.detail)
	}
}

func countFailed(results []checkResult) int {
	n := 0
	for _, r := range results {
		if r.status == "FAIL" {
			n++
		}
	}
	return n
}
