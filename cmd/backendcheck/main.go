// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// backendcheck probes the read-only endpoints of the authoring backend and
// prints one colored line per endpoint. It exits 1 when any probe fails.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jeranaias/coursedeck/internal/api"
	"github.com/jeranaias/coursedeck/internal/config"
)

var (
	baseURL string
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "backendcheck",
	Short: "Check that the coursedeck backend is reachable",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	rootCmd.Flags().StringVar(&baseURL, "backend", "", "backend base URL (default from config)")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "per-request timeout")
}

// probes are safe to call repeatedly: nothing here mutates backend state.
var probes = []string{
	api.PathSources,
	api.PathTOC,
	api.PathIndexedChapters,
}

type result struct {
	path    string
	status  int
	elapsed time.Duration
	err     error
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	if baseURL == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		baseURL = cfg.Backend.BaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	color.Cyan("Checking %s\n", baseURL)
	hc := &http.Client{Timeout: timeout}
	failed := 0
	for _, path := range probes {
		r := probe(cmd.Context(), hc, baseURL+path)
		r.path = path
		report(r)
		if r.err != nil || r.status >= 400 {
			failed++
		}
	}

	if failed > 0 {
		color.Red("%d of %d probes failed", failed, len(probes))
		return fmt.Errorf("%d probes failed", failed)
	}
	color.Green("All %d probes passed", len(probes))
	return nil
}

func probe(ctx context.Context, hc *http.Client, url string) result {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return result{err: err}
	}
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return result{err: err, elapsed: time.Since(start)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return result{status: resp.StatusCode, elapsed: time.Since(start)}
}

func report(r result) {
	ms := r.elapsed.Round(time.Millisecond)
	switch {
	case r.err != nil:
		color.Red("  FAIL %-32s %v", r.path, r.err)
	case r.status >= 400:
		color.Red("  FAIL %-32s HTTP %d (%s)", r.path, r.status, ms)
	case r.elapsed > 2*time.Second:
		color.Yellow("  SLOW %-32s HTTP %d (%s)", r.path, r.status, ms)
	default:
		color.Green("  OK   %-32s HTTP %d (%s)", r.path, r.status, ms)
	}
}
