package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/error-telemetry/pkg/errorlog"
	"github.com/Sternrassler/error-telemetry/pkg/health"
	"github.com/Sternrassler/error-telemetry/pkg/retry"
)

// clientTimeout bounds each request issued by the client commands.
const clientTimeout = 10 * time.Second

func newExportCmd() *cobra.Command {
	var (
		addr   string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download a JSON snapshot of the error log from a running daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := fetch(cmd.Context(), baseURL(addr, cfg.Server.Port)+"/api/export", cfg.Telemetry.Retry)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			log.Info().Str("file", output).Int("bytes", len(data)).Msg("Snapshot exported")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "daemon base URL (default http://localhost:<server.port>)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newHealthCmd() *cobra.Command {
	var (
		addr     string
		window   string
		minScore int
	)
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Print health metrics of a running daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			w, err := errorlog.ParseWindow(window)
			if err != nil {
				return err
			}

			endpoint := baseURL(addr, cfg.Server.Port) + "/api/metrics?window=" + url.QueryEscape(string(w))
			data, err := fetch(cmd.Context(), endpoint, cfg.Telemetry.Retry)
			if err != nil {
				return err
			}

			var m health.Metrics
			if err := json.Unmarshal(data, &m); err != nil {
				return fmt.Errorf("decode metrics: %w", err)
			}
			printHealth(cmd.OutOrStdout(), m)

			if m.HealthScore < minScore {
				return fmt.Errorf("health score %d below minimum %d", m.HealthScore, minScore)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "daemon base URL (default http://localhost:<server.port>)")
	cmd.Flags().StringVarP(&window, "window", "w", "all", "time window (1h, 6h, 24h, all)")
	cmd.Flags().IntVar(&minScore, "min-score", 0, "exit non-zero when the score is below this value")
	return cmd
}

func printHealth(w io.Writer, m health.Metrics) {
	fmt.Fprintf(w, "score:   %d (%s)\n", m.HealthScore, m.Band)
	fmt.Fprintf(w, "window:  %s (%d events, %.2f/h)\n", m.Window, m.WindowCount, m.Rate)
	fmt.Fprintf(w, "total:   %d\n", m.Total)
	fmt.Fprintf(w, "uptime:  %s\n", m.Uptime.Round(time.Second))
	for _, c := range m.TopComponents {
		fmt.Fprintf(w, "  %-20s %d\n", c.Component, c.Count)
	}
}

func baseURL(addr string, port int) string {
	if addr != "" {
		return addr
	}
	return "http://localhost:" + strconv.Itoa(port)
}

// fetch GETs endpoint, retrying transient failures under policy.
func fetch(ctx context.Context, endpoint string, policy retry.Policy) ([]byte, error) {
	client := &http.Client{Timeout: clientTimeout}

	var body []byte
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return &retry.StatusError{
				StatusCode: resp.StatusCode,
				Class:      retry.ClassForStatus(resp.StatusCode),
				Message:    string(data),
			}
		}
		body = data
		return nil
	}, retry.WithOnRetry(func(a retry.Attempt) {
		log.Warn().
			Str("endpoint", endpoint).
			Int("attempt", a.Number).
			Dur("backoff", a.Delay).
			Msg("Retrying daemon request after backoff")
	}))
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", endpoint, err)
	}
	return body, nil
}
