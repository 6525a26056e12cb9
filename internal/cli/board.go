package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/example/claimhub/internal/wire"
)

// BoardCmd returns the board command
func BoardCmd() *cobra.Command {
	var device string

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the sign-up board",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			deviceID, err := observerDevice(ctx, device)
			if err != nil {
				return err
			}
			return wire.BoardAdapterWithOutput(cmd.OutOrStdout()).Show(ctx, deviceID)
		},
	}

	cmd.Flags().StringVarP(&device, "device", "d", "", "Show the board as seen by this device")

	return cmd
}

// WatchCmd returns the watch command
func WatchCmd() *cobra.Command {
	var device, metricsAddr string
	var noClear bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show the sign-up board and refresh it on every change",
		Long: `Show the sign-up board and refresh it whenever a task, an assignment or
the settings change. Stop with Ctrl-C.

When metrics.addr is configured (or --metrics-addr is given), Prometheus
metrics are served on http://<addr>/metrics while watching.`,
		PreRun: func(cmd *cobra.Command, args []string) {
			if metricsAddr != "" {
				wire.SetMetricsAddr(metricsAddr)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			deviceID, err := observerDevice(ctx, device)
			if err != nil {
				return err
			}

			if srv := startMetricsServer(); srv != nil {
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
			}

			return wire.BoardAdapterWithOutput(cmd.OutOrStdout()).Watch(ctx, deviceID, !noClear)
		},
	}

	cmd.Flags().StringVarP(&device, "device", "d", "", "Show the board as seen by this device")
	cmd.Flags().BoolVar(&noClear, "no-clear", false, "Append renders instead of clearing the screen")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	return cmd
}

// observerDevice returns the explicit device, or this machine's fingerprint
// while dedup is on. With dedup off devices are not tracked and the board is
// rendered without a personal marker.
func observerDevice(ctx context.Context, device string) (string, error) {
	if d := strings.TrimSpace(device); d != "" {
		return d, nil
	}

	c := wire.Default()
	policy, err := c.SettingsService.GetPolicy(ctx)
	if err != nil {
		return "", err
	}
	if !policy.DedupEnabled {
		return "", nil
	}
	return c.Fingerprint.DeviceID(ctx)
}

func startMetricsServer() *http.Server {
	c := wire.Default()
	if c.Registry == nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: c.Config.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		c.Logger.Warn("metrics endpoint disabled", "addr", srv.Addr, "error", err)
		return nil
	}
	c.Logger.Info("serving metrics", "addr", ln.Addr().String())

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.Logger.Warn("metrics endpoint stopped", "error", err)
		}
	}()
	return srv
}
