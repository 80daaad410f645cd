package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/codegraphd/codegraphd/internal/api"
	"github.com/codegraphd/codegraphd/internal/daemonsup"
	"github.com/codegraphd/codegraphd/internal/snapshot"
)

var listenAddr string

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the codegraphd daemon: scan, watch, cluster, and serve queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		sup, err := daemonsup.New(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sig
			cancel()
		}()

		if listenAddr != "" {
			dispatcher := api.NewDispatcher(sup, 20)
			hub := api.NewHub(logrus.New().WithField("component", "api"))
			srv := api.NewServer(dispatcher, hub)
			httpSrv := &http.Server{Addr: listenAddr, Handler: srv.Handler()}
			go func() {
				if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					fmt.Fprintf(os.Stderr, "api server: %v\n", err)
				}
			}()
			go func() {
				<-ctx.Done()
				httpSrv.Close()
			}()
		}

		return sup.Run(ctx)
	},
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Signal a running daemon to drain, snapshot, and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return signalDaemon(syscall.SIGTERM, "stop")
	},
}

var daemonRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Signal a running daemon to force a full re-scan",
	RunE: func(cmd *cobra.Command, args []string) error {
		return signalDaemon(syscall.SIGHUP, "refresh")
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether a daemon is running and its last recorded metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		graphDir := filepath.Join(cfg.Root, cfg.GraphDir)
		lock, running, err := snapshot.ReadLock(graphDir)
		if err != nil {
			return err
		}
		status := map[string]any{"running": running}
		if running {
			status["pid"] = lock.PID
		}
		if r, err := snapshot.Open(graphDir); err == nil {
			defer r.Close()
			if m, err := r.Metrics(); err == nil {
				status["metrics"] = m
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	},
}

// signalDaemon reads the lock file's PID and delivers sig, per spec §4.7
// Signals (stop -> SIGTERM/SIGINT, refresh -> SIGHUP).
func signalDaemon(sig syscall.Signal, verb string) error {
	graphDir := filepath.Join(cfg.Root, cfg.GraphDir)
	lock, running, err := snapshot.ReadLock(graphDir)
	if err != nil {
		return err
	}
	if !running {
		return fmt.Errorf("no daemon lock found under %s", graphDir)
	}
	proc, err := os.FindProcess(lock.PID)
	if err != nil {
		return err
	}
	if err := proc.Signal(sig); err != nil {
		return fmt.Errorf("sending %s signal to pid %d: %w", verb, lock.PID, err)
	}
	fmt.Fprintf(os.Stderr, "sent %s to pid %d\n", verb, lock.PID)
	return nil
}

func init() {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the codegraphd daemon lifecycle",
	}
	daemonCmd.AddCommand(daemonStartCmd, daemonStopCmd, daemonRefreshCmd, daemonStatusCmd)
	daemonStartCmd.Flags().StringVar(&listenAddr, "listen", "", "address to serve the query/control API on (e.g. 127.0.0.1:7475); empty disables it")
	rootCmd.AddCommand(daemonCmd)
}
