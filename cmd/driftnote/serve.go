package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/driftnote/pkg/log"
	"github.com/cuemby/driftnote/pkg/metrics"
	"github.com/cuemby/driftnote/pkg/sync"
	"github.com/cuemby/driftnote/pkg/tree"
	"github.com/cuemby/driftnote/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a long-lived node: metrics/health endpoints and a sync engine",
	Long: `serve keeps one Engine alive for the process lifetime, the only
context in which manual-mode pending-ops queuing persists across calls
(see pkg/sync.PendingOpsBuffer). The node itself still carries no network
listener for the sync protocol — a host wires its own transport against
the Engine this command constructs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		engine := sync.NewEngine(rt.mgr, rt.key, rt.peerID, rt.cfg.SyncMode)
		stopPendingLog := logPendingDepth(engine)
		defer stopPendingLog()

		stopTreeLog := logTreeDeltas(rt.treeBroker)
		defer stopTreeLog()

		collector := metrics.NewCollector(rt.mgr, []types.RepoID{rt.repoID})
		collector.Start()
		defer collector.Stop()

		metrics.SetVersion(Version)
		metrics.RegisterComponent("ledger", true, "ready")
		metrics.RegisterComponent("sync", true, string(rt.cfg.SyncMode))

		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			mux.Handle("/health", metrics.HealthHandler())
			mux.Handle("/ready", metrics.ReadyHandler())
			mux.Handle("/live", metrics.LivenessHandler())
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				fmt.Printf("metrics server error: %v\n", err)
			}
		}()
		fmt.Printf("✓ repo %s open at %s\n", rt.repoID, rt.cfg.LedgerDir)
		fmt.Printf("✓ sync mode: %s\n", rt.cfg.SyncMode)
		fmt.Printf("✓ metrics endpoint: http://%s/metrics\n", metricsAddr)
		fmt.Printf("✓ health endpoints: http://%s/{health,ready,live}\n", metricsAddr)
		fmt.Println("driftnote node running. Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		fmt.Println("\nshutting down...")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address for the /metrics, /health, /ready, /live endpoints")
}

// logPendingDepth periodically logs the manual-mode buffer depth so an
// operator watching logs can see a host's transport layer handing the
// engine SyncResponses even without a dedicated admin endpoint. No-op
// busywork in Automatic mode, where the buffer never holds anything.
func logPendingDepth(engine *sync.Engine) (stop func()) {
	ticker := time.NewTicker(30 * time.Second)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				if n := engine.Pending().Count(); n > 0 {
					log.WithComponent("sync").Info().Int("pending_ops", n).Msg("manual-mode ops awaiting merge")
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}

// logTreeDeltas subscribes to the node index's delta broker for the
// serve command's lifetime, standing in for the reactive web UI / file
// watcher hosts that would otherwise consume this stream, so the tree's
// Added/Removed/Moved/Modified events are still observable on a bare node.
func logTreeDeltas(broker *tree.Broker) (stop func()) {
	w := broker.Watch()
	done := make(chan struct{})
	go func() {
		for {
			select {
			case d, ok := <-w:
				if !ok {
					return
				}
				log.WithComponent("tree").Debug().
					Str("kind", string(d.Kind)).
					Str("path", d.Path).
					Str("doc_id", d.DocID.String()).
					Msg("tree delta")
			case <-done:
				broker.Unwatch(w)
				return
			}
		}
	}()
	return func() { close(done) }
}
