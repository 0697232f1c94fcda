package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/driftnote/pkg/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Serve and apply sync batches against a peer's transport layer",
	Long: `Driftnote carries no network server of its own — these commands
are the two halves a host's transport plumbing would call: 'respond'
answers a SyncRequest with this node's own ciphertext,
and 'apply' folds an inbound SyncResponse toward local. Each invocation
runs one Engine for the lifetime of the process, so manual-mode queuing
is only meaningful within a single long-running host (see 'serve'); from
the CLI, apply always runs in automatic mode regardless of config.`,
}

func readJSONArg(arg string, v interface{}) error {
	var r io.Reader
	if arg == "-" || arg == "" {
		r = os.Stdin
	} else {
		f, err := os.Open(arg)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	return json.NewDecoder(r).Decode(v)
}

var syncRespondCmd = &cobra.Command{
	Use:   "respond <request.json|->",
	Short: "Answer a SyncRequest with this node's stored ciphertext",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		var req sync.SyncRequest
		if err := readJSONArg(args[0], &req); err != nil {
			return fmt.Errorf("decode sync request: %w", err)
		}

		engine := sync.NewEngine(rt.mgr, rt.key, rt.peerID, sync.Automatic)
		resp, err := engine.GetOpsForSync(req)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(resp)
	},
}

var syncApplyCmd = &cobra.Command{
	Use:   "apply <response.json|->",
	Short: "Apply an inbound SyncResponse, folding it toward local",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		var resp sync.SyncResponse
		if err := readJSONArg(args[0], &resp); err != nil {
			return fmt.Errorf("decode sync response: %w", err)
		}

		engine := sync.NewEngine(rt.mgr, rt.key, rt.peerID, sync.Automatic)
		applied, err := engine.ApplyRemoteOps(resp)
		if err != nil {
			return err
		}
		fmt.Printf("✓ applied %d ops\n", applied)
		return nil
	},
}

func init() {
	syncCmd.AddCommand(syncRespondCmd)
	syncCmd.AddCommand(syncApplyCmd)
}
