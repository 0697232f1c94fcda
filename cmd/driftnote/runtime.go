package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cuemby/driftnote/pkg/config"
	"github.com/cuemby/driftnote/pkg/ledger"
	"github.com/cuemby/driftnote/pkg/repository"
	"github.com/cuemby/driftnote/pkg/security"
	"github.com/cuemby/driftnote/pkg/tree"
	"github.com/cuemby/driftnote/pkg/types"
)

// runtime bundles the objects every subcommand but keygen and peer-id needs: a loaded
// config, the manager for the configured ledger directory, a repository
// handle scoped to the requested repo id, and the peer id this invocation
// is running as.
type runtime struct {
	cfg        config.Config
	mgr        *ledger.Manager
	repoID     types.RepoID
	key        *security.RepoKey
	repo       *repository.Repository
	peerID     types.PeerID
	treeBroker *tree.Broker
}

func loadRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	repoIDStr, _ := cmd.Flags().GetString("repo-id")
	if repoIDStr == "" {
		return nil, fmt.Errorf("--repo-id is required")
	}
	repoID, err := uuid.Parse(repoIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid --repo-id: %w", err)
	}

	key, err := loadRepoKey(cmd)
	if err != nil {
		return nil, err
	}

	peerIDStr, _ := cmd.Flags().GetString("peer-id")

	mgr := ledger.NewManager(cfg.LedgerDir, cfg.SnapshotDepth)
	store, err := mgr.OpenLocal(repoID)
	if err != nil {
		mgr.Close()
		return nil, err
	}
	broker := tree.NewBroker()
	broker.Start()
	idx := tree.NewIndexWithBroker(store, broker)
	repo := repository.New(mgr, idx, repoID, key)

	return &runtime{
		cfg:        cfg,
		mgr:        mgr,
		repoID:     repoID,
		key:        key,
		repo:       repo,
		peerID:     types.PeerID(peerIDStr),
		treeBroker: broker,
	}, nil
}

func (r *runtime) Close() error {
	r.treeBroker.Stop()
	return r.mgr.Close()
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	var cfg config.Config
	var err error
	if path == "" {
		cfg = config.Default()
	} else {
		cfg, err = config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
	}

	if dir, _ := cmd.Flags().GetString("ledger-dir"); dir != "" {
		cfg.LedgerDir = dir
	}
	return cfg, cfg.Validate()
}

func loadRepoKey(cmd *cobra.Command) (*security.RepoKey, error) {
	envVar, _ := cmd.Flags().GetString("repo-key-env")
	encoded := os.Getenv(envVar)
	if encoded == "" {
		return nil, fmt.Errorf("repo key not set: export a base64-encoded 32-byte key in $%s", envVar)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode $%s: %w", envVar, err)
	}
	return security.NewRepoKey(raw)
}
