package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/driftnote/pkg/security"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new base64-encoded repo key",
	Long: `Generate a fresh 32-byte AES-256 key for a repository and print it
base64-encoded. The key is never written to disk by this command; export
it into the environment variable named by --repo-key-env before running
any other command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return fmt.Errorf("generate key: %w", err)
		}
		fmt.Println(base64.StdEncoding.EncodeToString(key))
		return nil
	},
}

var peerIDCmd = &cobra.Command{
	Use:   "peer-id <base64-public-key>",
	Short: "Derive the stable peer id for a base64-encoded public key",
	Long: `Print the peer id a remote would be addressed by in shadow
partition paths and sync requests/responses: the hex-encoded SHA-256
digest of its public key. This command performs no network I/O — it
just applies pkg/security.DerivePeerID so a host's transport layer can
compute the same id a peer would present for itself.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pubKey, err := base64.StdEncoding.DecodeString(args[0])
		if err != nil {
			return fmt.Errorf("decode public key: %w", err)
		}
		fmt.Println(security.DerivePeerID(pubKey))
		return nil
	},
}
