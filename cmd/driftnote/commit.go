package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var commitCmd = &cobra.Command{
	Use:   "commit <message>",
	Short: "Freeze the staged set into a new commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		info, err := rt.repo.CommitStaged(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ commit %s (%d docs, %s)\n", info.ID, info.DocCount,
			time.UnixMilli(info.TimestampMs).Format(time.RFC3339))
		return nil
	},
}

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "List paths that differ from the last commit",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		changes, err := rt.repo.ListChanges()
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			fmt.Println("no changes")
			return nil
		}
		for _, c := range changes {
			fmt.Printf("%-9s %s\n", c.Status, c.Path)
		}
		return nil
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff <path>",
	Short: "Show a unified diff of a path against its last commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		diff, err := rt.repo.DiffDocPath(args[0])
		if err != nil {
			return err
		}
		if diff == "" {
			fmt.Println("no changes")
			return nil
		}
		fmt.Print(diff)
		return nil
	},
}
