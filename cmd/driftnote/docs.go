package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Inspect and stage documents in the local ledger",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every known document path",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		docs, err := rt.repo.ListDocs()
		if err != nil {
			return err
		}
		paths := make([]string, 0, len(docs))
		for p := range docs {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			fmt.Printf("%s  %s\n", docs[p], p)
		}
		return nil
	},
}

var docsShowCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Print a document's current reconstructed content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		docs, err := rt.repo.ListDocs()
		if err != nil {
			return err
		}
		docID, ok := docs[args[0]]
		if !ok {
			return fmt.Errorf("unknown path %q", args[0])
		}
		content, err := rt.repo.GetDocContent(docID)
		if err != nil {
			return err
		}
		fmt.Print(content)
		return nil
	},
}

var docsStageCmd = &cobra.Command{
	Use:   "stage <path>",
	Short: "Stage a path's current content for the next commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := rt.repo.StageFile(args[0]); err != nil {
			return err
		}
		fmt.Printf("staged %s\n", args[0])
		return nil
	},
}

func init() {
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsShowCmd)
	docsCmd.AddCommand(docsStageCmd)
}
