// Command convrepair is the maintenance CLI for a per-user conversations
// store: wiping aggregate counters (the recount from the mailbox store is
// left to the caller), pruning stale msgid records, and dumping a store's
// contents. It carries no business logic of
// its own, just a thin cobra command tree over the conversations package's
// public API.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hkdb/convstore/conversations"
	"github.com/hkdb/convstore/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "convrepair",
		Short: "Repair and maintenance tool for a per-user conversations store",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML configuration file")

	root.AddCommand(newWipeCmd(&configPath))
	root.AddCommand(newPruneCmd(&configPath))
	root.AddCommand(newDumpCmd(&configPath))

	return root
}

func newWipeCmd(configPath *string) *cobra.Command {
	var clearFolderNames bool
	var commit bool

	cmd := &cobra.Command{
		Use:   "wipe <store-path>",
		Short: "Delete all conversation, folder-status, and sender-overflow records and re-seed $COUNTED_FLAGS",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			sess, err := conversations.OpenPath(args[0], cfg)
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			if err := sess.WipeCounts(cfg, clearFolderNames); err != nil {
				_ = sess.Abort()
				return err
			}
			if !commit {
				fmt.Fprintln(cmd.OutOrStdout(), "dry run (pass --commit to persist): wipe would have succeeded")
				return sess.Abort()
			}
			if err := sess.Commit(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wiped counts; rebuild by recounting from the mailbox store")
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearFolderNames, "clear-folder-names", false, "also clear $FOLDER_NAMES")
	cmd.Flags().BoolVar(&commit, "commit", false, "persist the change (default is a dry run)")
	return cmd
}

func newPruneCmd(configPath *string) *cobra.Command {
	var olderThan time.Duration
	var commit bool

	cmd := &cobra.Command{
		Use:   "prune <store-path>",
		Short: "Delete msgid records older than --older-than",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			sess, err := conversations.OpenPath(args[0], cfg)
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			threshold := time.Now().Add(-olderThan).Unix()
			seen, deleted, err := sess.PruneMsgids(threshold)
			if err != nil {
				_ = sess.Abort()
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seen=%d deleted=%d\n", seen, deleted)
			if !commit {
				return sess.Abort()
			}
			return sess.Commit()
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 180*24*time.Hour, "prune msgid records older than this")
	cmd.Flags().BoolVar(&commit, "commit", false, "persist the deletions (default is a dry run)")
	return cmd
}

func newDumpCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <store-path>",
		Short: "Write the store's entire contents as text to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			sess, err := conversations.OpenPath(args[0], cfg)
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer sess.Abort()
			return sess.Dump(cmd.OutOrStdout())
		},
	}
	return cmd
}
