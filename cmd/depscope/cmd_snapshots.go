// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/DepScope/services/depscope/graph"
)

// Flag values for the snapshots command.
var (
	snapshotsDir     string
	snapshotsProject string
	snapshotsLimit   int
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Inspect the on-disk snapshot store",
	Long: "Opens the snapshot BadgerDB read-only and prints the stored graph\n" +
		"snapshots, newest first. Useful for checking what a server instance\n" +
		"has persisted without starting it.",
	RunE: runSnapshotsCommand,
}

func init() {
	snapshotsCmd.Flags().StringVar(&snapshotsDir, "snapshots-dir", "", "Snapshot store directory (default ~/.depscope/snapshots)")
	snapshotsCmd.Flags().StringVar(&snapshotsProject, "project-hash", "", "Only show snapshots of one project")
	snapshotsCmd.Flags().IntVar(&snapshotsLimit, "limit", 50, "Maximum snapshots to print")
	rootCmd.AddCommand(snapshotsCmd)
}

func runSnapshotsCommand(cmd *cobra.Command, _ []string) error {
	dir := snapshotsDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".depscope", "snapshots")
	}

	fmt.Printf("Snapshot store: %s\n", dir)

	// Check existence before opening for a cleaner message than BadgerDB's
	// "no such file or directory" buried in a long error.
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		fmt.Println("Store does not exist yet. Run a scan with \"snapshot\": true to populate it.")
		return nil
	}

	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil).WithReadOnly(true))
	if err != nil {
		return fmt.Errorf("opening snapshot store: %w", err)
	}
	defer db.Close()

	mgr, err := graph.NewSnapshotManager(db, slog.Default())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	metas, err := mgr.List(ctx, snapshotsProject, snapshotsLimit)
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println("No snapshots stored.")
		return nil
	}

	fmt.Printf("\n%-18s %-18s %-20s %7s %7s %10s  %s\n",
		"SNAPSHOT", "PROJECT", "CREATED", "NODES", "EDGES", "SIZE", "LABEL")
	for _, m := range metas {
		created := time.UnixMilli(m.CreatedAtMilli).Format("2006-01-02 15:04:05")
		fmt.Printf("%-18s %-18s %-20s %7d %7d %9dB  %s\n",
			m.SnapshotID, m.ProjectHash, created, m.NodeCount, m.EdgeCount, m.CompressedSize, m.Label)
	}
	fmt.Printf("\n%d snapshot(s)\n", len(metas))
	return nil
}
