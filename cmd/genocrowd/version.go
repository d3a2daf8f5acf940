// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// buildCommit returns the commit set at link time, falling back to the VCS
// revision embedded by the Go toolchain. It is empty when neither is known.
func buildCommit() string {
	if commit != "" {
		return commit
	}
	info, ok := readBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			return setting.Value
		}
	}
	return ""
}

func versionString() string {
	c := buildCommit()
	if c == "" {
		c = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, c, date)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the genocrowd version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println("genocrowd " + versionString())
			return nil
		},
	}
}
