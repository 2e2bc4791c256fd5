package main

import (
	"fmt"
	rtdebug "runtime/debug"

	"github.com/spf13/cobra"
)

var (
	// Version is the current version of pm (overridden by ldflags at build time)
	Version = "0.1.0"
	// Build can be set via ldflags at compile time
	Build = "dev"
	// Commit is the git revision the binary was built from (optional ldflag)
	Commit = ""
)

var versionCmd = &cobra.Command{
	Use:     "version",
	GroupID: "setup",
	Short:   "Print version information",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		commit := resolveCommitHash()
		if jsonOutput {
			result := map[string]string{"version": Version, "build": Build}
			if commit != "" {
				result["commit"] = commit
			}
			outputJSON(result)
			return
		}
		if commit != "" {
			fmt.Fprintf(stdout, "pm version %s (%s: %s)\n", Version, Build, shortCommit(commit))
			return
		}
		fmt.Fprintf(stdout, "pm version %s (%s)\n", Version, Build)
	},
}

// resolveCommitHash prefers the ldflag and falls back to the VCS stamp in
// the build info.
func resolveCommitHash() string {
	if Commit != "" {
		return Commit
	}
	if info, ok := rtdebug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return ""
}

func shortCommit(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
