package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nootmuskaat/pm/internal/config"
	"github.com/nootmuskaat/pm/internal/debug"
	"github.com/nootmuskaat/pm/internal/engine"
	"github.com/nootmuskaat/pm/internal/storage"
	"github.com/nootmuskaat/pm/internal/telemetry"
)

var (
	dbPath      string
	actor       string
	backend     string
	jsonOutput  bool
	verboseFlag bool
	quietFlag   bool

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc

	store storage.Store
	eng   *engine.Engine
)

func init() {
	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize config: %v\n", err)
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: nearest .pm/pm.db, else ~/.pm/pm.db)")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "", "Acting user for the audit trail (default: $PM_ACTOR, $USER)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Storage backend: sqlite or mysql (default: sqlite)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")

	rootCmd.Flags().BoolP("version", "V", false, "Print version information")

	// Assigned here rather than in the literal to avoid an initialization
	// cycle (isNoDbCommand refers to rootCmd).
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupSignalContext()
		applyVerbosityFlags()
		applyConfigOverrides(cmd)

		if isNoDbCommand(cmd) {
			return
		}

		setupActor()
		initTelemetry()
		openStore()
	}

	rootCmd.AddGroup(&cobra.Group{ID: "issues", Title: "Working With Issues:"})
	rootCmd.AddGroup(&cobra.Group{ID: "views", Title: "Views & Reports:"})
	rootCmd.AddGroup(&cobra.Group{ID: "setup", Title: "Setup & Configuration:"})
}

var rootCmd = &cobra.Command{
	Use:   "pm",
	Short: "pm - a small issue tracker with an audit trail",
	Long: `pm tracks issues in a local SQLite database (or a MySQL/Dolt server).
Every change to an issue is recorded in its history.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("pm version %s (%s)\n", Version, Build)
			return
		}
		_ = cmd.Help()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeStore()
		if err := telemetry.Shutdown(context.Background()); err != nil {
			debug.Logf("telemetry shutdown: %v\n", err)
		}
		if rootCancel != nil {
			rootCancel()
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
