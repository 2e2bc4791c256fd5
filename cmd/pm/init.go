package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nootmuskaat/pm/internal/config"
	"github.com/nootmuskaat/pm/internal/debug"
	"github.com/nootmuskaat/pm/internal/storage/sqlstore"
	"github.com/nootmuskaat/pm/internal/ui"
)

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: "setup",
	Short:   "Create a .pm directory and database in the current directory",
	Long: `Create .pm/config.yaml and the database schema. With --backend mysql
the schema is created on the configured server instead of in .pm/pm.db.
Running init again is safe.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		if err != nil {
			FatalError("failed to get working directory: %v", err)
		}

		settings := map[string]string{"backend": sqlstore.BackendSQLite}
		if backend != "" {
			settings["backend"] = backend
		}
		cfgPath, err := config.InitProjectConfig(cwd, settings)
		if err != nil {
			FatalError("%v", err)
		}

		cfg := storeConfig()
		cfg.Backend = settings["backend"]
		if dbPath == "" {
			cfg.Path = filepath.Join(cwd, config.ProjectDir, config.DatabaseFile)
		}
		s, err := sqlstore.Open(rootCtx, cfg)
		if err != nil {
			FatalError("failed to create database: %v", err)
		}
		where := s.Path()
		if err := s.Close(); err != nil {
			WarnError("failed to close database: %v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"config": cfgPath, "backend": cfg.Backend, "database": where})
			return
		}
		debug.PrintNormal("%s Initialized pm in %s\n", ui.RenderPass(ui.IconPass), filepath.Dir(cfgPath))
		debug.PrintNormal("  config:   %s\n", cfgPath)
		debug.PrintNormal("  database: %s (%s)\n", where, cfg.Backend)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
