package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nootmuskaat/pm/internal/config"
	"github.com/nootmuskaat/pm/internal/debug"
	"github.com/nootmuskaat/pm/internal/engine"
	"github.com/nootmuskaat/pm/internal/storage/sqlstore"
	"github.com/nootmuskaat/pm/internal/telemetry"
	"github.com/nootmuskaat/pm/internal/types"
)

// noDbCommands run without opening the store. Subcommands inherit the
// setting from their parent.
var noDbCommands = map[string]bool{
	"completion": true,
	"config":     true,
	"help":       true,
	"init":       true,
	"version":    true,
}

func isNoDbCommand(cmd *cobra.Command) bool {
	if cmd == rootCmd {
		return true
	}
	for c := cmd; c != nil && c != rootCmd; c = c.Parent() {
		if noDbCommands[c.Name()] {
			return true
		}
	}
	return false
}

func setupSignalContext() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// applyVerbosityFlags propagates --verbose and --quiet to the debug
// package.
func applyVerbosityFlags() {
	debug.SetVerbose(verboseFlag)
	debug.SetQuiet(quietFlag)
}

// applyConfigOverrides fills flags that were not set on the command line
// from config (file and PM_* env).
// Priority: flags > env > config file > defaults.
func applyConfigOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if !flags.Changed("db") {
		dbPath = config.GetString("db")
	}
	if !flags.Changed("actor") {
		actor = config.GetString("actor")
	}
	if !flags.Changed("backend") {
		backend = config.GetString("backend")
	}
	if !flags.Changed("json") {
		jsonOutput = config.GetBool("json")
	}
}

// setupActor resolves the acting user.
// Priority: --actor > PM_ACTOR / config actor > $USER > OS account > "unknown".
func setupActor() {
	actor = resolveActor(actor)
}

func resolveActor(configured string) string {
	if configured != "" {
		return configured
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}

func invocation() engine.Invocation {
	return engine.Invocation{User: actor, Time: time.Now().UTC()}
}

func initTelemetry() {
	cfg := telemetry.Config{
		Enabled:  config.GetBool("telemetry.enabled"),
		Stdout:   config.GetBool("telemetry.stdout"),
		Endpoint: config.GetString("telemetry.endpoint"),
	}
	if err := telemetry.Init(rootCtx, cfg, "pm", Version); err != nil {
		WarnError("telemetry disabled: %v", err)
	}
}

// storeConfig builds the backend configuration from flags and config.
func storeConfig() sqlstore.Config {
	return sqlstore.Config{
		Backend: backend,
		Path:    resolveDBPath(),
		Server: sqlstore.ServerConfig{
			Host:     config.GetString("server.host"),
			Port:     config.GetInt("server.port"),
			User:     config.GetString("server.user"),
			Password: config.GetString("server.password"),
			Database: config.GetString("server.database"),
		},
		LockTimeout: config.GetDuration("lock-timeout"),
	}
}

func resolveDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return config.FindDatabasePath()
}

// openStore opens the configured backend and builds the engine on top of
// it.
func openStore() {
	cfg := storeConfig()
	if cfg.Backend == "" || cfg.Backend == sqlstore.BackendSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
			FatalError("failed to create database directory: %v", err)
		}
	}

	s, err := sqlstore.Open(rootCtx, cfg)
	if err != nil {
		FatalErrorWithHint(fmt.Sprintf("failed to open database: %v", err),
			"run 'pm init' to create a database in the current directory")
	}
	debug.Logf("opened %s database at %s\n", s.Backend(), s.Path())

	store = telemetry.WrapStore(s)
	eng = engine.New(store,
		engine.WithEditor(newExternalEditor(editorCommand())),
		engine.WithHistoryPolicy(historyPolicy()),
		engine.WithLogger(debug.NewLogger()),
	)
}

func closeStore() {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		WarnError("failed to close database: %v", err)
	}
	store = nil
}

// historyPolicy reads the history.* keys.
func historyPolicy() engine.HistoryPolicy {
	p := engine.HistoryPolicy{
		AssignField:      types.Field(config.GetString("history.assign-field")),
		ReopenFromActual: config.GetBool("history.reopen-from-actual"),
		TrackTags:        config.GetBool("history.tags"),
	}
	switch p.AssignField {
	case types.FieldAssignedTo, types.FieldStatus:
	case "":
		p.AssignField = types.FieldAssignedTo
	default:
		WarnError("unknown history.assign-field %q, using %s", p.AssignField, types.FieldAssignedTo)
		p.AssignField = types.FieldAssignedTo
	}
	return p
}
