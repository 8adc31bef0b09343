package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/roach88/snmpcore/internal/agent"
	"github.com/roach88/snmpcore/internal/config"
	"github.com/roach88/snmpcore/internal/request"
	"github.com/roach88/snmpcore/internal/store"
	"github.com/roach88/snmpcore/internal/vacm"
)

// Runtime is an agent opened from the configuration, with its VACM tables
// restored from the database and the bootstrap file applied on top.
type Runtime struct {
	Config *config.Config
	Store  *store.Store
	ACL    *vacm.Store
	Agent  *agent.Agent
	Logger *slog.Logger

	Restored     int // VACM rows reloaded from the database
	Bootstrapped int // VACM rows added from the bootstrap file
}

// newLogger builds the stderr logger: --verbose forces Debug, otherwise the
// configured level applies.
func newLogger(cfg *config.Config, verbose bool, w io.Writer) *slog.Logger {
	level, _ := cfg.LogLevel() // validated by config.Load
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openRuntime loads the configuration and wires the agent. Errors are
// ExitErrors with ExitCommandError.
func openRuntime(ctx context.Context, opts *RootOptions, stderr io.Writer) (*Runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeConfig, err)
	}
	if opts.DBPath != "" {
		cfg.Storage.Path = opts.DBPath
	}
	logger := newLogger(cfg, opts.Verbose, stderr)

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeStorage, err)
	}
	rt := &Runtime{Config: cfg, Store: st, Logger: logger}
	if err := rt.wire(ctx, opts.ConfigPath); err != nil {
		st.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) wire(ctx context.Context, configPath string) error {
	cfg := rt.Config

	contexts := agent.NewContexts(nil)
	for _, name := range cfg.Agent.Contexts {
		contexts.Register(name)
	}

	rt.ACL = vacm.NewStore(
		vacm.WithReferenceGuard(),
		vacm.WithTableOptions(request.Persistent()),
	)
	// Stored rows win over the bootstrap: restore first, then add only
	// what is missing.
	for _, m := range rt.ACL.Tables() {
		n, err := rt.Store.Restore(ctx, "", m.Table)
		if err != nil {
			return WrapExitError(ExitCommandError, ErrCodeStorage, err)
		}
		rt.Restored += n
	}
	if cfg.VACM.File != "" {
		path := cfg.VACM.File
		if !filepath.IsAbs(path) && configPath != "" {
			path = filepath.Join(filepath.Dir(configPath), path)
		}
		boot, err := config.LoadVACM(path)
		if err != nil {
			return WrapExitError(ExitCommandError, ErrCodeConfig, err)
		}
		if rt.Bootstrapped, err = boot.Apply(rt.ACL); err != nil {
			return WrapExitError(ExitCommandError, ErrCodeConfig, fmt.Errorf("apply %s: %w", path, err))
		}
	}

	seq, err := rt.Store.MaxSeq(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeStorage, err)
	}
	coord := request.NewCoordinator(
		request.WithLogger(rt.Logger),
		request.WithClock(request.NewClockAt(seq)),
		request.WithIDGenerator(request.UUIDv7Generator{}),
		request.WithJournal(rt.Store),
		request.WithStrict(cfg.Agent.Strict),
	)

	rt.Agent = agent.New(contexts,
		agent.WithLogger(rt.Logger),
		agent.WithCoordinator(coord),
		agent.WithAccessControl(rt.ACL),
		agent.WithAuditLog(rt.Store),
	)
	if contexts.Supported("") {
		for _, m := range rt.ACL.Tables() {
			if err := rt.Agent.Register("", m); err != nil {
				return WrapExitError(ExitCommandError, ErrCodeConfig, err)
			}
		}
	}

	rt.Logger.Debug("agent ready",
		"db", cfg.Storage.Path,
		"contexts", cfg.Agent.Contexts,
		"restored", rt.Restored,
		"bootstrapped", rt.Bootstrapped,
		"seq", seq,
	)
	return nil
}

// Close releases the database.
func (rt *Runtime) Close() error {
	return rt.Store.Close()
}
