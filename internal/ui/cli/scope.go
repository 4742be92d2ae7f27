package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"classfinder/internal/core/app"
	"classfinder/internal/core/config"
	"classfinder/internal/engine/classpath"
	"classfinder/internal/shared/observability"
)

// state carries everything resolved before a subcommand runs.
type state struct {
	opts   globalOptions
	stdin  io.Reader
	out    io.Writer
	errOut io.Writer

	cfg     *config.Config
	cfgPath string
	roots   []string
	// fromStdin is set when roots were read from stdin; rebuilds then keep
	// the same list since stdin cannot be read twice.
	fromStdin bool

	mu      sync.Mutex
	session *app.Session

	shutdownTracing func(context.Context) error
	server          *ObservabilityServer
}

func (st *state) setup(ctx context.Context) error {
	configureLogging(st.errOut, st.opts.verbose)

	cfg, cfgPath, err := loadConfig(st.opts.configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, st.opts); err != nil {
		return err
	}
	st.cfg, st.cfgPath = cfg, cfgPath

	shutdown, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}
	st.shutdownTracing = shutdown

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		st.server = NewObservabilityServer(addr, app.NewHealthService(st.current))
		if err := st.server.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

func configureLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// loadConfig reads path, or ./classfinder.toml when path is empty and the
// file exists, falling back to defaults. Environment overrides apply last.
func loadConfig(path string) (*config.Config, string, error) {
	var cfg *config.Config
	switch {
	case path != "":
		loaded, err := config.Load(path)
		if err != nil {
			return nil, "", fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	default:
		if _, err := os.Stat(config.DefaultFile); err == nil {
			loaded, err := config.Load(config.DefaultFile)
			if err != nil {
				return nil, "", fmt.Errorf("load config: %w", err)
			}
			cfg, path = loaded, config.DefaultFile
		} else {
			cfg = config.Default()
		}
	}
	config.ApplyEnvOverrides(cfg)
	return cfg, path, nil
}

// applyFlags lets explicit flags replace configured values.
func applyFlags(cfg *config.Config, opts globalOptions) error {
	if opts.classpath != "" {
		cfg.Classpath = filepath.SplitList(opts.classpath)
	}
	if opts.jre != "" {
		cfg.JavaHome = opts.jre
	}
	if len(opts.roots) > 0 {
		cfg.RootDirs = opts.roots
	}
	if len(opts.jarDirs) > 0 {
		cfg.JarDirs = opts.jarDirs
	}
	if opts.workers > 0 {
		cfg.Scan.Workers = opts.workers
	}
	if opts.strict {
		cfg.Policy.StrictPermissions = true
	}
	if opts.legacyConflicts {
		cfg.Conflicts.LegacyFilter = true
	}
	if opts.metricsAddr != "" {
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}
	if opts.otlpEndpoint != "" {
		cfg.Observability.OTLPEndpoint = opts.otlpEndpoint
	}
	if err := config.Validate(cfg); err != nil {
		return &usageError{err: err}
	}
	return nil
}

func hasScope(cfg *config.Config) bool {
	return len(cfg.Classpath) > 0 || len(cfg.RootDirs) > 0 || len(cfg.JarDirs) > 0 || cfg.JavaHome != ""
}

// buildRoots assembles the root list from cfg plus any extra entries.
func buildRoots(cfg *config.Config, extra []string) ([]string, error) {
	b, err := classpath.NewBuilder(cfg.Exclude.Dirs)
	if err != nil {
		return nil, err
	}
	if cfg.JavaHome != "" {
		if err := b.AddSystem(cfg.JavaHome); err != nil {
			return nil, err
		}
	}

	entries := append(append([]string(nil), cfg.Classpath...), extra...)

	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e)) {
		case ".jar", ".zip":
			b.AddArchive(e)
		default:
			b.AddDirectory(e)
		}
	}
	for _, dir := range cfg.RootDirs {
		if err := b.AddRootDirectory(dir); err != nil {
			return nil, fmt.Errorf("root directory %s: %w", dir, err)
		}
	}
	for _, dir := range cfg.JarDirs {
		if err := b.AddArchiveDirectory(dir, false); err != nil {
			return nil, fmt.Errorf("archive directory %s: %w", dir, err)
		}
	}
	return b.Roots(), nil
}

func sessionOptions(cfg *config.Config, roots []string) app.Options {
	return app.Options{
		Roots:           roots,
		CacheSize:       cfg.Cache.Descriptors,
		Workers:         cfg.Scan.Workers,
		Permissions:     app.PermissionPolicy{Strict: cfg.Policy.StrictPermissions},
		LegacyConflicts: cfg.Conflicts.LegacyFilter,
	}
}

// open returns the current session, building roots and creating it on
// first use.
func (st *state) open() (*app.Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.session != nil {
		return st.session, nil
	}
	if st.roots == nil {
		var extra []string
		if !hasScope(st.cfg) {
			if st.stdin == nil {
				return nil, &usageError{err: errors.New("no class path given")}
			}
			list, err := classpath.ReadPathList(st.stdin)
			if err != nil {
				return nil, err
			}
			if len(list) == 0 {
				return nil, &usageError{err: errors.New("no class path given on flags, config or stdin")}
			}
			extra, st.fromStdin = list, true
		}
		roots, err := buildRoots(st.cfg, extra)
		if err != nil {
			return nil, err
		}
		st.roots = roots
	}
	s, err := app.NewSession(sessionOptions(st.cfg, st.roots))
	if err != nil {
		return nil, err
	}
	slog.Debug("session opened", "session", s.ID, "roots", len(st.roots))
	st.session = s
	return s, nil
}

// rebuild swaps in a new session and closes the old one. A nil cfg keeps
// the current configuration; roots are rebuilt so new archives below root
// directories are picked up.
func (st *state) rebuild(cfg *config.Config) (*app.Session, error) {
	st.mu.Lock()
	if cfg == nil {
		cfg = st.cfg
	}
	roots, fromStdin := st.roots, st.fromStdin
	st.mu.Unlock()

	if !fromStdin || hasScope(cfg) {
		var err error
		if roots, err = buildRoots(cfg, nil); err != nil {
			return nil, err
		}
		fromStdin = false
	}
	s, err := app.NewSession(sessionOptions(cfg, roots))
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	old := st.session
	st.session, st.cfg, st.roots, st.fromStdin = s, cfg, roots, fromStdin
	st.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			slog.Warn("failed to close previous session", "session", old.ID, "error", err)
		}
	}
	observability.SessionRebuildsTotal.Inc()
	return s, nil
}

func (st *state) config() *config.Config {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.cfg
}

func (st *state) current() *app.Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.session
}

func (st *state) close(ctx context.Context) error {
	var errs []error
	st.mu.Lock()
	if st.session != nil {
		errs = append(errs, st.session.Close())
		st.session = nil
	}
	st.mu.Unlock()
	if st.server != nil {
		errs = append(errs, st.server.Stop(ctx))
	}
	if st.shutdownTracing != nil {
		errs = append(errs, st.shutdownTracing(ctx))
	}
	return errors.Join(errs...)
}
