package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"classfinder/internal/core/app"
	"classfinder/internal/core/config"
	"classfinder/internal/core/watcher"
	"classfinder/internal/data/history"
	"classfinder/internal/shared/util"
)

func newWatchCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the session whenever a root or the config file changes",
		Long: `Print a summary, then rebuild the session and print a new summary each time
a class file, an archive or the configuration file changes. With history
enabled every summary is recorded. Stops on interrupt.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := st.open()
			if err != nil {
				return err
			}
			rw := &rootWatch{st: st, out: cmd.OutOrStdout(), ctx: cmd.Context()}
			defer rw.close()

			if err := rw.report(s); err != nil {
				return err
			}
			if err := rw.restart(s); err != nil {
				return err
			}

			if st.cfgPath != "" {
				cw := config.NewWatcher(st.cfgPath, st.config().Watch.Debounce, rw.reloadConfig)
				if err := cw.Start(cmd.Context()); err != nil {
					return fmt.Errorf("watch config: %w", err)
				}
				defer cw.Stop()
			}

			<-cmd.Context().Done()
			return nil
		},
	}
}

// rootWatch owns the file watcher over the current session's roots and
// replaces it whenever the root list changes.
type rootWatch struct {
	st  *state
	out io.Writer
	ctx context.Context

	mu sync.Mutex
	w  *watcher.Watcher
}

func (rw *rootWatch) restart(s *app.Session) error {
	var ids []string
	for _, r := range s.Roots() {
		ids = append(ids, r.ID)
	}

	cfg := rw.st.config()
	w, err := watcher.NewWatcher(cfg.Watch.Debounce, cfg.Exclude.Dirs, rw.onChange)
	if err != nil {
		return err
	}
	if err := w.Watch(ids); err != nil {
		_ = w.Close()
		return err
	}

	rw.mu.Lock()
	old := rw.w
	rw.w = w
	rw.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

func (rw *rootWatch) onChange(paths []string) {
	slog.Info("class path changed", "paths", len(paths))
	rw.rebuild(nil)
}

func (rw *rootWatch) reloadConfig(cfg *config.Config) {
	if err := applyFlags(cfg, rw.st.opts); err != nil {
		slog.Error("reloaded configuration rejected", "error", err)
		return
	}
	rw.rebuild(cfg)
}

// rebuild replaces the session and re-registers its roots, since the new
// root list may differ.
func (rw *rootWatch) rebuild(cfg *config.Config) {
	if rw.ctx.Err() != nil {
		return
	}
	s, err := rw.st.rebuild(cfg)
	if err != nil {
		slog.Error("session rebuild failed", "error", err)
		return
	}
	if err := rw.report(s); err != nil {
		slog.Error("summary failed", "session", s.ID, "error", err)
	}
	if err := rw.restart(s); err != nil {
		slog.Error("failed to watch new roots", "error", err)
	}
	slog.Debug("session rebuilt", "session", s.ID, "heap_mb", util.HeapAllocMB())
}

func (rw *rootWatch) report(s *app.Session) error {
	sum, err := s.Summary(rw.ctx)
	if err != nil {
		return err
	}
	printSummary(rw.out, sum)

	cfg := rw.st.config()
	if !cfg.History.Enabled {
		return nil
	}
	store, err := history.Open(cfg.History.Path, cfg.History.BusyTimeout)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()
	rw.st.mu.Lock()
	key := history.PathKey(rw.st.roots)
	rw.st.mu.Unlock()
	return store.SaveSnapshot(key, snapshotOf(sum))
}

func (rw *rootWatch) close() {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.w != nil {
		_ = rw.w.Close()
		rw.w = nil
	}
}
