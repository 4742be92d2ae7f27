package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"classfinder/internal/core/app"
	"classfinder/internal/data/history"
	"classfinder/internal/shared/util"
)

func newHistoryCommand(st *state) *cobra.Command {
	var (
		since  string
		window time.Duration
		record bool
		output string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show how the class path summary changed over time",
		Long: `Show stored session summaries for the current class path. Snapshots are
keyed by the ordered root list; --record takes a new snapshot first.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			sinceTime, err := parseSince(since)
			if err != nil {
				return &usageError{err: err}
			}
			if window <= 0 {
				return &usageError{err: fmt.Errorf("--window must be > 0, got %s", window)}
			}

			s, err := st.open()
			if err != nil {
				return err
			}
			store, err := history.Open(st.cfg.History.Path, st.cfg.History.BusyTimeout)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer store.Close()

			key := history.PathKey(st.roots)
			if record {
				sum, err := s.Summary(cmd.Context())
				if err != nil {
					return err
				}
				if err := store.SaveSnapshot(key, snapshotOf(sum)); err != nil {
					return err
				}
			}

			snapshots, err := store.LoadSnapshots(key, sinceTime)
			if err != nil {
				return err
			}
			if len(snapshots) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render("no history recorded for this class path; run with --record"))
				return nil
			}
			report, err := history.BuildTrendReport(key, snapshots, window)
			if err != nil {
				return err
			}

			if output != "" {
				raw, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				if err := util.WriteFileWithDirs(output, append(raw, '\n'), 0o644); err != nil {
					return fmt.Errorf("write trend report %q: %w", output, err)
				}
			}
			printTrend(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "only snapshots at/after this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().DurationVar(&window, "window", 24*time.Hour, "moving-average window for conflict counts")
	cmd.Flags().BoolVar(&record, "record", false, "record a snapshot of the current session first")
	cmd.Flags().StringVarP(&output, "output", "o", "", "also write the trend report as JSON to this file")
	return cmd
}

func snapshotOf(sum app.Summary) history.Snapshot {
	return history.Snapshot{
		SessionID:      sum.SessionID,
		Timestamp:      sum.TakenAt,
		RootCount:      sum.Roots,
		ModuleCount:    sum.Modules,
		DuplicateCount: sum.Duplicates,
		ConflictCount:  sum.Conflicts,
	}
}

func parseSince(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("--since must be RFC3339 or YYYY-MM-DD, got %q", value)
}
