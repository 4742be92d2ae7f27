package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"classfinder/internal/core/app"
	"classfinder/internal/data/history"
	"classfinder/internal/engine/classpath"
	"classfinder/internal/engine/graph"
)

func header(w io.Writer, title string, count int) {
	fmt.Fprintln(w, TitleStyle.Render(title)+" "+SubtitleStyle.Render(fmt.Sprintf("(%s)", humanize.Comma(int64(count)))))
}

func printList(w io.Writer, title string, items []string) {
	header(w, title, len(items))
	for _, item := range items {
		fmt.Fprintf(w, "  %s\n", item)
	}
}

func printLocations(w io.Writer, locs []classpath.Location) {
	for _, loc := range locs {
		fmt.Fprintf(w, "  %s\n", loc)
	}
}

func printGroups(w io.Writer, title string, groups []graph.Group) {
	header(w, title, len(groups))
	for _, g := range groups {
		fmt.Fprintln(w, NameStyle.Render(g.Name))
		printLocations(w, g.Locations)
	}
}

func formatVersion(v int64) string {
	t := time.UnixMilli(v)
	return fmt.Sprintf("%s (%s)", t.UTC().Format(time.RFC3339), humanize.Time(t))
}

func printVersionedGroups(w io.Writer, title string, groups []graph.VersionedGroup) {
	header(w, title, len(groups))
	for _, g := range groups {
		fmt.Fprintln(w, NameStyle.Render(g.Name))
		for _, vl := range g.Locations {
			fmt.Fprintf(w, "  %s  %s\n", vl.Location, SubtitleStyle.Render(formatVersion(vl.Version)))
		}
	}
}

func printSourceSets(w io.Writer, title string, sets []graph.SourceSet, versioned bool) {
	header(w, title, len(sets))
	for _, set := range sets {
		fmt.Fprintf(w, "%s %s\n", NameStyle.Render(set.Root.ID), SubtitleStyle.Render(fmt.Sprintf("[%s, %d modules]", set.Root.Kind, len(set.Modules))))
		for _, m := range set.Modules {
			if versioned {
				fmt.Fprintf(w, "  %s  %s\n", m.Name, SubtitleStyle.Render(formatVersion(m.Version)))
				continue
			}
			fmt.Fprintf(w, "  %s\n", m.Name)
		}
	}
}

func printRoots(w io.Writer, roots []classpath.Root) {
	header(w, "Roots", len(roots))
	for i, r := range roots {
		fmt.Fprintf(w, "  %3d  %-9s  %s\n", i+1, r.Kind, r.ID)
	}
}

// printOrigin renders the chain from a configured root down to the root
// that provides the resource, one level of indentation per manifest hop.
func printOrigin(w io.Writer, name string, stack []classpath.Root) {
	header(w, "Origin of "+name, len(stack))
	for i, r := range stack {
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", i+1), r.ID)
	}
}

func printConstants(w io.Writer, matches []app.ConstantMatch) {
	header(w, "Modules with matching constants", len(matches))
	for _, m := range matches {
		fmt.Fprintln(w, NameStyle.Render(m.Name))
		for _, s := range m.Strings {
			fmt.Fprintf(w, "  %q\n", s)
		}
	}
}

func printSummary(w io.Writer, s app.Summary) {
	fmt.Fprintln(w, TitleStyle.Render("Session "+s.SessionID))
	fmt.Fprintf(w, "  taken       %s\n", s.TakenAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "  roots       %s\n", humanize.Comma(int64(s.Roots)))
	fmt.Fprintf(w, "  modules     %s\n", humanize.Comma(int64(s.Modules)))
	fmt.Fprintf(w, "  duplicates  %s\n", humanize.Comma(int64(s.Duplicates)))
	fmt.Fprintf(w, "  conflicts   %s\n", humanize.Comma(int64(s.Conflicts)))
}

func printTrend(w io.Writer, report history.TrendReport) {
	header(w, "History "+report.PathKey, report.ScanCount)
	fmt.Fprintf(w, "  %-20s  %6s  %8s  %8s  %10s  %9s\n", "taken", "roots", "modules", "Δmodules", "duplicates", "conflicts")
	for _, p := range report.Points {
		fmt.Fprintf(w, "  %-20s  %6d  %8d  %+8d  %10d  %9d\n",
			p.Timestamp.UTC().Format(time.RFC3339), p.RootCount, p.ModuleCount, p.DeltaModules, p.DuplicateCount, p.ConflictCount)
	}
	if n := len(report.Points); n > 0 {
		last := report.Points[n-1]
		fmt.Fprintln(w, SubtitleStyle.Render(fmt.Sprintf("  last scan %s, %.2f conflicts on average over %s",
			humanize.Time(last.Timestamp), last.AvgConflicts, report.Window)))
	}
}

func printCycles(w io.Writer, cycles [][]string) {
	header(w, "Cycles", len(cycles))
	for _, c := range cycles {
		fmt.Fprintf(w, "  %s -> %s\n", strings.Join(c, " -> "), c[0])
	}
}
