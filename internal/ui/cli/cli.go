// Package cli is the classfinder command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	apperrors "classfinder/internal/core/errors"
)

const versionString = "1.0.0"

// usageError marks errors caused by bad invocation rather than bad input.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// errNotFound makes a command exit non-zero without printing anything
// beyond what the command already wrote.
var errNotFound = errors.New("not found")

type globalOptions struct {
	configPath      string
	classpath       string
	jre             string
	roots           []string
	jarDirs         []string
	workers         int
	strict          bool
	legacyConflicts bool
	metricsAddr     string
	otlpEndpoint    string
	verbose         bool
}

// Run executes the command line and returns the process exit code: 0 on
// success, 1 on failure, 2 on usage errors.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	st := &state{stdin: stdin, out: stdout, errOut: stderr}
	root := newRootCommand(st)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if cerr := st.close(context.WithoutCancel(ctx)); cerr != nil {
		slog.Warn("shutdown failed", "error", cerr)
	}
	if err == nil {
		return 0
	}
	if errors.Is(err, errNotFound) {
		return 1
	}
	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintln(stderr, ErrorStyle.Render("Error: ")+err.Error())
		fmt.Fprintln(stderr, root.UsageString())
		return 2
	}
	fmt.Fprintln(stderr, ErrorStyle.Render("Error: ")+formatError(err, st.opts.verbose))
	if apperrors.IsCode(err, apperrors.CodeInvalidQuery) {
		return 2
	}
	return 1
}

func newRootCommand(st *state) *cobra.Command {
	root := &cobra.Command{
		Use:   "classfinder",
		Short: "Query classes on a JVM class path",
		Long: TitleStyle.Render("classfinder") + SubtitleStyle.Render(" - query classes on a JVM class path") + `

classfinder locates compiled classes and resources across an ordered class
path of directories and archives, including archives reached through
manifest Class-Path entries.

` + SubtitleStyle.Render("Scope:") + `
  --classpath a.jar:classes   explicit class path
  --root dir                  a class directory plus every archive below it
  --jar-dir dir               every archive directly inside dir
  --jre JAVA_HOME             runtime libraries, searched first
  (none of the above)         class path read from standard input`,
		Version:       versionString,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.setup(cmd.Context())
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	opts := &st.opts
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ./classfinder.toml when present)")
	flags.StringVar(&opts.classpath, "classpath", "", "class path, separated by the OS path-list separator")
	flags.StringVar(&opts.jre, "jre", "", "Java installation whose runtime libraries are searched first")
	flags.StringSliceVar(&opts.roots, "root", nil, "root directory: the directory and every archive below it (repeatable)")
	flags.StringSliceVar(&opts.jarDirs, "jar-dir", nil, "directory whose archives are added (repeatable)")
	flags.IntVar(&opts.workers, "workers", 0, "concurrent root scans (0 = number of CPUs)")
	flags.BoolVar(&opts.strict, "strict", false, "fail queries on unreadable modules instead of skipping them")
	flags.BoolVar(&opts.legacyConflicts, "legacy-conflicts", false, "report conflicts with per-location modification times")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /metrics and /health on this address")
	flags.StringVar(&opts.otlpEndpoint, "otlp-endpoint", "", "export traces to this OTLP gRPC endpoint")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newFindCommand(st),
		newGroupCommand(st),
		newPackageCommand(st),
		newSuperCommand(st),
		newSubCommand(st),
		newDuplicateCommand(st),
		newDuplicateSetCommand(st),
		newConflictCommand(st),
		newConflictSetCommand(st),
		newRefCommand(st),
		newMethodRefCommand(st),
		newFieldRefCommand(st),
		newDependCommand(st),
		newCyclesCommand(st),
		newWhyCommand(st),
		newStringsCommand(st),
		newOriginCommand(st),
		newRootsCommand(st),
		newSummaryCommand(st),
		newWatchCommand(st),
		newHistoryCommand(st),
	)
	return root
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}
