package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"classfinder/internal/engine/classpath"
	"classfinder/internal/engine/graph"
)

func newFindCommand(st *state) *cobra.Command {
	var all, resource bool
	cmd := &cobra.Command{
		Use:   "find <name>",
		Short: "Locate a module or resource",
		Long: `Locate a module by qualified name (com.example.Foo) or a resource by path
(META-INF/services/x). Names containing '/' are always treated as resources.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := st.open()
			if err != nil {
				return err
			}
			name := args[0]
			asResource := resource || strings.Contains(name, "/")

			var locs []classpath.Location
			switch {
			case all && asResource:
				locs = s.FindResources(name)
			case all:
				locs = s.FindModules(name)
			default:
				var loc classpath.Location
				var ok bool
				if asResource {
					loc, ok = s.LocateResource(name)
				} else {
					loc, ok = s.LocateModule(name)
				}
				if ok {
					locs = []classpath.Location{loc}
				}
			}
			if len(locs) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render(name+" not found"))
				return errNotFound
			}
			printLocations(cmd.OutOrStdout(), locs)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "list every location, not just the first")
	cmd.Flags().BoolVarP(&resource, "resource", "r", false, "treat the name as a resource path")
	return cmd
}

func newGroupCommand(st *state) *cobra.Command {
	var names bool
	cmd := &cobra.Command{
		Use:   "group <pattern>",
		Short: "List modules whose name matches a wildcard pattern",
		Long: `List modules matching a pattern with '?' and '*' wildcards. Patterns without
a '.' match the simple name; others match the qualified name.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := st.open()
			if err != nil {
				return err
			}
			if names {
				found, err := s.LookupModules(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printList(cmd.OutOrStdout(), "Modules matching "+args[0], found)
				return nil
			}
			groups, err := s.LookupModulesWithLocations(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printGroups(cmd.OutOrStdout(), "Modules matching "+args[0], groups)
			return nil
		},
	}
	cmd.Flags().BoolVar(&names, "names", false, "print names only")
	return cmd
}

func newPackageCommand(st *state) *cobra.Command {
	var direct bool
	cmd := &cobra.Command{
		Use:   "package <package>",
		Short: "List the modules of a package",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := st.open()
			if err != nil {
				return err
			}
			found, err := s.PackageModules(cmd.Context(), args[0], direct)
			if err != nil {
				return err
			}
			printList(cmd.OutOrStdout(), "Modules in "+args[0], found)
			return nil
		},
	}
	cmd.Flags().BoolVar(&direct, "direct", false, "exclude subpackages")
	return cmd
}

func newSuperCommand(st *state) *cobra.Command {
	var pkg string
	cmd := &cobra.Command{
		Use:   "super <name>",
		Short: "List every superclass and superinterface of a module",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := st.open()
			if err != nil {
				return err
			}
			found, err := s.Supertypes(cmd.Context(), args[0], pkg)
			if err != nil {
				return err
			}
			printList(cmd.OutOrStdout(), "Supertypes of "+args[0], found)
			return nil
		},
	}
	cmd.Flags().StringVar(&pkg, "package", "", "only report supertypes in this package tree")
	return cmd
}

func newSubCommand(st *state) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "sub <name>",
		Short: "List every module assignable to a class or interface",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := st.open()
			if err != nil {
				return err
			}
			found, err := s.Subtypes(cmd.Context(), args[0], prefix)
			if err != nil {
				return err
			}
			printList(cmd.OutOrStdout(), "Subtypes of "+args[0], found)
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "only consider modules whose name starts with this prefix")
	return cmd
}

func newDuplicateCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate [pattern]",
		Short: "List modules found in more than one location",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := duplicates(cmd, st, args)
			if err != nil {
				return err
			}
			printGroups(cmd.OutOrStdout(), "Duplicates", groups)
			return nil
		},
	}
}

func newDuplicateSetCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicateset [pattern]",
		Short: "List duplicated modules grouped by the root providing them",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := duplicates(cmd, st, args)
			if err != nil {
				return err
			}
			printSourceSets(cmd.OutOrStdout(), "Duplicate sets", graph.DuplicateSets(groups), false)
			return nil
		},
	}
}

func duplicates(cmd *cobra.Command, st *state, args []string) ([]graph.Group, error) {
	s, err := st.open()
	if err != nil {
		return nil, err
	}
	return s.Duplicates(cmd.Context(), optionalArg(args))
}

func newConflictCommand(st *state) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "conflict [pattern]",
		Short: "List duplicated modules whose copies differ",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := conflicts(cmd, st, args, all)
			if err != nil {
				return err
			}
			printVersionedGroups(cmd.OutOrStdout(), "Conflicts", groups)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include duplicates whose copies are identical")
	return cmd
}

func newConflictSetCommand(st *state) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "conflictset [pattern]",
		Short: "List conflicting modules grouped by the root providing them",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := conflicts(cmd, st, args, all)
			if err != nil {
				return err
			}
			printSourceSets(cmd.OutOrStdout(), "Conflict sets", graph.ConflictSets(groups), true)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include duplicates whose copies are identical")
	return cmd
}

func conflicts(cmd *cobra.Command, st *state, args []string, all bool) ([]graph.VersionedGroup, error) {
	s, err := st.open()
	if err != nil {
		return nil, err
	}
	return s.Conflicts(cmd.Context(), optionalArg(args), all)
}

func newRefCommand(st *state) *cobra.Command {
	var pkg string
	cmd := &cobra.Command{
		Use:   "ref <type>",
		Short: "List modules that reference a type",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := st.open()
			if err != nil {
				return err
			}
			found, err := s.ReferencedBy(cmd.Context(), args[0], pkg)
			if err != nil {
				return err
			}
			printList(cmd.OutOrStdout(), "Modules referencing "+args[0], found)
			return nil
		},
	}
	cmd.Flags().StringVar(&pkg, "package", "", "only scan modules in this package tree")
	return cmd
}

func newMethodRefCommand(st *state) *cobra.Command {
	var pkg string
	cmd := &cobra.Command{
		Use:   "mref <Type.method>",
		Short: "List modules that reference a method",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := st.open()
			if err != nil {
				return err
			}
			found, err := s.ReferencedByMethod(cmd.Context(), args[0], pkg)
			if err != nil {
				return err
			}
			printList(cmd.OutOrStdout(), "Modules referencing method "+args[0], found)
			return nil
		},
	}
	cmd.Flags().StringVar(&pkg, "package", "", "only scan modules in this package tree")
	return cmd
}

func newFieldRefCommand(st *state) *cobra.Command {
	var pkg string
	cmd := &cobra.Command{
		Use:   "fref <Type.field>",
		Short: "List modules that reference a field",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := st.open()
			if err != nil {
				return err
			}
			found, err := s.ReferencedByField(cmd.Context(), args[0], pkg)
			if err != nil {
				return err
			}
			printList(cmd.OutOrStdout(), "Modules referencing field "+args[0], found)
			return nil
		},
	}
	cmd.Flags().StringVar(&pkg, "package", "", "only scan modules in this package tree")
	return cmd
}

func newDependCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "depend <name>",
		Short: "List the transitive dependency closure of a module",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := st.open()
			if err != nil {
				return err
			}
			found, unresolved, err := s.Dependencies(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printList(w, "Dependencies of "+args[0], found)
			if len(unresolved) > 0 {
				printList(w, "Unresolved", unresolved)
			}
			return nil
		},
	}
}

func newStringsCommand(st *state) *cobra.Command {
	var pkg string
	cmd := &cobra.Command{
		Use:   "strings <text>",
		Short: "List modules with string constants containing text",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := st.open()
			if err != nil {
				return err
			}
			found, err := s.Constants(cmd.Context(), args[0], pkg)
			if err != nil {
				return err
			}
			printConstants(cmd.OutOrStdout(), found)
			return nil
		},
	}
	cmd.Flags().StringVar(&pkg, "package", "", "only scan modules in this package tree")
	return cmd
}

func newOriginCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "origin <name>",
		Short: "Show which configured root leads to a module or resource",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := st.open()
			if err != nil {
				return err
			}
			stack, err := s.OriginStack(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(stack) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render(args[0]+" not found"))
				return errNotFound
			}
			printOrigin(cmd.OutOrStdout(), args[0], stack)
			return nil
		},
	}
}

func newRootsCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "roots",
		Short: "List every root, including those reached through manifests",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := st.open()
			if err != nil {
				return err
			}
			printRoots(cmd.OutOrStdout(), s.Roots())
			return nil
		},
	}
}

func newSummaryCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Count roots, modules, duplicates and conflicts",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := st.open()
			if err != nil {
				return err
			}
			sum, err := s.Summary(cmd.Context())
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), sum)
			return nil
		},
	}
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func newCyclesCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "cycles [package]",
		Short: "List dependency cycles among the modules of a package",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := st.open()
			if err != nil {
				return err
			}
			cycles, err := s.Cycles(cmd.Context(), optionalArg(args))
			if err != nil {
				return err
			}
			printCycles(cmd.OutOrStdout(), cycles)
			return nil
		},
	}
}

func newWhyCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "why <from> <to>",
		Short: "Show a shortest dependency chain from one module to another",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := st.open()
			if err != nil {
				return err
			}
			path, ok, err := s.DependencyPath(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render(args[0]+" does not depend on "+args[1]))
				return errNotFound
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(path, " -> "))
			return nil
		},
	}
}
