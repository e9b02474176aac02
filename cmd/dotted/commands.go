package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jrhy/dotted"
)

// parseValue reads a command-line value as YAML, so 4 is an int, true a
// bool and [a, b] a list. Anything YAML rejects is kept as a string.
func parseValue(s string, literal bool) any {
	if literal {
		return s
	}
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil || (v == nil && s != "null" && s != "~") {
		return s
	}
	return v
}

func printValue(w io.Writer, v any) error {
	if s, ok := v.(string); ok {
		_, err := fmt.Fprintln(w, s)
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cannot print value: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func newGetCmd(f *flags) *cobra.Command {
	var def string
	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value at a path",
		Long: `Print the value at a path. Strings print as they are, anything else as JSON.

A trailing ':' prints a branch with primary values under "@value"; a
trailing delimiter prints it without them.

Examples:
  dotted get user.name
  dotted get user:
  dotted get theme --default light`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(ctx context.Context, s *dotted.Store) error {
				v, found, err := s.Tree().Lookup(args[0])
				if err != nil {
					return err
				}
				if !found {
					if !cmd.Flags().Changed("default") {
						return fmt.Errorf("%s: not found", args[0])
					}
					v = parseValue(def, false)
				}
				return printValue(cmd.OutOrStdout(), v)
			})
		},
	}
	cmd.Flags().StringVarP(&def, "default", "d", "", "value to print when the path is absent")
	return cmd
}

func newSetCmd(f *flags) *cobra.Command {
	var literal bool
	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set the value at a path",
		Long: `Set the value at a path, creating branches on the way. VALUE is read
as YAML unless --string is given.

Examples:
  dotted set editor.tabs 4
  dotted set editor.theme '{name: dark, contrast: high}'
  dotted set version 1.10 --string`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(ctx context.Context, s *dotted.Store) error {
				return s.Set(args[0], parseValue(args[1], literal))
			})
		},
	}
	cmd.Flags().BoolVarP(&literal, "string", "s", false, "store VALUE as a string")
	return cmd
}

func newAddCmd(f *flags) *cobra.Command {
	var literal bool
	cmd := &cobra.Command{
		Use:   "add KEY VALUE",
		Short: "Set the value at a path only if nothing is there",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(ctx context.Context, s *dotted.Store) error {
				added, err := s.Tree().Add(args[0], parseValue(args[1], literal))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), added)
				return err
			})
		},
	}
	cmd.Flags().BoolVarP(&literal, "string", "s", false, "store VALUE as a string")
	return cmd
}

func newPushCmd(f *flags) *cobra.Command {
	var literal bool
	cmd := &cobra.Command{
		Use:   "push KEY VALUE",
		Short: "Append a value to the list at a path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(ctx context.Context, s *dotted.Store) error {
				return s.Tree().Push(args[0], parseValue(args[1], literal))
			})
		},
	}
	cmd.Flags().BoolVarP(&literal, "string", "s", false, "push VALUE as a string")
	return cmd
}

func newHasCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "has KEY...",
		Short: "Report whether every path is present",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(ctx context.Context, s *dotted.Store) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), s.Has(args...))
				return err
			})
		},
	}
}

func newDeleteCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:     "delete KEY...",
		Aliases: []string{"rm"},
		Short:   "Delete paths",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(ctx context.Context, s *dotted.Store) error {
				return s.Delete(args...)
			})
		},
	}
}

func newFlattenCmd(f *flags) *cobra.Command {
	var delimiter string
	cmd := &cobra.Command{
		Use:   "flatten",
		Short: "Print every leaf as path=value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(ctx context.Context, s *dotted.Store) error {
				flat := s.Flatten(delimiter)
				keys := make([]string, 0, len(flat))
				for k := range flat {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				w := cmd.OutOrStdout()
				for _, k := range keys {
					if _, err := fmt.Fprintf(w, "%s=", k); err != nil {
						return err
					}
					if err := printValue(w, flat[k]); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&delimiter, "delimiter", "", "path delimiter in the output (default the store's)")
	return cmd
}

func newDumpCmd(f *flags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the whole tree as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(ctx context.Context, s *dotted.Store) error {
				var (
					b   []byte
					err error
				)
				switch output {
				case "json":
					b, err = json.MarshalIndent(s.Tree(), "", "  ")
					b = append(b, '\n')
				case "yaml":
					b, err = yaml.Marshal(s.Tree())
				default:
					return fmt.Errorf("output must be json or yaml, got %q", output)
				}
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(b)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "json", "json or yaml")
	return cmd
}

func newSaveCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Write the snapshot if its content changed",
		Long: `Write the snapshot if its content changed, and report whether it was
written. Saving a store that has no artifact yet creates it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(ctx context.Context, s *dotted.Store) error {
				wrote, err := s.Save(ctx)
				if err != nil {
					return err
				}
				status := "unchanged"
				if wrote {
					status = "written"
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), status)
				return err
			})
		},
	}
}
