package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jrhy/bmap"
)

func newFingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint FILE",
		Short: "Print the content hash of a map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readMap(args[0])
			if err != nil {
				return err
			}
			fp, err := m.Fingerprint()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), fp)
			return err
		},
	}
}

type sortOptions struct {
	by   string
	desc bool
}

func newSortCmd() *cobra.Command {
	options := sortOptions{}
	cmd := &cobra.Command{
		Use:   "sort FILE",
		Short: "Stable-sort a map by key or value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if options.by != "key" && options.by != "value" {
				return fmt.Errorf("--by must be key or value, not %q", options.by)
			}
			m, err := readMap(args[0])
			if err != nil {
				return err
			}
			order := bmap.DefaultCompare(json.Marshal)
			err = m.SortFunc(func(a, b bmap.Entry[any, any]) (int, error) {
				x, y := a.Key, b.Key
				if options.by == "value" {
					x, y = a.Value, b.Value
				}
				cmp, err := order(x, y)
				if options.desc {
					cmp = -cmp
				}
				return cmp, err
			})
			if err != nil {
				return fmt.Errorf("sort by %s: %w", options.by, err)
			}
			return writeMap(cmd.OutOrStdout(), m)
		},
	}
	cmd.Flags().StringVar(&options.by, "by", "key", "sort by key or value")
	cmd.Flags().BoolVar(&options.desc, "desc", false, "sort in descending order")
	return cmd
}

func newMergeCmd() *cobra.Command {
	var prefer string
	cmd := &cobra.Command{
		Use:   "merge BASE OTHER",
		Short: "Merge OTHER into BASE",
		Long: `Merge OTHER into BASE. Keys only in OTHER are appended; for keys
in both, --prefer decides which value is kept.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resolve func(key, existing, incoming any) any
			switch prefer {
			case "incoming":
				resolve = func(_, _, incoming any) any { return incoming }
			case "existing":
				resolve = func(_, existing, _ any) any { return existing }
			default:
				return fmt.Errorf("--prefer must be existing or incoming, not %q", prefer)
			}
			maps, err := readMaps(args...)
			if err != nil {
				return err
			}
			return writeMap(cmd.OutOrStdout(), maps[0].Merge(maps[1], resolve))
		},
	}
	cmd.Flags().StringVar(&prefer, "prefer", "incoming", "value kept for conflicting keys [existing|incoming]")
	return cmd
}

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Show entries added (+), removed (-) and changed (~) from OLD to NEW",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			maps, err := readMaps(args...)
			if err != nil {
				return err
			}
			old, cur := maps[0], maps[1]
			out := cmd.OutOrStdout()
			return cur.DiffIter(old, func(added, removed bool, key, addedValue, removedValue any) (bool, error) {
				var err error
				switch {
				case added:
					_, err = fmt.Fprintf(out, "+ %s %s\n", mustJSON(key), mustJSON(addedValue))
				case removed:
					_, err = fmt.Fprintf(out, "- %s %s\n", mustJSON(key), mustJSON(removedValue))
				default:
					_, err = fmt.Fprintf(out, "~ %s %s -> %s\n", mustJSON(key), mustJSON(removedValue), mustJSON(addedValue))
				}
				return err == nil, err
			})
		},
	}
}

func newApplyCmd() *cobra.Command {
	var deletes []string
	cmd := &cobra.Command{
		Use:   "apply BASE PATCH",
		Short: "Set every entry of PATCH in BASE, then delete keys",
		Long: `Set every entry of PATCH in BASE as one batch, then delete the keys
given with --delete as another. Each resulting change notification is
logged at info level.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			maps, err := readMaps(args...)
			if err != nil {
				return err
			}
			base, patch := maps[0], maps[1]
			for _, event := range []bmap.EventType{bmap.EventAdd, bmap.EventUpdate, bmap.EventDelete} {
				base.On(event, func(entries *anyMap) {
					slog.Info("map changed",
						slog.String("event", event.String()),
						slog.String("keys", mustJSON(entries.Keys())),
					)
				})
			}
			base.BatchSet(patch.Entries())
			if len(deletes) > 0 {
				keys := make([]any, len(deletes))
				for i, d := range deletes {
					keys[i] = parseKey(d)
				}
				for i, ok := range base.BatchDelete(keys) {
					if !ok {
						slog.Warn("key not present", slog.String("key", deletes[i]))
					}
				}
			}
			return writeMap(cmd.OutOrStdout(), base)
		},
	}
	cmd.Flags().StringArrayVar(&deletes, "delete", nil, "key to delete, as JSON (bare words are strings); repeatable")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats FILE...",
		Short: "Print entry count, encoded sizes and fingerprint of each map",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			maps, err := readMaps(args...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, m := range maps {
				binary, err := m.MarshalBinary()
				if err != nil {
					return fmt.Errorf("%s: %w", args[i], err)
				}
				encoded, err := json.Marshal(m)
				if err != nil {
					return fmt.Errorf("%s: %w", args[i], err)
				}
				fp, err := m.Fingerprint()
				if err != nil {
					return fmt.Errorf("%s: %w", args[i], err)
				}
				_, err = fmt.Fprintf(out, "%s: %s entries, json %s, binary %s, fingerprint %s\n",
					args[i],
					humanize.Comma(int64(m.Size())),
					humanize.Bytes(uint64(len(encoded))),
					humanize.Bytes(uint64(len(binary))),
					fp)
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
}
