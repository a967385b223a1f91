package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"storefront/internal/optimistic"
)

// NewFavCommand は fav サブコマンド群。
func NewFavCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fav",
		Aliases: []string{"favorites"},
		Short:   "Show or change favorites",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFav(cmd, rootOpts, nil)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show favorite product ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFav(cmd, rootOpts, nil)
		},
	})

	type favOp struct {
		use, short string
		fn         func(ctx context.Context, env *tabEnv, id string) *optimistic.Mutation
	}
	ops := []favOp{
		{"toggle <product-id>", "Toggle a product's favorite flag", func(ctx context.Context, env *tabEnv, id string) *optimistic.Mutation {
			return env.Tab.Favorites.Toggle(ctx, id)
		}},
		{"add <product-id>", "Mark a product as favorite", func(ctx context.Context, env *tabEnv, id string) *optimistic.Mutation {
			return env.Tab.Favorites.Add(ctx, id)
		}},
		{"remove <product-id>", "Unmark a favorite product", func(ctx context.Context, env *tabEnv, id string) *optimistic.Mutation {
			return env.Tab.Favorites.Remove(ctx, id)
		}},
	}
	for _, op := range ops {
		op := op
		cmd.AddCommand(&cobra.Command{
			Use:   op.use,
			Short: op.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runFav(cmd, rootOpts, func(ctx context.Context, env *tabEnv) error {
					return settle(ctx, cmd.ErrOrStderr(), op.fn(ctx, env, args[0]))
				})
			},
		})
	}

	return cmd
}

func runFav(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, env *tabEnv) error) error {
	ctx := cmd.Context()
	env, err := openTab(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer env.Close()

	if fn != nil {
		if err := fn(ctx, env); err != nil {
			return err
		}
	}
	return printFavorites(cmd.OutOrStdout(), opts.Format, env.Tab.Favorites.IDs())
}

func printFavorites(w io.Writer, format string, ids []string) error {
	if format == "json" {
		if ids == nil {
			ids = []string{}
		}
		return writeJSON(w, map[string][]string{"product_ids": ids})
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No favorites.")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintf(w, "★ %s\n", id)
	}
	return nil
}
