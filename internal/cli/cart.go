package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewCartCommand は cart サブコマンド群。
func NewCartCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show or change the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCartList(cmd, rootOpts)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCartList(cmd, rootOpts)
		},
	})

	var qty int
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Long: `Add a product to the cart. Adding a product that is already in the cart
increases its quantity.

Examples:
  storefront cart add 6c1f0e0a-... --qty 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCartAdd(cmd, rootOpts, args[0], qty)
		},
	}
	add.Flags().IntVarP(&qty, "qty", "q", 1, "quantity to add")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Set a line's quantity (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid quantity", err)
			}
			return runCartMutation(cmd, rootOpts, func(ctx context.Context, env *tabEnv) error {
				return settle(ctx, cmd.ErrOrStderr(), env.Tab.Cart.SetQuantity(ctx, args[0], n))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCartMutation(cmd, rootOpts, func(ctx context.Context, env *tabEnv) error {
				return settle(ctx, cmd.ErrOrStderr(), env.Tab.Cart.Remove(ctx, args[0]))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCartMutation(cmd, rootOpts, func(ctx context.Context, env *tabEnv) error {
				return settle(ctx, cmd.ErrOrStderr(), env.Tab.Cart.Clear(ctx))
			})
		},
	})

	return cmd
}

func runCartList(cmd *cobra.Command, opts *RootOptions) error {
	ctx := cmd.Context()
	env, err := openTab(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer env.Close()

	c := env.Tab.Cart
	return printCart(cmd.OutOrStdout(), opts.Format, c.Lines(), c.Count(), c.Total())
}

func runCartAdd(cmd *cobra.Command, opts *RootOptions, productID string, qty int) error {
	if qty < 1 {
		return NewExitError(ExitCommandError, "quantity must be at least 1")
	}
	return runCartMutation(cmd, opts, func(ctx context.Context, env *tabEnv) error {
		p, err := env.Client.Catalog().Lookup(ctx, productID)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("cannot add %s", productID), err)
		}
		return settle(ctx, cmd.ErrOrStderr(), env.Tab.Cart.AddQuantity(ctx, p, qty))
	})
}

// runCartMutation はタブを開いてfnを実行し、変更後のカートを表示する。
func runCartMutation(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, env *tabEnv) error) error {
	ctx := cmd.Context()
	env, err := openTab(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := fn(ctx, env); err != nil {
		return err
	}
	c := env.Tab.Cart
	return printCart(cmd.OutOrStdout(), opts.Format, c.Lines(), c.Count(), c.Total())
}
