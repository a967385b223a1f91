package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"storefront/internal/admin"
	"storefront/internal/domain/shop"
	"storefront/internal/remote"
)

// NewAdminCommand は管理者向けサブコマンド群。権限はRemote Store側で判定する。
func NewAdminCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer products, carts and site configuration",
	}

	cmd.AddCommand(newAdminProductsCommand(rootOpts))
	cmd.AddCommand(newAdminCreateProductCommand(rootOpts))
	cmd.AddCommand(newAdminDeleteProductCommand(rootOpts))
	cmd.AddCommand(newAdminCartCommand(rootOpts))
	cmd.AddCommand(newAdminRemoveLineCommand(rootOpts))
	cmd.AddCommand(newAdminSetConfigCommand(rootOpts))
	cmd.AddCommand(newAdminAuditCommand(rootOpts))

	return cmd
}

func (o *RootOptions) productsView(env *tabEnv) *admin.ProductsView {
	return admin.NewProductsView(admin.ProductsOptions{
		Remote:            env.Client.AdminProducts(),
		Runner:            env.Tab.Runner,
		Notifier:          env.Notifier,
		Logger:            o.Logger,
		LowStockThreshold: o.Client.LowStockThreshold,
	})
}

func (o *RootOptions) cartLinesView(env *tabEnv, userID string) *admin.CartLinesView {
	return admin.NewCartLinesView(admin.CartLinesOptions{
		Remote:   env.Client.AdminCarts(),
		Runner:   env.Tab.Runner,
		Notifier: env.Notifier,
		Logger:   o.Logger,
		UserID:   userID,
	})
}

func newAdminProductsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List all products with the low-stock count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openTab(ctx, cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()

			view := rootOpts.productsView(env)
			if err := view.Load(ctx); err != nil {
				return WrapExitError(ExitFailure, "failed to load products", err)
			}
			return printProducts(cmd.OutOrStdout(), rootOpts.Format, view.Products(), view.LowStock())
		},
	}
}

func newAdminCreateProductCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		name     string
		price    string
		stock    int64
		imageRef string
		inactive bool
	)
	cmd := &cobra.Command{
		Use:   "create-product",
		Short: "Create a product",
		Long: `Create a product.

Examples:
  storefront admin create-product --name "Green Tea" --price 4.50 --stock 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return NewExitError(ExitCommandError, "--name is required")
			}
			p, err := decimal.NewFromString(price)
			if err != nil || p.IsNegative() {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid price %q", price))
			}

			ctx := cmd.Context()
			env, err := openTab(ctx, cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()

			created, err := env.Client.AdminProducts().Create(ctx, shop.Product{
				Name:     name,
				Price:    shop.NormalizePrice(p),
				Stock:    stock,
				ImageRef: imageRef,
				IsActive: !inactive,
			})
			if err != nil {
				return WrapExitError(ExitFailure, "failed to create product", err)
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", created.ID, created.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "product name")
	cmd.Flags().StringVar(&price, "price", "0", "unit price")
	cmd.Flags().Int64Var(&stock, "stock", 0, "stock on hand")
	cmd.Flags().StringVar(&imageRef, "image", "", "image reference")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create the product hidden from the catalog")
	return cmd
}

func newAdminDeleteProductCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-product <product-id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openTab(ctx, cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()

			view := rootOpts.productsView(env)
			if err := view.Load(ctx); err != nil {
				return WrapExitError(ExitFailure, "failed to load products", err)
			}
			if err := settle(ctx, cmd.ErrOrStderr(), view.Delete(ctx, args[0])); err != nil {
				return err
			}
			return printProducts(cmd.OutOrStdout(), rootOpts.Format, view.Products(), view.LowStock())
		},
	}
}

func newAdminCartCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cart <user-id>",
		Short: "Show a user's cart lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openTab(ctx, cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()

			view := rootOpts.cartLinesView(env, args[0])
			if err := view.Load(ctx); err != nil {
				return WrapExitError(ExitFailure, "failed to load cart lines", err)
			}
			return printCart(cmd.OutOrStdout(), rootOpts.Format, view.Lines(), view.Count(), view.Total())
		},
	}
}

func newAdminRemoveLineCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-line <user-id> <product-id>",
		Short: "Remove a line from a user's cart",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openTab(ctx, cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()

			view := rootOpts.cartLinesView(env, args[0])
			if err := view.Load(ctx); err != nil {
				return WrapExitError(ExitFailure, "failed to load cart lines", err)
			}
			if err := settle(ctx, cmd.ErrOrStderr(), view.Delete(ctx, args[1])); err != nil {
				return err
			}
			return printCart(cmd.OutOrStdout(), rootOpts.Format, view.Lines(), view.Count(), view.Total())
		},
	}
}

func newAdminSetConfigCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-config <key> <value>",
		Short: "Save one site configuration key (site_name | site_logo_url)",
		Long: `Save one site configuration key. Every open tab refreshes its cached
site configuration after the save succeeds.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openTab(ctx, cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()

			editor := admin.NewSiteConfigEditor(admin.SiteConfigEditorOptions{
				Remote:   env.Client.SiteConfig(),
				Bus:      env.Tab.Bus,
				Channel:  env.Channel,
				Notifier: env.Notifier,
				Logger:   rootOpts.Logger,
			})
			if err := editor.Save(ctx, args[0], args[1]); err != nil {
				return WrapExitError(ExitFailure, "failed to save site config", err)
			}
			cache := env.Tab.SiteConfig
			return printSiteConfig(cmd.OutOrStdout(), rootOpts.Format, cache.Get(ctx), cache.Status())
		},
	}
}

func newAdminAuditCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Show recent administrator actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openTab(ctx, cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()

			entries, err := env.Client.AdminAuditLogs().List(ctx)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to load audit log", err)
			}
			w := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				if entries == nil {
					entries = []remote.AuditEntry{}
				}
				return writeJSON(w, entries)
			}
			rows := make([][]string, 0, len(entries))
			for _, en := range entries {
				rows = append(rows, []string{
					en.CreatedAt.Local().Format(time.DateTime),
					en.ActorUserID,
					en.Action,
					en.ResourceType + ":" + en.ResourceID,
				})
			}
			renderTable(w, []string{"AT", "ACTOR", "ACTION", "RESOURCE"}, rows)
			return nil
		},
	}
}

type productsOutput struct {
	Products []shop.Product `json:"products"`
	LowStock int            `json:"low_stock"`
}

func printProducts(w io.Writer, format string, products []shop.Product, lowStock int) error {
	if format == "json" {
		if products == nil {
			products = []shop.Product{}
		}
		return writeJSON(w, productsOutput{Products: products, LowStock: lowStock})
	}
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		active := "yes"
		if !p.IsActive {
			active = "no"
		}
		rows = append(rows, []string{p.ID, p.Name, p.Price.StringFixed(2), strconv.FormatInt(p.Stock, 10), active})
	}
	renderTable(w, []string{"ID", "NAME", "PRICE", "STOCK", "ACTIVE"}, rows)
	fmt.Fprintf(w, "%d product(s), %d low on stock\n", len(products), lowStock)
	return nil
}
