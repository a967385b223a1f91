package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"storefront/internal/configcache"
	"storefront/internal/domain/shop"
)

// NewConfigCommand は config サブコマンド群（サイト設定の表示）。
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the site configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the cached site configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(cmd, rootOpts, false)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Fetch the site configuration from the Remote Store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(cmd, rootOpts, true)
		},
	})

	return cmd
}

func runConfig(cmd *cobra.Command, opts *RootOptions, refresh bool) error {
	ctx := cmd.Context()
	env, err := openTab(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer env.Close()

	cache := env.Tab.SiteConfig
	var cfg shop.SiteConfig
	if refresh {
		cfg = cache.Refresh(ctx)
	} else {
		cfg = cache.Get(ctx)
	}
	return printSiteConfig(cmd.OutOrStdout(), opts.Format, cfg, cache.Status())
}

func printSiteConfig(w io.Writer, format string, cfg shop.SiteConfig, status configcache.Status) error {
	if format == "json" {
		return writeJSON(w, struct {
			shop.SiteConfig
			Status string `json:"status"`
		}{cfg, status.String()})
	}
	logo := cfg.LogoURL()
	if logo == "" {
		logo = "-"
	}
	renderTable(w, []string{"KEY", "VALUE"}, [][]string{
		{shop.SiteConfigKeyName, cfg.SiteName},
		{shop.SiteConfigKeyLogo, logo},
	})
	fmt.Fprintf(w, "status: %s\n", status)
	return nil
}
