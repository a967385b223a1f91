// Package cli は storefront コマンド。1回の実行が1つのタブとして振る舞い、
// 同じローカルDBを開いた他のタブ（別プロセス）と状態を共有する。
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"storefront/internal/config"
	"storefront/internal/reconcile"
)

// RootOptions はすべてのコマンドに共通のフラグ。
type RootOptions struct {
	ConfigPath string
	APIURL     string
	LocalDB    string
	TokenFile  string
	TabID      string
	Policy     string
	Verbose    bool
	Format     string // "text" | "json"

	// PersistentPreRunE で設定ファイルとフラグから組み立てる
	Client config.Client
	Logger *slog.Logger
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand は storefront のルートコマンド。
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront client",
		Long: `A storefront client whose cart, favorites and site configuration stay
consistent across every tab (process) sharing the same local database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.ConfigPath, "config", config.DefaultClientPath(), "path to client.toml")
	pf.StringVar(&opts.APIURL, "api", "", "Remote Store base URL (overrides api_url)")
	pf.StringVar(&opts.LocalDB, "db", "", "path to the shared local SQLite file (overrides local_db)")
	pf.StringVar(&opts.TokenFile, "token-file", "", "path to the identity token file (overrides token_file)")
	pf.StringVar(&opts.TabID, "tab", "", "tab id (random when empty)")
	pf.StringVar(&opts.Policy, "policy", "", "cart merge policy: local-wins | max-quantity")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewCartCommand(opts))
	cmd.AddCommand(NewFavCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewAdminCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))

	return cmd
}

func (o *RootOptions) load(cmd *cobra.Command) error {
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	cfg, err := config.LoadClient(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	//フラグが優先
	if o.APIURL != "" {
		cfg.APIURL = o.APIURL
	}
	if o.LocalDB != "" {
		cfg.LocalDB = o.LocalDB
	}
	if o.TokenFile != "" {
		cfg.TokenFile = o.TokenFile
	}
	if o.Policy != "" {
		cfg.MergePolicy = o.Policy
	}
	if _, ok := reconcile.ParsePolicy(cfg.MergePolicy); !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown merge policy %q", cfg.MergePolicy))
	}
	o.Client = cfg

	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
