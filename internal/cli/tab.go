package cli

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"storefront/internal/broadcast"
	"storefront/internal/identity"
	"storefront/internal/infra/sqlite"
	"storefront/internal/localstore"
	"storefront/internal/notify"
	"storefront/internal/poller"
	"storefront/internal/reconcile"
	"storefront/internal/remote"
	"storefront/internal/session"
)

const closeTimeout = 15 * time.Second

// tabEnv は1回の実行で開くタブとその周辺。
type tabEnv struct {
	Tab      *session.Tab
	Client   *remote.Client
	Gate     *identity.TokenGate
	Channel  *broadcast.SQLiteChannel
	Notifier notify.Notifier

	db     *sql.DB
	cancel context.CancelFunc
}

// openTab はローカルDB・タブ間チャネル・Remote Storeをつないでタブを起動する。
// Remote Storeに届かなくてもローカルの状態で続行する。
func openTab(ctx context.Context, cmd *cobra.Command, opts *RootOptions) (*tabEnv, error) {
	cfg := opts.Client
	logger := opts.Logger

	db, err := sqlite.Open(cfg.LocalDB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open local database", err)
	}

	gate, err := identity.LoadTokenFile(cfg.TokenFile)
	if err != nil {
		db.Close()
		return nil, WrapExitError(ExitCommandError, "failed to read token", err)
	}

	client, err := remote.NewClient(cfg.APIURL, gate)
	if err != nil {
		db.Close()
		return nil, WrapExitError(ExitCommandError, "invalid api url", err)
	}

	tabID := opts.TabID
	if tabID == "" {
		tabID = "cli-" + uuid.NewString()
	}
	policy, _ := reconcile.ParsePolicy(cfg.MergePolicy)

	runCtx, cancel := context.WithCancel(ctx)
	store := localstore.NewSQLiteStore(db, tabID, logger)
	store.Watch(runCtx, cfg.WatchInterval.Duration)
	channel := broadcast.NewSQLiteChannel(db, tabID, logger)
	channel.Run(runCtx, cfg.WatchInterval.Duration)

	notifier := notify.NewTerminal(cmd.ErrOrStderr())
	tab := session.New(session.Options{
		TabID:      tabID,
		Local:      store,
		Channel:    channel,
		Gate:       gate,
		Carts:      client.Carts(),
		Favorites:  client.Favorites(),
		SiteConfig: client.SiteConfig(),
		Policy:     policy,
		Refresh:    poller.Policy{Interval: cfg.RefreshInterval.Duration},
		Notifier:   notifier,
		Logger:     logger,
	})
	if err := tab.Start(runCtx); err != nil {
		logger.Warn("remote store unavailable, showing local state", "error", err)
	}

	return &tabEnv{
		Tab:      tab,
		Client:   client,
		Gate:     gate,
		Channel:  channel,
		Notifier: notifier,
		db:       db,
		cancel:   cancel,
	}, nil
}

// Close は実行中のリモート呼び出しを待ってから閉じる。
func (e *tabEnv) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	err := e.Tab.Close(ctx)
	e.cancel()
	if cerr := e.db.Close(); err == nil {
		err = cerr
	}
	return err
}
