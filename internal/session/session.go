// Package session は1つのタブ（CLIの1プロセス、ブラウザの1タブに相当）を組み立てる。
//
// 読み直しのきっかけ:
//   - 起動時
//   - 他タブによるLocal Storeの書き換え
//   - タブ間チャネルの cart / favorites 通知
//   - Identity Gate の変化（ログイン・ユーザー切り替え・ログアウト）
//   - 定期リフレッシュ
//
// サイト設定は同一タブのイベントかチャネル通知で無効化し、次の取得で取り直す。
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"storefront/internal/broadcast"
	"storefront/internal/cartsync"
	"storefront/internal/configcache"
	"storefront/internal/favsync"
	"storefront/internal/identity"
	"storefront/internal/localstore"
	"storefront/internal/notify"
	"storefront/internal/optimistic"
	"storefront/internal/poller"
	"storefront/internal/reconcile"
	"storefront/internal/remote"
)

const defaultIdentityPoll = time.Second

type Options struct {
	// TabID が空なら生成する
	TabID string

	Local   localstore.Store
	Channel broadcast.Channel
	Gate    identity.Gate

	Carts      remote.CartStore
	Favorites  remote.FavoriteStore
	SiteConfig configcache.Source

	Policy reconcile.MergePolicy
	// Refresh はカート・お気に入り・サイト設定の定期リフレッシュ
	Refresh poller.Policy
	// IdentityPoll はIdentity Gateを見に行く間隔
	IdentityPoll time.Duration

	Notifier notify.Notifier
	Logger   *slog.Logger
}

type Tab struct {
	ID         string
	Cart       *cartsync.Cart
	Favorites  *favsync.Favorites
	SiteConfig *configcache.Cache
	Bus        *broadcast.Bus
	Runner     *optimistic.Runner
	Notifier   notify.Notifier

	local   localstore.Store
	channel broadcast.Channel
	gate    identity.Gate
	logger  *slog.Logger

	syncLoop   *poller.Poller
	configLoop *poller.Poller
	identLoop  *poller.Poller
	identPoll  time.Duration

	mu     sync.Mutex
	ident  *identity.Identity
	unsubs []func()
	cancel context.CancelFunc
}

func New(opts Options) *Tab {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := opts.TabID
	if id == "" {
		id = uuid.NewString()
	}
	logger = logger.With("tab", id)

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Discard{}
	}
	runner := optimistic.NewRunner(logger)

	t := &Tab{
		ID:        id,
		Bus:       &broadcast.Bus{},
		Runner:    runner,
		Notifier:  notifier,
		local:     opts.Local,
		channel:   opts.Channel,
		gate:      opts.Gate,
		logger:    logger.With("component", "session"),
		identPoll: opts.IdentityPoll,
	}
	if t.identPoll <= 0 {
		t.identPoll = defaultIdentityPoll
	}

	t.Cart = cartsync.New(cartsync.Options{
		Local:  opts.Local,
		Gate:   opts.Gate,
		Remote: opts.Carts,
		Runner: runner,
		Logger: logger,
		Policy: opts.Policy,
	})
	t.Favorites = favsync.New(favsync.Options{
		Local:  opts.Local,
		Gate:   opts.Gate,
		Remote: opts.Favorites,
		Runner: runner,
		Logger: logger,
	})
	t.SiteConfig = configcache.New(opts.SiteConfig, configcache.WithLogger(logger))

	t.syncLoop = poller.New(opts.Refresh, t.reload)
	t.configLoop = poller.New(opts.Refresh, func(ctx context.Context) {
		t.SiteConfig.Refresh(ctx)
	})
	t.identLoop = poller.New(poller.Policy{Interval: t.identPoll}, t.checkIdentity)
	return t
}

// Start は初回の読み込みを行い、監視を始める。
// 初回の失敗はローカルのみのビューで続行し、最初のエラーを返す。
func (t *Tab) Start(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	t.mu.Lock()
	t.cancel = cancel
	t.ident = t.gate.CurrentIdentity()
	t.mu.Unlock()

	err := t.initialLoad(ctx)

	t.mu.Lock()
	t.unsubs = append(t.unsubs,
		t.local.Subscribe(t.onLocalChange),
		t.SiteConfig.Bind(t.Bus, t.channel, t.configLoop.Trigger),
	)
	if t.channel != nil {
		t.unsubs = append(t.unsubs, t.channel.Subscribe(t.onMessage))
	}
	t.mu.Unlock()

	t.syncLoop.Start(loopCtx)
	t.configLoop.Start(loopCtx)
	t.identLoop.Start(loopCtx)
	return err
}

func (t *Tab) initialLoad(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return t.Cart.Reload(gctx) })
	g.Go(func() error { return t.Favorites.Reload(gctx) })
	g.Go(func() error {
		t.SiteConfig.Get(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		t.logger.Warn("initial load incomplete, using local state", "error", err)
		return err
	}
	return nil
}

// Focus はタブが前面に来たときの読み直し。
func (t *Tab) Focus() {
	t.syncLoop.Trigger()
}

// Identity はこのタブが最後に見たIdentity。
func (t *Tab) Identity() *identity.Identity {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ident
}

func (t *Tab) onLocalChange(key string) {
	switch key {
	case localstore.KeyCart, localstore.KeyFavorites:
		t.logger.Debug("local store changed by another tab", "key", key)
		t.syncLoop.Trigger()
	}
}

func (t *Tab) onMessage(m broadcast.Message) {
	switch m.Topic {
	case broadcast.TopicCart, broadcast.TopicFavorites:
		t.logger.Debug("sync requested by another tab", "topic", m.Topic, "origin", m.Origin)
		t.syncLoop.Trigger()
	}
}

func (t *Tab) checkIdentity(ctx context.Context) {
	cur := t.gate.CurrentIdentity()

	t.mu.Lock()
	prev := t.ident
	changed := !identity.Same(prev, cur)
	t.ident = cur
	t.mu.Unlock()

	if !changed {
		return
	}
	t.logger.Info("identity changed", "authenticated", cur != nil)
	if prev != nil && cur != nil && prev.UserID != cur.UserID {
		// 別ユーザーのカートを引き継がない
		t.logger.Info("account switched, dropping local snapshot")
		t.Cart.Forget(ctx)
		t.Favorites.Forget(ctx)
	}
	t.syncLoop.Trigger()
}

func (t *Tab) reload(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return t.Cart.Reload(gctx) })
	g.Go(func() error { return t.Favorites.Reload(gctx) })
	if err := g.Wait(); err != nil {
		t.logger.Debug("reload incomplete", "error", err)
	}
}

// Close は監視を止め、実行中のリモート呼び出しが終わるのを待つ。
func (t *Tab) Close(ctx context.Context) error {
	t.mu.Lock()
	unsubs := t.unsubs
	t.unsubs = nil
	cancel := t.cancel
	t.mu.Unlock()

	for _, off := range unsubs {
		off()
	}
	if cancel != nil {
		cancel()
	}
	// ループが新しい変更を積まなくなってから待ち切る
	for _, l := range []*poller.Poller{t.syncLoop, t.configLoop, t.identLoop} {
		if err := l.Wait(ctx); err != nil {
			return err
		}
	}
	return t.Runner.Drain(ctx)
}
