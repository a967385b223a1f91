// Package configcache はサイト設定の読み取りキャッシュ。
//
// 同時に呼ばれた Get は1回の取得を共有する（singleflight）。
// 取得に失敗しても呼び出し側にはエラーを返さず、前回の値か既定値を返す。
// 書き込みは常にRemote Storeへ行い、ここには書かない。
package configcache

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"storefront/internal/broadcast"
	"storefront/internal/domain/shop"
)

type Status int

const (
	Uninitialized Status = iota
	Fetching
	Fresh
	Stale
)

func (s Status) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Fetching:
		return "fetching"
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

const flightKey = "site-config"

// Source はサイト設定の取得元。remote.SiteConfig が実装する。
type Source interface {
	Get(ctx context.Context) (shop.SiteConfig, error)
}

type Cache struct {
	src    Source
	def    shop.SiteConfig
	logger *slog.Logger
	group  singleflight.Group

	fetches atomic.Int64

	mu       sync.Mutex
	status   Status
	value    *shop.SiteConfig
	lastErr  error
	gen      uint64
	onChange []func(shop.SiteConfig)
}

type Option func(*Cache)

// WithDefault は一度も取得できていないときに返す値。
func WithDefault(def shop.SiteConfig) Option {
	return func(c *Cache) { c.def = def }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

func New(src Source, opts ...Option) *Cache {
	c := &Cache{src: src, def: shop.DefaultSiteConfig, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "configcache")
	return c
}

// Get は設定を返す。Freshならキャッシュ、それ以外は取得する（同時呼び出しは1回に束ねる）。
// ctxが先に終わったら、その時点で一番良い値を返す。
func (c *Cache) Get(ctx context.Context) shop.SiteConfig {
	c.mu.Lock()
	if c.status == Fresh && c.value != nil {
		v := *c.value
		c.mu.Unlock()
		return v
	}
	c.status = Fetching
	c.mu.Unlock()

	// 呼び出し元の1つがキャンセルしても共有中の取得は止めない
	bg := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		return c.fetch(bg), nil
	})

	select {
	case res := <-ch:
		return res.Val.(shop.SiteConfig)
	case <-ctx.Done():
		return c.Value()
	}
}

// Refresh は取得中ならそれを共有し、そうでなければ無効化して取り直す。
func (c *Cache) Refresh(ctx context.Context) shop.SiteConfig {
	c.mu.Lock()
	fetching := c.status == Fetching
	c.mu.Unlock()

	if !fetching {
		c.Invalidate()
	}
	return c.Get(ctx)
}

// Invalidate は次の Get で取り直させる。ここでは取得しない。
// 取得中に呼ばれた場合、その結果は Stale として扱う。
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	switch c.status {
	case Fresh:
		c.status = Stale
	case Fetching:
		// 取得結果は gen で古いと判定される
	}
}

func (c *Cache) fetch(ctx context.Context) shop.SiteConfig {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	c.fetches.Add(1)
	cfg, err := c.src.Get(ctx)

	c.mu.Lock()
	if err != nil {
		c.lastErr = err
		// キャッシュが無くても Stale。値は既定値になる
		c.status = Stale
		v, cached := c.bestLocked(), c.value != nil
		c.mu.Unlock()

		c.logger.Warn("site config fetch failed, serving fallback", "error", err, "has_cache", cached)
		return v
	}

	c.lastErr = nil
	changed := c.value == nil || !sameConfig(*c.value, cfg)
	c.value = &cfg
	if c.gen == gen {
		c.status = Fresh
	} else {
		c.status = Stale
	}
	fns := slices.Clone(c.onChange)
	c.mu.Unlock()

	if changed {
		for _, fn := range fns {
			fn(cfg)
		}
	}
	return cfg
}

func (c *Cache) bestLocked() shop.SiteConfig {
	if c.value != nil {
		return *c.value
	}
	return c.def
}

// Value は今ある一番良い値（キャッシュ、無ければ既定値）。取得はしない。
func (c *Cache) Value() shop.SiteConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bestLocked()
}

func (c *Cache) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Loading は取得中か。
func (c *Cache) Loading() bool {
	return c.Status() == Fetching
}

// LastError は直近の取得失敗。成功すればnilに戻る。
func (c *Cache) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Fetches はこれまでに取得元を呼んだ回数。
func (c *Cache) Fetches() int64 {
	return c.fetches.Load()
}

// OnChange は取得した値が前回と変わったときに呼ばれる。
func (c *Cache) OnChange(fn func(shop.SiteConfig)) {
	c.mu.Lock()
	c.onChange = append(c.onChange, fn)
	c.mu.Unlock()
}

// Bind は同一タブのイベントとタブ間チャネルのサイト設定通知で無効化する。
// afterはそれぞれの無効化の後に呼ばれる（再描画のきっかけ用。nil可）。
func (c *Cache) Bind(bus *broadcast.Bus, ch broadcast.Channel, after func()) (unbind func()) {
	var offs []func()
	if bus != nil {
		offs = append(offs, bus.On(broadcast.TopicSiteConfig, func(broadcast.Event) {
			c.Invalidate()
			if after != nil {
				after()
			}
		}))
	}
	if ch != nil {
		offs = append(offs, ch.Subscribe(func(m broadcast.Message) {
			if m.Topic != broadcast.TopicSiteConfig {
				return
			}
			c.logger.Debug("site config changed in another tab", "key", m.Key, "origin", m.Origin)
			c.Invalidate()
			if after != nil {
				after()
			}
		}))
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

func sameConfig(a, b shop.SiteConfig) bool {
	return a.SiteName == b.SiteName && a.LogoURL() == b.LogoURL() && (a.SiteLogoURL == nil) == (b.SiteLogoURL == nil)
}
