// Package syncstate はカートとお気に入りに共通する同期エンジン。
//
// メモリ上のビューは常に「ローカル∪リモート」を突き合わせた結果で、
// 変更は optimistic の手順（同期的にローカル反映 → 裏でリモート）で行う。
package syncstate

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"storefront/internal/identity"
	"storefront/internal/localstore"
	"storefront/internal/optimistic"
)

// Config はCollectionの依存。List/Merge/Key/Local/Gate/Runnerは必須。
type Config[T any] struct {
	// Name はログ用
	Name string
	// LocalKey はLocal Storeのキー
	LocalKey string

	Key   func(T) string
	Valid func(T) bool

	Local  localstore.Store
	Gate   identity.Gate
	Runner *optimistic.Runner
	Logger *slog.Logger

	// List はRemote Storeの一覧（ログイン中のみ呼ばれる）
	List func(ctx context.Context) ([]T, error)
	// Merge はローカルとリモートを1つにする
	Merge func(local, remote []T) []T
	// Push はマージ結果のうちリモートに無い分を送る（任意）
	Push func(ctx context.Context, merged, remote []T)
}

type Collection[T any] struct {
	cfg    Config[T]
	logger *slog.Logger

	mu       sync.Mutex
	items    []T
	loaded   bool
	onChange []func([]T)

	// seq は削除ごとに進む。removed は削除したキーと、そのときのseq。
	seq     uint64
	removed map[string]*removal
}

// removal は削除済みのキー。pending はリモート呼び出しが終わっていない数。
type removal struct {
	seq     uint64
	pending int
}

func New[T any](cfg Config[T]) *Collection[T] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Valid == nil {
		cfg.Valid = func(T) bool { return true }
	}
	return &Collection[T]{
		cfg:     cfg,
		logger:  logger.With("component", "syncstate", "collection", cfg.Name),
		removed: map[string]*removal{},
	}
}

// Items は今のビューのコピー。
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Loaded は一度でもReloadしたか。
func (c *Collection[T]) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Authenticated はリモートを使えるか。
func (c *Collection[T]) Authenticated() bool {
	return c.cfg.Gate.CurrentIdentity() != nil
}

// OnChange はビューが変わるたびに呼ばれる。
func (c *Collection[T]) OnChange(fn func([]T)) {
	c.mu.Lock()
	c.onChange = append(c.onChange, fn)
	c.mu.Unlock()
}

// Mutate はapplyでビューを変え、Local Storeへ書いてから、callを裏で実行する。
// 未ログインまたはcallがnilならリモートは呼ばずにConfirmedを返す。
// 失敗してもローカルの状態は残す（Degraded）。
// applyで消えたキーは、callが終わるまでと、その前に始まったReloadでは
// リモートの一覧から除く（削除が遅れて届く一覧に負けない）。
func (c *Collection[T]) Mutate(ctx context.Context, action string, apply func([]T) []T, call func(context.Context) error) *optimistic.Mutation {
	c.mu.Lock()
	prev := c.items
	next := c.sanitize(apply(append([]T(nil), prev...)))
	gone := c.goneKeys(prev, next)
	c.markRemovedLocked(gone)
	c.items = next
	c.writeLocal(next)
	c.mu.Unlock()
	c.changed()

	if call == nil || !c.Authenticated() {
		c.settleRemoved(gone)
		return optimistic.Settled(action)
	}
	return c.cfg.Runner.Run(ctx, action, optimistic.Tolerate, call, func(*optimistic.Mutation) {
		c.settleRemoved(gone)
	})
}

// goneKeys はprevにあってnextに無いキー。
func (c *Collection[T]) goneKeys(prev, next []T) []string {
	keep := make(map[string]struct{}, len(next))
	for _, it := range next {
		keep[c.cfg.Key(it)] = struct{}{}
	}
	var gone []string
	for _, it := range prev {
		k := c.cfg.Key(it)
		if _, ok := keep[k]; !ok {
			gone = append(gone, k)
		}
	}
	return gone
}

func (c *Collection[T]) markRemovedLocked(keys []string) {
	if len(keys) == 0 {
		return
	}
	c.seq++
	for _, k := range keys {
		r := c.removed[k]
		if r == nil {
			r = &removal{}
			c.removed[k] = r
		}
		r.seq = c.seq
		r.pending++
	}
}

func (c *Collection[T]) settleRemoved(keys []string) {
	if len(keys) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		if r := c.removed[k]; r != nil && r.pending > 0 {
			r.pending--
		}
	}
}

// withoutRemovedLocked はstart以降に消したキーと、削除がまだ終わっていないキーを落とす。
func (c *Collection[T]) withoutRemovedLocked(items []T, start uint64) []T {
	if len(c.removed) == 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if r := c.removed[c.cfg.Key(it)]; r != nil && (r.pending > 0 || r.seq > start) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// pruneRemovedLocked はstartまでに終わった削除を忘れる。
func (c *Collection[T]) pruneRemovedLocked(start uint64) {
	for k, r := range c.removed {
		if r.pending == 0 && r.seq <= start {
			delete(c.removed, k)
		}
	}
}

// Patch はkeyの要素がまだあるときだけfnで置き換える。
// 遅れて届いた確定結果で、ユーザーが消した要素を復活させないため。
func (c *Collection[T]) Patch(key string, fn func(T) T) bool {
	c.mu.Lock()
	found := false
	for i, it := range c.items {
		if c.cfg.Key(it) == key {
			c.items[i] = fn(it)
			found = true
			break
		}
	}
	if found {
		c.items = c.sanitize(c.items)
		c.writeLocal(c.items)
	}
	c.mu.Unlock()

	if found {
		c.changed()
	}
	return found
}

// Reload はLocal Storeとリモートを読み直してビューを作り直す。
// リモートを先に取得し、ローカルはロックを取ってから読む（待っている間の変更を失わない）。
// リモートの失敗はローカルのみのビューを反映したうえで返す。
func (c *Collection[T]) Reload(ctx context.Context) error {
	var (
		remote   []T
		remoteOK bool
		fetchErr error
	)
	c.mu.Lock()
	start := c.seq
	c.mu.Unlock()

	if c.Authenticated() {
		remote, fetchErr = c.cfg.List(ctx)
		if fetchErr != nil {
			c.logger.Warn("remote list failed, using local snapshot", "error", fetchErr)
		} else {
			remoteOK = true
		}
	}

	c.mu.Lock()
	if remoteOK {
		remote = c.withoutRemovedLocked(remote, start)
		c.pruneRemovedLocked(start)
	}
	local, _ := localstore.ReadJSON[[]T](c.cfg.Local, c.cfg.LocalKey, c.logger)
	merged := c.sanitize(c.cfg.Merge(local, remote))
	c.items = merged
	c.loaded = true
	c.writeLocal(merged)
	c.mu.Unlock()
	c.changed()

	if remoteOK && c.cfg.Push != nil {
		c.cfg.Push(ctx, append([]T(nil), merged...), remote)
	}
	return fetchErr
}

// sanitize は不正な要素と重複キーを落とす。
func (c *Collection[T]) sanitize(items []T) []T {
	out := make([]T, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if !c.cfg.Valid(it) {
			continue
		}
		k := c.cfg.Key(it)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

func (c *Collection[T]) writeLocal(items []T) {
	localstore.SyncJSON(c.cfg.Local, c.cfg.LocalKey, items, c.logger)
}

func (c *Collection[T]) changed() {
	c.mu.Lock()
	items := append([]T(nil), c.items...)
	fns := slices.Clone(c.onChange)
	c.mu.Unlock()

	for _, fn := range fns {
		fn(items)
	}
}
