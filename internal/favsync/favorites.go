// Package favsync はお気に入り（商品IDの集合）の同期ビュー。
package favsync

import (
	"context"
	"log/slog"
	"strings"

	"storefront/internal/identity"
	"storefront/internal/localstore"
	"storefront/internal/optimistic"
	"storefront/internal/reconcile"
	"storefront/internal/remote"
	"storefront/internal/syncstate"
)

type Options struct {
	Local  localstore.Store
	Gate   identity.Gate
	Remote remote.FavoriteStore
	Runner *optimistic.Runner
	Logger *slog.Logger
}

type Favorites struct {
	col    *syncstate.Collection[string]
	remote remote.FavoriteStore
	runner *optimistic.Runner
	logger *slog.Logger
}

func New(opts Options) *Favorites {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runner := opts.Runner
	if runner == nil {
		runner = optimistic.NewRunner(logger)
	}

	f := &Favorites{
		remote: opts.Remote,
		runner: runner,
		logger: logger.With("component", "favorites"),
	}
	f.col = syncstate.New(syncstate.Config[string]{
		Name:     "favorites",
		LocalKey: localstore.KeyFavorites,
		Key:      func(id string) string { return id },
		Valid:    func(id string) bool { return strings.TrimSpace(id) != "" },
		Local:    opts.Local,
		Gate:     opts.Gate,
		Runner:   runner,
		Logger:   logger,
		List:     opts.Remote.List,
		Merge:    reconcile.MergeIDs,
		Push:     f.push,
	})
	return f
}

// IDs はお気に入りの商品ID（追加順）。
func (f *Favorites) IDs() []string {
	return f.col.Items()
}

// Set はメンバー判定用の集合。
func (f *Favorites) Set() map[string]struct{} {
	ids := f.col.Items()
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func (f *Favorites) Has(productID string) bool {
	_, ok := f.Set()[productID]
	return ok
}

func (f *Favorites) OnChange(fn func(ids []string)) {
	f.col.OnChange(fn)
}

func (f *Favorites) Reload(ctx context.Context) error {
	return f.col.Reload(ctx)
}

// Toggle は入っていれば外し、無ければ入れる。
func (f *Favorites) Toggle(ctx context.Context, productID string) *optimistic.Mutation {
	if f.Has(productID) {
		return f.Remove(ctx, productID)
	}
	return f.Add(ctx, productID)
}

// Add は冪等。既に入っていても1件のまま（409は成功扱い）。
func (f *Favorites) Add(ctx context.Context, productID string) *optimistic.Mutation {
	apply := func(ids []string) []string {
		for _, id := range ids {
			if id == productID {
				return ids
			}
		}
		return append(ids, productID)
	}
	return f.col.Mutate(ctx, "add favorite", apply, func(ctx context.Context) error {
		return f.remote.Create(ctx, productID)
	})
}

func (f *Favorites) Remove(ctx context.Context, productID string) *optimistic.Mutation {
	apply := func(ids []string) []string {
		out := ids[:0]
		for _, id := range ids {
			if id != productID {
				out = append(out, id)
			}
		}
		return out
	}
	return f.col.Mutate(ctx, "remove favorite", apply, func(ctx context.Context) error {
		return f.remote.Remove(ctx, productID)
	})
}

// Forget はローカルのお気に入りだけを空にする。リモートには送らない。
func (f *Favorites) Forget(ctx context.Context) {
	f.col.Mutate(ctx, "forget favorites", func([]string) []string { return nil }, nil)
}

func (f *Favorites) push(ctx context.Context, merged, remote []string) {
	missing := reconcile.DiffIDs(merged, remote)
	if len(missing) == 0 {
		return
	}
	f.logger.Info("pushing local favorites", "count", len(missing))

	for _, id := range missing {
		productID := id
		f.runner.Run(ctx, "sync favorite", optimistic.Tolerate, func(ctx context.Context) error {
			return f.remote.Create(ctx, productID)
		}, nil)
	}
}
