// Package cartsync はカートの同期ビュー。追加・数量変更・削除はすべて楽観的に反映し、
// リモートの失敗はローカルに残したままにする（次の読み直しで揃う）。
package cartsync

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/shop"
	"storefront/internal/identity"
	"storefront/internal/localstore"
	"storefront/internal/optimistic"
	"storefront/internal/reconcile"
	"storefront/internal/remote"
	"storefront/internal/syncerr"
	"storefront/internal/syncstate"
)

type Options struct {
	Local  localstore.Store
	Gate   identity.Gate
	Remote remote.CartStore
	Runner *optimistic.Runner
	Logger *slog.Logger
	Policy reconcile.MergePolicy
}

type Cart struct {
	col    *syncstate.Collection[shop.CartLine]
	remote remote.CartStore
	runner *optimistic.Runner
	logger *slog.Logger
}

func New(opts Options) *Cart {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runner := opts.Runner
	if runner == nil {
		runner = optimistic.NewRunner(logger)
	}

	c := &Cart{
		remote: opts.Remote,
		runner: runner,
		logger: logger.With("component", "cart"),
	}
	policy := opts.Policy
	c.col = syncstate.New(syncstate.Config[shop.CartLine]{
		Name:     "cart",
		LocalKey: localstore.KeyCart,
		Key:      shop.CartLine.Key,
		Valid:    shop.CartLine.Valid,
		Local:    opts.Local,
		Gate:     opts.Gate,
		Runner:   runner,
		Logger:   logger,
		List:     opts.Remote.List,
		Merge: func(local, remote []shop.CartLine) []shop.CartLine {
			return reconcile.MergeCart(local, remote, policy)
		},
		Push: c.push,
	})
	return c
}

func (c *Cart) Lines() []shop.CartLine {
	return c.col.Items()
}

// Count は数量の合計。
func (c *Cart) Count() int {
	return countOf(c.col.Items())
}

func (c *Cart) Total() decimal.Decimal {
	return totalOf(c.col.Items())
}

// OnChange は明細が変わるたびに、明細・個数・合計を渡す。
func (c *Cart) OnChange(fn func(lines []shop.CartLine, count int, total decimal.Decimal)) {
	c.col.OnChange(func(lines []shop.CartLine) {
		fn(lines, countOf(lines), totalOf(lines))
	})
}

func (c *Cart) Reload(ctx context.Context) error {
	return c.col.Reload(ctx)
}

// Add は商品を1つ追加する。既にあれば数量を増やす（行は増えない）。
func (c *Cart) Add(ctx context.Context, p shop.Product) *optimistic.Mutation {
	return c.AddQuantity(ctx, p, 1)
}

func (c *Cart) AddQuantity(ctx context.Context, p shop.Product, n int) *optimistic.Mutation {
	if n <= 0 || p.ID == "" {
		return optimistic.Settled("add to cart")
	}

	var (
		line    shop.CartLine
		existed bool
	)
	apply := func(lines []shop.CartLine) []shop.CartLine {
		for i := range lines {
			if lines[i].ProductID == p.ID {
				lines[i].Quantity += n
				line, existed = lines[i], true
				return lines
			}
		}
		line = shop.LineFor(p, n)
		return append(lines, line)
	}
	return c.col.Mutate(ctx, "add to cart", apply, func(ctx context.Context) error {
		return c.upsert(ctx, line, existed)
	})
}

// SetQuantity は数量を設定する。0以下なら行を削除する（0では保存しない）。
func (c *Cart) SetQuantity(ctx context.Context, productID string, qty int) *optimistic.Mutation {
	if qty <= 0 {
		return c.Remove(ctx, productID)
	}

	var (
		line  shop.CartLine
		found bool
	)
	apply := func(lines []shop.CartLine) []shop.CartLine {
		for i := range lines {
			if lines[i].ProductID == productID {
				lines[i].Quantity = qty
				line, found = lines[i], true
			}
		}
		return lines
	}
	return c.col.Mutate(ctx, "change quantity", apply, func(ctx context.Context) error {
		if !found {
			return nil
		}
		return c.upsert(ctx, line, true)
	})
}

func (c *Cart) Remove(ctx context.Context, productID string) *optimistic.Mutation {
	apply := func(lines []shop.CartLine) []shop.CartLine {
		out := lines[:0]
		for _, l := range lines {
			if l.ProductID != productID {
				out = append(out, l)
			}
		}
		return out
	}
	return c.col.Mutate(ctx, "remove from cart", apply, func(ctx context.Context) error {
		return c.remote.Remove(ctx, productID)
	})
}

func (c *Cart) Clear(ctx context.Context) *optimistic.Mutation {
	apply := func([]shop.CartLine) []shop.CartLine { return nil }
	return c.col.Mutate(ctx, "clear cart", apply, c.remote.Clear)
}

// Forget はローカルのカートだけを空にする。リモートには送らない（アカウント切り替え用）。
func (c *Cart) Forget(ctx context.Context) {
	c.col.Mutate(ctx, "forget cart", func([]shop.CartLine) []shop.CartLine { return nil }, nil)
}

// upsert はリモートの数量をlineに合わせる。
// 作成で409なら更新、更新で404なら作成に切り替える。
func (c *Cart) upsert(ctx context.Context, line shop.CartLine, existed bool) error {
	var (
		out shop.CartLine
		err error
	)
	if existed {
		out, err = c.remote.Update(ctx, line.ProductID, line.Quantity)
		if syncerr.KindOf(err) == syncerr.KindRemoteNotFound {
			out, err = c.remote.Create(ctx, line)
		}
	} else {
		out, err = c.remote.Create(ctx, line)
		if syncerr.KindOf(err) == syncerr.KindRemoteConflict {
			out, err = c.remote.Update(ctx, line.ProductID, line.Quantity)
		}
	}
	if err != nil {
		return err
	}

	// 表示データだけ反映する。数量はローカルのまま
	if out.ProductID != "" {
		c.col.Patch(out.ProductID, func(l shop.CartLine) shop.CartLine {
			if out.Name != "" {
				l.Name = out.Name
			}
			if !out.UnitPrice.IsZero() {
				l.UnitPrice = out.UnitPrice
			}
			if out.ImageRef != "" {
				l.ImageRef = out.ImageRef
			}
			return l
		})
	}
	return nil
}

// push は匿名セッション中に入れた分をアカウント側へ送る。
func (c *Cart) push(ctx context.Context, merged, remote []shop.CartLine) {
	diff := reconcile.DiffCart(merged, remote)
	if diff.Empty() {
		return
	}
	c.logger.Info("pushing local cart lines", "create", len(diff.Create), "update", len(diff.Update))

	for _, l := range diff.Create {
		line := l
		c.runner.Run(ctx, "sync cart line", optimistic.Tolerate, func(ctx context.Context) error {
			return c.upsert(ctx, line, false)
		}, nil)
	}
	for _, l := range diff.Update {
		line := l
		c.runner.Run(ctx, "sync cart line", optimistic.Tolerate, func(ctx context.Context) error {
			return c.upsert(ctx, line, true)
		}, nil)
	}
}

func countOf(lines []shop.CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func totalOf(lines []shop.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
