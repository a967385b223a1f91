// Package admin は管理画面のビュー。削除は楽観的に反映し、
// Remote Storeが拒否したら元の位置に戻して通知する。
package admin

import (
	"context"
	"log/slog"
	"sync"

	"storefront/internal/domain/shop"
	"storefront/internal/notify"
	"storefront/internal/optimistic"
	"storefront/internal/remote"
)

const defaultLowStockThreshold = 5

type ProductsOptions struct {
	Remote   remote.ProductAdmin
	Runner   *optimistic.Runner
	Notifier notify.Notifier
	Logger   *slog.Logger
	// LowStockThreshold 以下の在庫を「少ない」と数える
	LowStockThreshold int64
}

type ProductsView struct {
	list      *optimistic.List[shop.Product]
	remote    remote.ProductAdmin
	runner    *optimistic.Runner
	notifier  notify.Notifier
	logger    *slog.Logger
	threshold int64

	mu       sync.Mutex
	lowStock int
}

func NewProductsView(opts ProductsOptions) *ProductsView {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	v := &ProductsView{
		list:      optimistic.NewList(shop.Product.Key, productBefore),
		remote:    opts.Remote,
		runner:    opts.Runner,
		notifier:  opts.Notifier,
		logger:    logger.With("component", "admin.products"),
		threshold: opts.LowStockThreshold,
	}
	if v.runner == nil {
		v.runner = optimistic.NewRunner(logger)
	}
	if v.notifier == nil {
		v.notifier = notify.Discard{}
	}
	if v.threshold <= 0 {
		v.threshold = defaultLowStockThreshold
	}
	// 集計は常に今の一覧から作り直す
	v.list.OnChange(func(items []shop.Product) {
		n := countLowStock(items, v.threshold)
		v.mu.Lock()
		v.lowStock = n
		v.mu.Unlock()
	})
	return v
}

// 作成日時順。同時刻はIDで決める
func productBefore(a, b shop.Product) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func countLowStock(items []shop.Product, threshold int64) int {
	n := 0
	for _, p := range items {
		if p.IsActive && p.Stock <= threshold {
			n++
		}
	}
	return n
}

func (v *ProductsView) Load(ctx context.Context) error {
	items, err := v.remote.List(ctx)
	if err != nil {
		v.logger.Warn("product list failed", "error", err)
		return err
	}
	v.list.Set(items)
	return nil
}

func (v *ProductsView) Products() []shop.Product {
	return v.list.Items()
}

// LowStock は在庫が少ない商品の数。
func (v *ProductsView) LowStock() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lowStock
}

func (v *ProductsView) OnChange(fn func([]shop.Product)) {
	v.list.OnChange(fn)
}

// Delete は商品を一覧から即座に外し、削除をRemote Storeに送る。
// 失敗したら元の位置に戻し、商品名入りで通知する。
func (v *ProductsView) Delete(ctx context.Context, productID string) *optimistic.Mutation {
	return v.list.Remove(ctx, v.runner, "delete product", productID,
		func(ctx context.Context) error {
			return v.remote.Delete(ctx, productID)
		},
		func(p shop.Product, err error) {
			v.notifier.Notify(notify.Failure("delete product", p.Name, err))
		},
	)
}
