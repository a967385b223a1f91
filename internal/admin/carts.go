package admin

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/shop"
	"storefront/internal/notify"
	"storefront/internal/optimistic"
	"storefront/internal/remote"
)

type CartLinesOptions struct {
	Remote   remote.CartAdmin
	Runner   *optimistic.Runner
	Notifier notify.Notifier
	Logger   *slog.Logger
	UserID   string
}

// 読み込んだ順を作成順として持つ
type cartRow struct {
	line shop.CartLine
	pos  int
}

// CartLinesView は管理者から見たユーザー1人のカート。
type CartLinesView struct {
	list     *optimistic.List[cartRow]
	remote   remote.CartAdmin
	runner   *optimistic.Runner
	notifier notify.Notifier
	logger   *slog.Logger
	userID   string
}

func NewCartLinesView(opts CartLinesOptions) *CartLinesView {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	v := &CartLinesView{
		list: optimistic.NewList(
			func(r cartRow) string { return r.line.ProductID },
			func(a, b cartRow) bool { return a.pos < b.pos },
		),
		remote:   opts.Remote,
		runner:   opts.Runner,
		notifier: opts.Notifier,
		logger:   logger.With("component", "admin.carts", "user_id", opts.UserID),
		userID:   opts.UserID,
	}
	if v.runner == nil {
		v.runner = optimistic.NewRunner(logger)
	}
	if v.notifier == nil {
		v.notifier = notify.Discard{}
	}
	return v
}

func (v *CartLinesView) Load(ctx context.Context) error {
	lines, err := v.remote.ListLines(ctx, v.userID)
	if err != nil {
		v.logger.Warn("cart lines fetch failed", "error", err)
		return err
	}
	rows := make([]cartRow, 0, len(lines))
	for i, l := range lines {
		rows = append(rows, cartRow{line: l, pos: i})
	}
	v.list.Set(rows)
	return nil
}

func (v *CartLinesView) Lines() []shop.CartLine {
	rows := v.list.Items()
	out := make([]shop.CartLine, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.line)
	}
	return out
}

func (v *CartLinesView) Count() int {
	n := 0
	for _, l := range v.Lines() {
		n += l.Quantity
	}
	return n
}

func (v *CartLinesView) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range v.Lines() {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Delete は明細を即座に外し、失敗したら元の位置に戻して通知する。
func (v *CartLinesView) Delete(ctx context.Context, productID string) *optimistic.Mutation {
	return v.list.Remove(ctx, v.runner, "remove cart line", productID,
		func(ctx context.Context) error {
			return v.remote.RemoveLine(ctx, v.userID, productID)
		},
		func(r cartRow, err error) {
			subject := r.line.Name
			if subject == "" {
				subject = r.line.ProductID
			}
			v.notifier.Notify(notify.Failure("remove cart line", subject, err))
		},
	)
}
