package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"storefront/internal/domain/shop"
	"storefront/internal/optimistic"
)

// 確定を待つ上限。超えた分はCloseのDrainで待つ。
const settleTimeout = 10 * time.Second

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func renderTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCompactJSON(w io.Writer, v interface{}) error {
	return json.NewEncoder(w).Encode(v)
}

type cartView struct {
	Lines []shop.CartLine `json:"lines"`
	Count int             `json:"count"`
	Total string          `json:"total"`
}

func printCart(w io.Writer, format string, lines []shop.CartLine, count int, total decimal.Decimal) error {
	if format == "json" {
		if lines == nil {
			lines = []shop.CartLine{}
		}
		return writeJSON(w, cartView{Lines: lines, Count: count, Total: total.StringFixed(2)})
	}
	if len(lines) == 0 {
		fmt.Fprintln(w, "Cart is empty.")
		return nil
	}
	rows := make([][]string, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, []string{
			l.ProductID,
			l.Name,
			strconv.Itoa(l.Quantity),
			l.UnitPrice.StringFixed(2),
			l.Subtotal().StringFixed(2),
		})
	}
	renderTable(w, []string{"PRODUCT", "NAME", "QTY", "UNIT", "SUBTOTAL"}, rows)
	fmt.Fprintf(w, "%d item(s), total %s\n", count, total.StringFixed(2))
	return nil
}

// settle はミューテーションの確定を待って結果を表示する。取り消されたらExitFailure。
func settle(ctx context.Context, w io.Writer, m *optimistic.Mutation) error {
	waitCtx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()

	state, err := m.Wait(waitCtx)
	switch state {
	case optimistic.Confirmed:
		return nil
	case optimistic.Degraded:
		fmt.Fprintf(w, "saved locally; the Remote Store did not accept it yet (%v)\n", err)
		return nil
	case optimistic.RolledBack:
		return WrapExitError(ExitFailure, m.Action+" was undone", err)
	default:
		fmt.Fprintln(w, "still pending; waiting for it before exit")
		return nil
	}
}
