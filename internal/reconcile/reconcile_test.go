package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"storefront/internal/domain/shop"
)

func line(id string, qty int) shop.CartLine {
	return shop.CartLine{ProductID: id, Quantity: qty, UnitPrice: decimal.NewFromInt(1)}
}

func quantities(ls []shop.CartLine) map[string]int {
	out := map[string]int{}
	for _, l := range ls {
		out[l.ProductID] = l.Quantity
	}
	return out
}

func TestMergeCart_LocalWinsOnOverlap(t *testing.T) {
	local := []shop.CartLine{line("A", 2)}
	remote := []shop.CartLine{line("A", 1), line("B", 3)}

	got := MergeCart(local, remote, LocalWins)

	assert.Equal(t, map[string]int{"A": 2, "B": 3}, quantities(got))
	assert.Equal(t, "A", got[0].ProductID)
	assert.Equal(t, "B", got[1].ProductID)
}

func TestMergeCart_MaxQuantity(t *testing.T) {
	local := []shop.CartLine{line("A", 2), line("C", 5)}
	remote := []shop.CartLine{line("A", 4), line("C", 1)}

	got := MergeCart(local, remote, MaxQuantity)
	assert.Equal(t, map[string]int{"A": 4, "C": 5}, quantities(got))
}

func TestMergeCart_DropsInvalidAndDuplicates(t *testing.T) {
	local := []shop.CartLine{line("A", 0), line("B", 1), line("B", 9), line("", 1)}
	remote := []shop.CartLine{line("A", 2), line("C", -1)}

	got := MergeCart(local, remote, LocalWins)
	assert.Equal(t, map[string]int{"A": 2, "B": 1}, quantities(got))
	for _, l := range got {
		assert.GreaterOrEqual(t, l.Quantity, 1)
	}
}

func TestMergeCart_RemoteDisplayDataWins(t *testing.T) {
	local := []shop.CartLine{{ProductID: "A", Quantity: 1, Name: "old", UnitPrice: decimal.NewFromInt(5)}}
	remote := []shop.CartLine{{ProductID: "A", Quantity: 3, Name: "new", UnitPrice: decimal.RequireFromString("6.50")}}

	got := MergeCart(local, remote, LocalWins)
	assert.Equal(t, 1, got[0].Quantity)
	assert.Equal(t, "new", got[0].Name)
	assert.Equal(t, "6.50", got[0].UnitPrice.StringFixed(2))
}

func TestMergeCart_Empty(t *testing.T) {
	assert.Empty(t, MergeCart(nil, nil, LocalWins))
	assert.Equal(t, map[string]int{"B": 1}, quantities(MergeCart(nil, []shop.CartLine{line("B", 1)}, LocalWins)))
}

func TestMergeIDs(t *testing.T) {
	got := MergeIDs([]string{"a", "b", "a"}, []string{"b", "c", ""})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestDiffCart(t *testing.T) {
	merged := []shop.CartLine{line("A", 2), line("B", 3), line("C", 1)}
	remote := []shop.CartLine{line("A", 1), line("B", 3)}

	p := DiffCart(merged, remote)
	assert.Equal(t, []string{"C"}, keys(p.Create))
	assert.Equal(t, []string{"A"}, keys(p.Update))
	assert.False(t, p.Empty())
	assert.True(t, DiffCart(remote, remote).Empty())
}

func TestDiffIDs(t *testing.T) {
	assert.Equal(t, []string{"x"}, DiffIDs([]string{"a", "x"}, []string{"a", "b"}))
	assert.Empty(t, DiffIDs([]string{"a"}, []string{"a"}))
}

func TestParsePolicy(t *testing.T) {
	p, ok := ParsePolicy("max-quantity")
	assert.True(t, ok)
	assert.Equal(t, MaxQuantity, p)

	p, ok = ParsePolicy("")
	assert.True(t, ok)
	assert.Equal(t, LocalWins, p)

	_, ok = ParsePolicy("remote-wins")
	assert.False(t, ok)
	assert.Equal(t, "max-quantity", MaxQuantity.String())
}

func keys(ls []shop.CartLine) []string {
	var out []string
	for _, l := range ls {
		out = append(out, l.ProductID)
	}
	return out
}
