// Package reconcile はLocal StoreとRemote Storeの内容を1つのビューにまとめる。
// CRDTではなく、カート数量の重なりはポリシーで決めるだけの単純なマージ。
package reconcile

import (
	"strings"

	"storefront/internal/domain/shop"
)

// MergePolicy はカート数量が両側にあるときの決め方。
type MergePolicy int

const (
	// LocalWins はローカルの数量を採る（このタブの直近の操作を優先）。
	LocalWins MergePolicy = iota
	// MaxQuantity は大きい方を採る。別端末で足した分を取りこぼさない。
	MaxQuantity
)

func (p MergePolicy) String() string {
	switch p {
	case MaxQuantity:
		return "max-quantity"
	default:
		return "local-wins"
	}
}

// ParsePolicy は設定ファイルの文字列をポリシーにする。不明なら LocalWins。
func ParsePolicy(s string) (MergePolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "local-wins", "local_wins":
		return LocalWins, true
	case "max-quantity", "max_quantity", "max":
		return MaxQuantity, true
	default:
		return LocalWins, false
	}
}

// MergeCart は M = L ∪ R を返す。
// 並びはローカルの順、その後にリモートにしか無い行をリモートの順で。
// 数量1未満の行は落とし、同じ商品の重複行は最初のものだけ残す。
func MergeCart(local, remote []shop.CartLine, policy MergePolicy) []shop.CartLine {
	remoteByID := make(map[string]shop.CartLine, len(remote))
	for _, r := range remote {
		if !r.Valid() {
			continue
		}
		if _, dup := remoteByID[r.ProductID]; !dup {
			remoteByID[r.ProductID] = r
		}
	}

	out := make([]shop.CartLine, 0, len(local)+len(remote))
	seen := make(map[string]struct{}, len(local)+len(remote))

	for _, l := range local {
		if !l.Valid() {
			continue
		}
		if _, dup := seen[l.ProductID]; dup {
			continue
		}
		seen[l.ProductID] = struct{}{}

		if r, ok := remoteByID[l.ProductID]; ok {
			l = mergeLine(l, r, policy)
		}
		out = append(out, l)
	}

	for _, r := range remote {
		if !r.Valid() {
			continue
		}
		if _, dup := seen[r.ProductID]; dup {
			continue
		}
		seen[r.ProductID] = struct{}{}
		out = append(out, r)
	}
	return out
}

func mergeLine(l, r shop.CartLine, policy MergePolicy) shop.CartLine {
	if policy == MaxQuantity && r.Quantity > l.Quantity {
		l.Quantity = r.Quantity
	}
	// 表示データはサーバ側（カタログ由来）の方が新しい
	if r.Name != "" {
		l.Name = r.Name
	}
	if !r.UnitPrice.IsZero() {
		l.UnitPrice = r.UnitPrice
	}
	if r.ImageRef != "" {
		l.ImageRef = r.ImageRef
	}
	return l
}

// MergeIDs はお気に入りの和集合。順序はローカル→リモート、空IDと重複は除く。
func MergeIDs(local, remote []string) []string {
	out := make([]string, 0, len(local)+len(remote))
	seen := make(map[string]struct{}, len(local)+len(remote))
	for _, src := range [][]string{local, remote} {
		for _, id := range src {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
