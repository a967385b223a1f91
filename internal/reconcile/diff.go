package reconcile

import "storefront/internal/domain/shop"

// CartPush はマージ後にRemote Storeへ送る差分。
type CartPush struct {
	// Create はリモートに無い行
	Create []shop.CartLine
	// Update はリモートと数量が違う行（マージ後の数量）
	Update []shop.CartLine
}

func (p CartPush) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0
}

// DiffCart はmergedをリモートに揃えるための差分を返す。
// リモートにだけある行は消さない（マージ結果に必ず含まれるため）。
func DiffCart(merged, remote []shop.CartLine) CartPush {
	qty := make(map[string]int, len(remote))
	for _, r := range remote {
		qty[r.ProductID] = r.Quantity
	}

	var p CartPush
	for _, m := range merged {
		q, ok := qty[m.ProductID]
		switch {
		case !ok:
			p.Create = append(p.Create, m)
		case q != m.Quantity:
			p.Update = append(p.Update, m)
		}
	}
	return p
}

// DiffIDs はmergedのうちリモートに無いIDを返す。
func DiffIDs(merged, remote []string) []string {
	have := make(map[string]struct{}, len(remote))
	for _, id := range remote {
		have[id] = struct{}{}
	}
	var out []string
	for _, id := range merged {
		if _, ok := have[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
