package optimistic

import (
	"context"
	"slices"
	"sort"
	"sync"
)

// List は作成順に並んだ一覧。管理画面の破壊的操作（削除）を
// 楽観的に反映し、失敗したら元の位置に戻す。
type List[T any] struct {
	key  func(T) string
	less func(a, b T) bool

	mu       sync.Mutex
	items    []T
	onChange []func([]T)
}

// NewList はkeyで識別し、lessの順（作成日時など）に並べる一覧を作る。
func NewList[T any](key func(T) string, less func(a, b T) bool) *List[T] {
	return &List[T]{key: key, less: less}
}

// Set は一覧を丸ごと置き換える（サーバから読み直したとき）。
func (l *List[T]) Set(items []T) {
	cp := append([]T(nil), items...)
	sort.SliceStable(cp, func(i, j int) bool { return l.less(cp[i], cp[j]) })

	l.mu.Lock()
	l.items = cp
	l.mu.Unlock()
	l.changed()
}

func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.items...)
}

func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

func (l *List[T]) Get(key string) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, it := range l.items {
		if l.key(it) == key {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// OnChange は一覧が変わるたびに呼ばれる。集計はここで作り直す。
func (l *List[T]) OnChange(fn func([]T)) {
	l.mu.Lock()
	l.onChange = append(l.onChange, fn)
	l.mu.Unlock()
}

func (l *List[T]) take(key string) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, it := range l.items {
		if l.key(it) == key {
			l.items = append(l.items[:i:i], l.items[i+1:]...)
			return it, true
		}
	}
	var zero T
	return zero, false
}

// restore は退避した要素を並び順の位置に戻す。同じキーが既にあれば何もしない。
func (l *List[T]) restore(item T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := l.key(item)
	for _, it := range l.items {
		if l.key(it) == k {
			return false
		}
	}
	i := sort.Search(len(l.items), func(i int) bool { return l.less(item, l.items[i]) })
	l.items = append(l.items, item)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = item
	return true
}

func (l *List[T]) changed() {
	l.mu.Lock()
	items := append([]T(nil), l.items...)
	fns := slices.Clone(l.onChange)
	l.mu.Unlock()

	for _, fn := range fns {
		fn(items)
	}
}

// Remove はkeyの要素を即座に外し、callを裏で実行する。
// 失敗（RolledBack）なら退避した要素を元の位置に戻し、onFailを呼ぶ。
// 一覧に無いキーは何もせずConfirmedを返す。
func (l *List[T]) Remove(ctx context.Context, r *Runner, action, key string, call func(context.Context) error, onFail func(T, error)) *Mutation {
	item, ok := l.take(key)
	if !ok {
		return Settled(action)
	}
	l.changed()

	return r.Run(ctx, action, Revert, call, func(m *Mutation) {
		if m.State() != RolledBack {
			return
		}
		if l.restore(item) {
			l.changed()
		}
		if onFail != nil {
			onFail(item, m.Err())
		}
	})
}
