package localstore

import "sync"

// Memory は複数タブで共有するインメモリのストア（テスト・単一プロセス用）。
// タブごとの窓口は Tab で作る。
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
	subs map[int]memorySub
	next int
}

type memorySub struct {
	tab string
	fn  func(key string)
}

func NewMemory() *Memory {
	return &Memory{
		data: map[string][]byte{},
		subs: map[int]memorySub{},
	}
}

// Tab はtabIDのタブから見たStoreを返す。
func (m *Memory) Tab(tabID string) Store {
	return &memoryTab{m: m, tab: tabID}
}

type memoryTab struct {
	m   *Memory
	tab string
}

func (t *memoryTab) Read(key string) ([]byte, bool) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	v, ok := t.m.data[key]
	if !ok {
		return nil, false
	}
	dup := make([]byte, len(v))
	copy(dup, v)
	return dup, true
}

func (t *memoryTab) Write(key string, value []byte) {
	dup := make([]byte, len(value))
	copy(dup, value)

	t.m.mu.Lock()
	t.m.data[key] = dup
	var notify []func(string)
	for _, s := range t.m.subs {
		if s.tab != t.tab {
			notify = append(notify, s.fn)
		}
	}
	t.m.mu.Unlock()

	// ロック外で通知する
	for _, fn := range notify {
		fn(key)
	}
}

func (t *memoryTab) Subscribe(fn func(key string)) func() {
	t.m.mu.Lock()
	id := t.m.next
	t.m.next++
	t.m.subs[id] = memorySub{tab: t.tab, fn: fn}
	t.m.mu.Unlock()

	return func() {
		t.m.mu.Lock()
		delete(t.m.subs, id)
		t.m.mu.Unlock()
	}
}
