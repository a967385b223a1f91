package broadcast

import "sync"

// Event は同一タブ内のイベント。
type Event struct {
	Topic string
	Key   string
}

// Bus は同一タブ内の同期イベントバス。ゼロ値で使える。
type Bus struct {
	mu   sync.Mutex
	subs map[int]busSub
	next int
}

type busSub struct {
	topic string
	fn    func(Event)
}

// On はtopicのイベントを購読する。topicが空なら全て。
func (b *Bus) On(topic string, fn func(Event)) func() {
	b.mu.Lock()
	if b.subs == nil {
		b.subs = map[int]busSub{}
	}
	id := b.next
	b.next++
	b.subs[id] = busSub{topic: topic, fn: fn}
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Emit は購読者へ同期的に配る。
func (b *Bus) Emit(ev Event) {
	b.mu.Lock()
	var fns []func(Event)
	for _, s := range b.subs {
		if s.topic == "" || s.topic == ev.Topic {
			fns = append(fns, s.fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
