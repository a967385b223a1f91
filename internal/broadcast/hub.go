package broadcast

import (
	"context"
	"sync"
	"time"
)

// Hub は同一プロセス内の複数タブをつなぐChannel（テスト用にも使う）。
type Hub struct {
	mu   sync.Mutex
	subs map[int]hubSub
	next int
}

type hubSub struct {
	tab string
	fn  func(Message)
}

func NewHub() *Hub {
	return &Hub{subs: map[int]hubSub{}}
}

// Join はtabIDのタブ用のChannelを返す。
func (h *Hub) Join(tabID string) Channel {
	return &hubChannel{hub: h, tab: tabID}
}

type hubChannel struct {
	hub *Hub
	tab string
}

func (c *hubChannel) Post(_ context.Context, msg Message) error {
	msg.Origin = c.tab
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}

	c.hub.mu.Lock()
	var fns []func(Message)
	for _, s := range c.hub.subs {
		if s.tab != c.tab {
			fns = append(fns, s.fn)
		}
	}
	c.hub.mu.Unlock()

	for _, fn := range fns {
		fn(msg)
	}
	return nil
}

func (c *hubChannel) Subscribe(fn func(Message)) func() {
	c.hub.mu.Lock()
	id := c.hub.next
	c.hub.next++
	c.hub.subs[id] = hubSub{tab: c.tab, fn: fn}
	c.hub.mu.Unlock()

	return func() {
		c.hub.mu.Lock()
		delete(c.hub.subs, id)
		c.hub.mu.Unlock()
	}
}
