// Package poller は「一定間隔＋イベントで前倒し」の定期リフレッシュ。
package poller

import (
	"context"
	"sync"
	"time"
)

// Policy はリフレッシュの間隔。Intervalが0以下ならTriggerのときだけ動く。
type Policy struct {
	Interval time.Duration
	// Immediate は開始直後に1回実行する
	Immediate bool
}

// Poller はfnを直列に実行する。実行中のTriggerは1回分にまとめる。
type Poller struct {
	policy  Policy
	fn      func(ctx context.Context)
	trigger chan struct{}

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

func New(policy Policy, fn func(ctx context.Context)) *Poller {
	return &Poller{
		policy:  policy,
		fn:      fn,
		trigger: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Trigger は次の実行を前倒しする。ブロックしない。
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Start はctxが終わるまで回す。2回目以降の呼び出しは無視する。
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		defer close(p.done)

		var tick <-chan time.Time
		if p.policy.Interval > 0 {
			ticker := time.NewTicker(p.policy.Interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		if p.policy.Immediate {
			p.fn(ctx)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick:
			case <-p.trigger:
			}
			p.fn(ctx)
		}
	}()
}

// Done は Start したループが終わると閉じる。
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// Wait はループの終了を待つ。Start していなければすぐ返る。
func (p *Poller) Wait(ctx context.Context) error {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return nil
	}
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
