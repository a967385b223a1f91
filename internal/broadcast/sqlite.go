package broadcast

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	retention           = time.Minute
	// 固定幅にして文字列比較で時刻順になるようにする
	timeLayout = "2006-01-02T15:04:05.000000Z"
)

// SQLiteChannel は共有SQLiteファイルのbroadcastテーブルを使うChannel。
// 別プロセスのタブにも届く。受信は Run のポーリング。
type SQLiteChannel struct {
	db     *sql.DB
	tab    string
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	subs   map[int]func(Message)
	next   int
	lastID int64
}

func NewSQLiteChannel(db *sql.DB, tabID string, logger *slog.Logger) *SQLiteChannel {
	if logger == nil {
		logger = slog.Default()
	}
	c := &SQLiteChannel{
		db:     db,
		tab:    tabID,
		logger: logger.With("component", "broadcast", "tab", tabID),
		now:    time.Now,
		subs:   map[int]func(Message){},
	}
	// 参加前のメッセージは再生しない
	if err := db.QueryRow(`SELECT COALESCE(MAX(id), 0) FROM broadcast`).Scan(&c.lastID); err != nil {
		c.logger.Warn("broadcast cursor init failed", "error", err)
	}
	return c
}

func (c *SQLiteChannel) Post(ctx context.Context, msg Message) error {
	sentAt := msg.SentAt
	if sentAt.IsZero() {
		sentAt = c.now()
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO broadcast (topic, key, origin, sent_at) VALUES (?, ?, ?, ?)`,
		msg.Topic, msg.Key, c.tab, sentAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("post broadcast: %w", err)
	}
	return nil
}

func (c *SQLiteChannel) Subscribe(fn func(Message)) func() {
	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Poll は新着メッセージを1回だけ読み、自タブ以外からのものを配る。
func (c *SQLiteChannel) Poll(ctx context.Context) {
	c.mu.Lock()
	last := c.lastID
	c.mu.Unlock()

	rows, err := c.db.QueryContext(ctx,
		`SELECT id, topic, key, origin, sent_at FROM broadcast WHERE id > ? ORDER BY id ASC`, last)
	if err != nil {
		c.logger.Warn("broadcast poll failed", "error", err)
		return
	}

	var msgs []Message
	for rows.Next() {
		var (
			id     int64
			m      Message
			sentAt string
		)
		if err := rows.Scan(&id, &m.Topic, &m.Key, &m.Origin, &sentAt); err != nil {
			c.logger.Warn("broadcast scan failed", "error", err)
			continue
		}
		last = id
		if m.Origin == c.tab {
			continue
		}
		m.SentAt, _ = time.Parse(timeLayout, sentAt)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		c.logger.Warn("broadcast rows failed", "error", err)
	}
	rows.Close()

	c.mu.Lock()
	c.lastID = last
	fns := make([]func(Message), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, m := range msgs {
		for _, fn := range fns {
			fn(m)
		}
	}
}

// Prune は保持期間を過ぎたメッセージを消す。
func (c *SQLiteChannel) Prune(ctx context.Context) {
	cutoff := c.now().Add(-retention).UTC().Format(timeLayout)
	if _, err := c.db.ExecContext(ctx, `DELETE FROM broadcast WHERE sent_at < ?`, cutoff); err != nil {
		c.logger.Warn("broadcast prune failed", "error", err)
	}
}

// Run はctxが終わるまでintervalごとにPollする。すぐに戻る。
func (c *SQLiteChannel) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			c.Poll(ctx)
			if i%120 == 0 {
				c.Prune(ctx)
			}
		}
	}()
}
