package localstore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const defaultWatchInterval = 500 * time.Millisecond

// SQLiteStore は共有SQLiteファイル上のストア。
// 他タブ（他プロセス）の書き込みは Watch のポーリングで検知する。
type SQLiteStore struct {
	db     *sql.DB
	tab    string
	logger *slog.Logger

	mu   sync.Mutex
	subs map[int]func(string)
	next int
	seen map[string]int64
}

func NewSQLiteStore(db *sql.DB, tabID string, logger *slog.Logger) *SQLiteStore {
	s := &SQLiteStore{
		db:     db,
		tab:    tabID,
		logger: loggerOrDefault(logger).With("component", "localstore", "tab", tabID),
		subs:   map[int]func(string){},
		seen:   map[string]int64{},
	}
	// 既存の行は通知対象にしない
	s.scan(false)
	return s
}

func (s *SQLiteStore) Read(key string) ([]byte, bool) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("local read failed", "key", key, "error", err)
		return nil, false
	}
	return value, true
}

func (s *SQLiteStore) Write(key string, value []byte) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var version int64
	err := s.db.QueryRow(`
		INSERT INTO kv (key, value, version, writer, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			version = kv.version + 1,
			writer = excluded.writer,
			updated_at = excluded.updated_at
		RETURNING version
	`, key, value, s.tab, now).Scan(&version)
	if err != nil {
		s.logger.Warn("local write failed", "key", key, "error", err)
		return
	}

	s.mu.Lock()
	s.seen[key] = version
	s.mu.Unlock()
}

func (s *SQLiteStore) Subscribe(fn func(key string)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Poll は他タブの書き込みを1回だけ確認し、変わったキーを通知する。
func (s *SQLiteStore) Poll() {
	s.scan(true)
}

// Watch はctxが終わるまでintervalごとにPollする。すぐに戻る。
func (s *SQLiteStore) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultWatchInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Poll()
			}
		}
	}()
}

func (s *SQLiteStore) scan(notify bool) {
	rows, err := s.db.Query(`SELECT key, version, writer FROM kv`)
	if err != nil {
		s.logger.Warn("local watch query failed", "error", err)
		return
	}

	var changed []string
	s.mu.Lock()
	for rows.Next() {
		var (
			key, writer string
			version     int64
		)
		if err := rows.Scan(&key, &version, &writer); err != nil {
			s.logger.Warn("local watch scan failed", "error", err)
			continue
		}
		if s.seen[key] == version {
			continue
		}
		s.seen[key] = version
		if notify && writer != s.tab {
			changed = append(changed, key)
		}
	}
	subs := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if err := rows.Err(); err != nil {
		s.logger.Warn("local watch rows failed", "error", err)
	}
	// 接続は1本なので通知の前に返す
	rows.Close()

	for _, key := range changed {
		for _, fn := range subs {
			fn(key)
		}
	}
}
