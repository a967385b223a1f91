// Package notify はユーザーに見せる通知。
// 破壊的な操作の失敗だけがここに来る（追加系の失敗はログのみ）。
package notify

import (
	"fmt"
	"sync"
	"time"

	"storefront/internal/syncerr"
)

type Level int

const (
	LevelInfo Level = iota
	LevelError
)

type Notification struct {
	Level   Level
	Action  string
	Subject string
	Message string
	// Relogin は再ログインを促すべきか（RemoteUnauthorized）
	Relogin bool
	At      time.Time
}

type Notifier interface {
	Notify(n Notification)
}

// Failure は失敗した操作と対象を名指しした通知を作る。
func Failure(action, subject string, err error) Notification {
	n := Notification{
		Level:   LevelError,
		Action:  action,
		Subject: subject,
		At:      time.Now(),
	}
	if syncerr.KindOf(err) == syncerr.KindRemoteUnauthorized {
		n.Relogin = true
		n.Message = fmt.Sprintf("Could not %s %q: your session has expired, please log in again.", action, subject)
		return n
	}
	n.Message = fmt.Sprintf("Could not %s %q. The change was undone.", action, subject)
	return n
}

// Info は成功などの通知。
func Info(action, subject, msg string) Notification {
	return Notification{Level: LevelInfo, Action: action, Subject: subject, Message: msg, At: time.Now()}
}

// Recorder は受け取った通知を貯める（テスト・watch表示用）。
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Discard は何もしないNotifier。
type Discard struct{}

func (Discard) Notify(Notification) {}
