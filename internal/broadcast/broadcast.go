// Package broadcast はキャッシュ無効化のための通知路。
//
//   - Bus: 同一タブ内のカスタムイベント（管理画面の保存直後など）
//   - Channel: 同一端末・同一ブラウザのタブ間通知（BroadcastChannel相当）
//
// どちらも「何が変わったか」だけを運び、値そのものは運ばない。
package broadcast

import (
	"context"
	"time"
)

// トピック
const (
	TopicSiteConfig = "site-config"
	TopicCart       = "cart"
	TopicFavorites  = "favorites"
)

// Message はタブ間で流す無効化通知。
type Message struct {
	Topic  string    `json:"topic"`
	Key    string    `json:"key,omitempty"`
	Origin string    `json:"origin"`
	SentAt time.Time `json:"sent_at"`
}

// Channel はタブ間の通知路。Postしたタブ自身には届かない。
type Channel interface {
	Post(ctx context.Context, msg Message) error
	Subscribe(fn func(Message)) (unsubscribe func())
}
