// Package localstore はブラウザのlocalStorage相当（端末内で永続・タブ間で共有）の
// 同期的なKVファサード。
//
// Read/Writeは呼び出し側に失敗を返さない。シリアライズやI/Oの失敗は
// ログに残して「無い」扱いにする（ローカルの破損でカート/お気に入りを壊さない）。
// TTLは無く、明示的に上書きされるまで有効。
package localstore

import (
	"bytes"
	"encoding/json"
	"log/slog"

	"storefront/internal/syncerr"
)

// 同期コアが使うキー
const (
	KeyCart      = "cart"
	KeyFavorites = "favorites"
)

// Store はタブ1つから見たローカルストア。
type Store interface {
	// Read は値を返す。無い・読めないときは ok=false。
	Read(key string) (value []byte, ok bool)
	// Write は値を保存する。失敗はログのみ。
	Write(key string, value []byte)
	// Subscribe は「他のタブ」が書いたキーの通知を受ける（自タブの書き込みは通知しない）。
	Subscribe(fn func(key string)) (unsubscribe func())
}

// ReadJSON はkeyの値をTとして読む。壊れていれば無い扱い（LocalStoreCorrupt）。
func ReadJSON[T any](s Store, key string, logger *slog.Logger) (T, bool) {
	var zero T
	raw, ok := s.Read(key)
	if !ok || len(raw) == 0 {
		return zero, false
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		loggerOrDefault(logger).Warn("local snapshot unreadable, treating as empty",
			"key", key,
			"kind", syncerr.KindLocalStoreCorrupt.String(),
			"error", err,
		)
		return zero, false
	}
	return v, true
}

// WriteJSON はvをJSONにして保存する。
func WriteJSON[T any](s Store, key string, v T, logger *slog.Logger) {
	raw, err := json.Marshal(v)
	if err != nil {
		loggerOrDefault(logger).Warn("local snapshot not serializable", "key", key, "error", err)
		return
	}
	s.Write(key, raw)
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// SyncJSON は保存済みの値と違うときだけ書く。書いたらtrue。
// 同じ内容の書き込みで他タブに変更通知が飛び続けるのを防ぐ。
func SyncJSON[T any](s Store, key string, v T, logger *slog.Logger) bool {
	raw, err := json.Marshal(v)
	if err != nil {
		loggerOrDefault(logger).Warn("local snapshot not serializable", "key", key, "error", err)
		return false
	}
	if cur, ok := s.Read(key); ok && bytes.Equal(cur, raw) {
		return false
	}
	s.Write(key, raw)
	return true
}
