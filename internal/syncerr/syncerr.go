// Package syncerr は同期コアの失敗分類。
//
// Remoteの失敗は必ずどれか1つのKindに分類する。文字列比較はせず、
// KindOf か errors.Is で判定する。
package syncerr

import (
	"net/http"

	"github.com/go-faster/errors"
)

// 失敗の種類
type Kind int

const (
	KindUnknown Kind = iota
	KindLocalStoreCorrupt
	KindRemoteUnauthorized
	KindRemoteConflict
	KindRemoteNotFound
	KindRemoteTransient
	KindRemoteRejected
)

func (k Kind) String() string {
	switch k {
	case KindLocalStoreCorrupt:
		return "local_store_corrupt"
	case KindRemoteUnauthorized:
		return "remote_unauthorized"
	case KindRemoteConflict:
		return "remote_conflict"
	case KindRemoteNotFound:
		return "remote_not_found"
	case KindRemoteTransient:
		return "remote_transient"
	case KindRemoteRejected:
		return "remote_rejected"
	default:
		return "unknown"
	}
}

var (
	// ローカルのスナップショットが壊れている（空として扱う）
	ErrLocalStoreCorrupt = errors.New("local store corrupt")
	// 401/403（セッション途中で期限切れなど）
	ErrRemoteUnauthorized = errors.New("remote unauthorized")
	// 409 二重作成
	ErrRemoteConflict = errors.New("remote conflict")
	// 404 既に無い（別タブが先に消した等）
	ErrRemoteNotFound = errors.New("remote not found")
	// 通信失敗・タイムアウト・5xx
	ErrRemoteTransient = errors.New("remote transient failure")
	// 400/422 入力を拒否された（在庫超過など）
	ErrRemoteRejected = errors.New("remote rejected")
)

// KindOf はerrの種類を返す。nilや未分類はKindUnknown。
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrLocalStoreCorrupt):
		return KindLocalStoreCorrupt
	case errors.Is(err, ErrRemoteUnauthorized):
		return KindRemoteUnauthorized
	case errors.Is(err, ErrRemoteConflict):
		return KindRemoteConflict
	case errors.Is(err, ErrRemoteNotFound):
		return KindRemoteNotFound
	case errors.Is(err, ErrRemoteTransient):
		return KindRemoteTransient
	case errors.Is(err, ErrRemoteRejected):
		return KindRemoteRejected
	default:
		return KindUnknown
	}
}

// Absorbed は「望んだ状態が既に成立している」失敗か。
// Conflict（作成済み）とNotFound（削除済み）は成功扱いにする。
func Absorbed(err error) bool {
	k := KindOf(err)
	return k == KindRemoteConflict || k == KindRemoteNotFound
}

// FromStatus はHTTPステータスを分類済みエラーにする。400未満はnil。
func FromStatus(status int, op string) error {
	switch {
	case status < 400:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.Wrapf(ErrRemoteUnauthorized, "%s: status %d", op, status)
	case status == http.StatusNotFound:
		return errors.Wrapf(ErrRemoteNotFound, "%s: status %d", op, status)
	case status == http.StatusConflict:
		return errors.Wrapf(ErrRemoteConflict, "%s: status %d", op, status)
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500:
		return errors.Wrapf(ErrRemoteTransient, "%s: status %d", op, status)
	default:
		return errors.Wrapf(ErrRemoteRejected, "%s: status %d", op, status)
	}
}

// Transient は通信レベルの失敗（接続・タイムアウト・デコード）を包む。
func Transient(err error, op string) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}
	return &transportError{op: op, err: err}
}

type transportError struct {
	op  string
	err error
}

func (e *transportError) Error() string { return e.op + ": " + e.err.Error() }

func (e *transportError) Unwrap() error { return e.err }

func (e *transportError) Is(target error) bool { return target == ErrRemoteTransient }
