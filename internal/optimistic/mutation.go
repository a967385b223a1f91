// Package optimistic は楽観的更新の1回分（Mutation）を扱う。
//
// 手順: メモリ上の状態とLocal Storeへ同期的に反映 → Remote Store呼び出しを裏で実行
// → 結果に応じて Confirmed / Degraded / RolledBack に確定する。
// どれに落ちるかは呼び出し側が Policy で決める。
package optimistic

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"storefront/internal/syncerr"
)

type State int

const (
	Pending State = iota
	Confirmed
	RolledBack
	Degraded
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled_back"
	case Degraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Policy はRemote Store失敗時の扱い。
type Policy int

const (
	// Tolerate はローカルの状態を残す（追加系・冪等な操作）。
	Tolerate Policy = iota
	// Revert は退避した値を戻してエラーを出す（管理画面の削除）。
	Revert
)

// Mutation は1回の楽観的更新。Pendingから始まり、一度だけ終端状態になる。
type Mutation struct {
	ID     string
	Action string
	Policy Policy

	mu    sync.Mutex
	state State
	err   error
	done  chan struct{}
}

func newMutation(action string, policy Policy) *Mutation {
	return &Mutation{
		ID:     uuid.NewString(),
		Action: action,
		Policy: policy,
		done:   make(chan struct{}),
	}
}

// Settled はリモート呼び出しが不要だった（未ログインなど）更新。Confirmed で返す。
func Settled(action string) *Mutation {
	m := newMutation(action, Tolerate)
	m.state = Confirmed
	close(m.done)
	return m
}

func (m *Mutation) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err はDegraded/RolledBackの原因。Confirmedならnil。
func (m *Mutation) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *Mutation) Done() <-chan struct{} {
	return m.done
}

// Wait は確定まで待つ。ctxが先に終わってもリモート呼び出しは止めない。
func (m *Mutation) Wait(ctx context.Context) (State, error) {
	select {
	case <-m.done:
		return m.State(), m.Err()
	case <-ctx.Done():
		return Pending, ctx.Err()
	}
}

func (m *Mutation) resolve(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case err == nil || syncerr.Absorbed(err):
		m.state = Confirmed
	case m.Policy == Revert:
		m.state, m.err = RolledBack, err
	default:
		m.state, m.err = Degraded, err
	}
}

// Runner はリモート呼び出しを裏で走らせ、終わるまで追跡する。
type Runner struct {
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger.With("component", "optimistic")}
}

// Run はcallを裏で実行してMutationを返す。
// callにはキャンセルされないctxを渡す（画面を離れても呼び出しは完了させる）。
// settleは状態確定後・Done()が閉じる前に呼ばれる（補正や集計の再計算に使う）。
func (r *Runner) Run(ctx context.Context, action string, policy Policy, call func(context.Context) error, settle func(*Mutation)) *Mutation {
	m := newMutation(action, policy)
	bg := context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(m.done)

		err := call(bg)
		m.resolve(err)
		r.log(m, err)

		if settle != nil {
			settle(m)
		}
	}()
	return m
}

func (r *Runner) log(m *Mutation, err error) {
	if err == nil {
		return
	}
	attrs := []any{"action", m.Action, "mutation", m.ID, "kind", syncerr.KindOf(err).String(), "error", err}
	switch m.State() {
	case Confirmed:
		r.logger.Debug("remote already in desired state", attrs...)
	case Degraded:
		r.logger.Warn("remote sync failed, keeping local state", attrs...)
	case RolledBack:
		r.logger.Warn("remote sync failed, rolled back", attrs...)
	}
}

// Drain は実行中の呼び出しがすべて終わるまで待つ。
func (r *Runner) Drain(ctx context.Context) error {
	ch := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(ch)
	}()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
