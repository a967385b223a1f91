// Package identity は「今ログインしているのは誰か」を同期コアに渡す。
// 認証そのもの（トークン発行）は外部の責務で、ここはトークンを読むだけ。
package identity

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v4"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type Identity struct {
	UserID string
	Role   string
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// Gate は現在の認証状態を返す。同期的で、同期コア側からポーリングされる。
type Gate interface {
	CurrentIdentity() *Identity
}

// Same は2つのIdentityが同じユーザーを指すか。
func Same(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UserID == b.UserID && a.Role == b.Role
}

// Static はテストやCLIの固定Gate。nilなら未ログイン。
type Static struct {
	mu sync.Mutex
	id *Identity
}

func NewStatic(id *Identity) *Static {
	return &Static{id: id}
}

func (s *Static) CurrentIdentity() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == nil {
		return nil
	}
	cp := *s.id
	return &cp
}

func (s *Static) Set(id *Identity) {
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
}

// TokenGate はBearerトークン（JWT）を保持し、claimsからIdentityを作る。
// 署名検証はサーバ側で行うので、ここでは検証しない。
// LoadTokenFile で作ったものはファイルの更新（別プロセスのlogin/logout）に追従する。
type TokenGate struct {
	mu      sync.Mutex
	token   string
	now     func() time.Time
	path    string
	modTime time.Time
}

func NewTokenGate(token string) *TokenGate {
	return &TokenGate{token: strings.TrimSpace(token), now: time.Now}
}

// LoadTokenFile はファイルからトークンを読む。ファイルが無ければ未ログイン。
func LoadTokenFile(path string) (*TokenGate, error) {
	g := NewTokenGate("")
	if path == "" {
		return g, nil
	}
	g.path = path
	if err := g.reloadLocked(); err != nil {
		return nil, err
	}
	return g, nil
}

// SaveTokenFile はトークンを所有者だけが読めるファイルに書く。
func SaveTokenFile(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(err, "create token dir")
	}
	if err := os.WriteFile(path, []byte(strings.TrimSpace(token)+"\n"), 0o600); err != nil {
		return errors.Wrap(err, "write token file")
	}
	return nil
}

// RemoveTokenFile はログアウト。ファイルが無くてもエラーにしない。
func RemoveTokenFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "remove token file")
	}
	return nil
}

// reloadLocked はファイルが変わっていれば読み直す。mu を持って呼ぶ。
func (g *TokenGate) reloadLocked() error {
	if g.path == "" {
		return nil
	}
	st, err := os.Stat(g.path)
	if errors.Is(err, os.ErrNotExist) {
		g.token = ""
		g.modTime = time.Time{}
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "stat token file")
	}
	if !g.modTime.IsZero() && st.ModTime().Equal(g.modTime) {
		return nil
	}
	b, err := os.ReadFile(g.path)
	if err != nil {
		return errors.Wrap(err, "read token file")
	}
	g.token = strings.TrimSpace(string(b))
	g.modTime = st.ModTime()
	return nil
}

func (g *TokenGate) SetToken(token string) {
	g.mu.Lock()
	g.token = strings.TrimSpace(token)
	g.path = ""
	g.mu.Unlock()
}

func (g *TokenGate) Clear() {
	g.SetToken("")
}

// Token はRemote Store呼び出し用のトークン。期限切れでもそのまま返す（401はサーバが判定する）。
func (g *TokenGate) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	_ = g.reloadLocked()
	return g.token
}

func (g *TokenGate) CurrentIdentity() *Identity {
	g.mu.Lock()
	_ = g.reloadLocked()
	raw := g.token
	now := g.now
	g.mu.Unlock()

	if raw == "" {
		return nil
	}
	id, err := parseClaims(raw, now())
	if err != nil {
		return nil
	}
	return id
}

func parseClaims(raw string, now time.Time) (*Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, errors.Wrap(err, "parse token")
	}

	//期限切れは未ログイン扱い
	if !claims.VerifyExpiresAt(now.Unix(), false) {
		return nil, errors.New("token expired")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.New("missing sub")
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = RoleUser
	}
	return &Identity{UserID: sub, Role: role}, nil
}
