package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/infra/memrepo"
	"storefront/internal/server"
)

const testSecret = "cli-test-secret"

type harness struct {
	store *memrepo.Store
	base  []string
	token string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memrepo.New()
	e := server.New(config.Config{JWTSecret: testSecret}, server.Repos{
		Products:     store.Products(),
		CartItems:    store.CartItems(),
		Favorites:    store.Favorites(),
		SiteSettings: store.SiteSettings(),
		AuditLogs:    store.AuditLogs(),
		Tx:           store,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	return &harness{
		store: store,
		token: filepath.Join(dir, "token"),
		base: []string{
			"--config", filepath.Join(dir, "client.toml"),
			"--api", srv.URL,
			"--db", filepath.Join(dir, "local.db"),
			"--token-file", filepath.Join(dir, "token"),
		},
	}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(append(append([]string{}, h.base...), args...))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(bytes.NewReader(nil))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) seed(t *testing.T, name, price string, stock int64) model.Product {
	t.Helper()
	p, err := h.store.Products().Create(context.Background(), model.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	})
	require.NoError(t, err)
	return p
}

func sign(t *testing.T, sub, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "anonymous")

	out, err = h.run(t, "login", "--token", sign(t, "u1", "USER"))
	require.NoError(t, err)
	assert.Contains(t, out, "u1 (USER)")

	out, err = h.run(t, "whoami", "--format", "json")
	require.NoError(t, err)
	var who map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &who))
	assert.Equal(t, true, who["logged_in"])
	assert.Equal(t, "u1", who["user_id"])

	_, err = h.run(t, "logout")
	require.NoError(t, err)
	out, err = h.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "anonymous")
}

func TestCart_AddPersistsAcrossRuns(t *testing.T) {
	h := newHarness(t)
	tea := h.seed(t, "Green Tea", "4.5", 10)

	_, err := h.run(t, "login", "--token", sign(t, "u1", "USER"))
	require.NoError(t, err)

	out, err := h.run(t, "cart", "add", tea.ID, "--qty", "2", "--format", "json")
	require.NoError(t, err)
	var view cartView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, 2, view.Count)
	assert.Equal(t, "9.00", view.Total)

	items, err := h.store.CartItems().ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].Quantity)

	// 別の実行（別タブ）からも同じカートが見える
	out, err = h.run(t, "cart")
	require.NoError(t, err)
	assert.Contains(t, out, "Green Tea")
	assert.Contains(t, out, "2 item(s), total 9.00")

	_, err = h.run(t, "cart", "remove", tea.ID)
	require.NoError(t, err)
	items, err = h.store.CartItems().ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCart_AddUnknownProductFails(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "cart", "add", "no-such-product")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestFav_Toggle(t *testing.T) {
	h := newHarness(t)
	tea := h.seed(t, "Green Tea", "4.5", 10)
	_, err := h.run(t, "login", "--token", sign(t, "u1", "USER"))
	require.NoError(t, err)

	out, err := h.run(t, "fav", "toggle", tea.ID)
	require.NoError(t, err)
	assert.Contains(t, out, tea.ID)

	favs, err := h.store.Favorites().ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, favs, 1)
}

func TestAdmin_ProductsAndSiteConfig(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "Green Tea", "4.5", 2)
	_, err := h.run(t, "login", "--token", sign(t, "admin-1", "ADMIN"))
	require.NoError(t, err)

	out, err := h.run(t, "admin", "create-product", "--name", "Teapot", "--price", "12.5", "--stock", "30", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "Teapot")

	out, err = h.run(t, "admin", "products", "--format", "json")
	require.NoError(t, err)
	var products productsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &products))
	assert.Len(t, products.Products, 2)
	assert.Equal(t, 1, products.LowStock)

	out, err = h.run(t, "admin", "set-config", "site_name", "Tea House")
	require.NoError(t, err)
	assert.Contains(t, out, "Tea House")

	out, err = h.run(t, "config", "refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "Tea House")

	out, err = h.run(t, "admin", "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "UPDATE_SITE_SETTING")
	assert.Contains(t, out, "CREATE_PRODUCT")
}

func TestAdmin_RequiresAdminRole(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "login", "--token", sign(t, "u1", "USER"))
	require.NoError(t, err)

	_, err = h.run(t, "admin", "products")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
