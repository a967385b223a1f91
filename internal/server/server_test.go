package server

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/cartsync"
	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/domain/shop"
	"storefront/internal/identity"
	"storefront/internal/infra/memrepo"
	"storefront/internal/localstore"
	"storefront/internal/optimistic"
	"storefront/internal/remote"
	"storefront/internal/syncerr"

	"github.com/golang-jwt/jwt/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "server-test-secret"

type staticToken string

func (s staticToken) Token() string { return string(s) }

func signToken(t *testing.T, sub, role string) string {
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

type fixture struct {
	store *memrepo.Store
	url   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memrepo.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	e := New(config.Config{JWTSecret: testSecret}, Repos{
		Products:     store.Products(),
		CartItems:    store.CartItems(),
		Favorites:    store.Favorites(),
		SiteSettings: store.SiteSettings(),
		AuditLogs:    store.AuditLogs(),
		Tx:           store,
	}, logger)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return fixture{store: store, url: srv.URL}
}

func (f fixture) client(t *testing.T, token string) *remote.Client {
	t.Helper()
	c, err := remote.NewClient(f.url, staticToken(token))
	require.NoError(t, err)
	return c
}

func (f fixture) seed(t *testing.T, name, price string, stock int64) model.Product {
	t.Helper()
	p, err := f.store.Products().Create(context.Background(), model.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	})
	require.NoError(t, err)
	return p
}

func TestRemoteContract_Cart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tea := f.seed(t, "Teapot", "12.5", 3)
	carts := f.client(t, signToken(t, "u1", "USER")).Carts()

	line, err := carts.Create(ctx, shop.CartLine{ProductID: tea.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "Teapot", line.Name)
	assert.Equal(t, "12.50", line.UnitPrice.StringFixed(2))

	_, err = carts.Create(ctx, shop.CartLine{ProductID: tea.ID, Quantity: 1})
	assert.Equal(t, syncerr.KindRemoteConflict, syncerr.KindOf(err))

	_, err = carts.Update(ctx, tea.ID, 9)
	assert.Equal(t, syncerr.KindRemoteRejected, syncerr.KindOf(err))

	line, err = carts.Update(ctx, tea.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)

	lines, err := carts.List(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)

	require.NoError(t, carts.Remove(ctx, tea.ID))
	err = carts.Remove(ctx, tea.ID)
	assert.Equal(t, syncerr.KindRemoteNotFound, syncerr.KindOf(err))

	_, err = carts.Update(ctx, tea.ID, 1)
	assert.Equal(t, syncerr.KindRemoteNotFound, syncerr.KindOf(err))

	require.NoError(t, carts.Clear(ctx))
}

func TestRemoteContract_RequiresToken(t *testing.T) {
	f := newFixture(t)
	_, err := f.client(t, "garbage").Carts().List(context.Background())
	assert.Equal(t, syncerr.KindRemoteUnauthorized, syncerr.KindOf(err))
}

func TestRemoteContract_Favorites(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tea := f.seed(t, "Teapot", "12.5", 3)
	favs := f.client(t, signToken(t, "u1", "USER")).Favorites()

	require.NoError(t, favs.Create(ctx, tea.ID))
	err := favs.Create(ctx, tea.ID)
	assert.Equal(t, syncerr.KindRemoteConflict, syncerr.KindOf(err))

	ids, err := favs.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{tea.ID}, ids)

	require.NoError(t, favs.Remove(ctx, tea.ID))
	err = favs.Remove(ctx, tea.ID)
	assert.Equal(t, syncerr.KindRemoteNotFound, syncerr.KindOf(err))
}

func TestRemoteContract_SiteConfig(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	anon := f.client(t, "").SiteConfig()
	cfg, err := anon.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSiteName, cfg.SiteName)
	assert.Nil(t, cfg.SiteLogoURL)

	err = f.client(t, signToken(t, "u1", "USER")).SiteConfig().Set(ctx, shop.SiteConfigKeyLogo, "https://cdn.test/a.png")
	assert.Equal(t, syncerr.KindRemoteUnauthorized, syncerr.KindOf(err))

	admin := f.client(t, signToken(t, "a1", "ADMIN")).SiteConfig()
	require.NoError(t, admin.Set(ctx, shop.SiteConfigKeyLogo, "https://cdn.test/a.png"))
	err = admin.Set(ctx, "theme", "dark")
	assert.Equal(t, syncerr.KindRemoteRejected, syncerr.KindOf(err))

	cfg, err = anon.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/a.png", cfg.LogoURL())
}

func TestRemoteContract_Admin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.client(t, signToken(t, "a1", "ADMIN"))

	mug, err := admin.AdminProducts().Create(ctx, shop.Product{Name: "Mug", Price: decimal.RequireFromString("8"), Stock: 2, IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "8.00", mug.Price.StringFixed(2))

	found, err := admin.Catalog().Lookup(ctx, mug.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mug", found.Name)

	user := f.client(t, signToken(t, "u1", "USER"))
	_, err = user.Carts().Create(ctx, shop.LineFor(found, 2))
	require.NoError(t, err)

	lines, err := admin.AdminCarts().ListLines(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, mug.ID, lines[0].ProductID)

	require.NoError(t, admin.AdminCarts().RemoveLine(ctx, "u1", mug.ID))
	err = admin.AdminCarts().RemoveLine(ctx, "u1", mug.ID)
	assert.Equal(t, syncerr.KindRemoteNotFound, syncerr.KindOf(err))

	_, err = user.AdminProducts().List(ctx)
	assert.Equal(t, syncerr.KindRemoteUnauthorized, syncerr.KindOf(err))

	products, err := admin.AdminProducts().List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)

	require.NoError(t, admin.AdminProducts().Delete(ctx, mug.ID))
	_, err = admin.Catalog().Lookup(ctx, mug.ID)
	assert.Equal(t, syncerr.KindRemoteNotFound, syncerr.KindOf(err))
	err = admin.AdminProducts().Delete(ctx, mug.ID)
	assert.Equal(t, syncerr.KindRemoteNotFound, syncerr.KindOf(err))

	entries, err := admin.AdminAuditLogs().List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, string(model.AuditActionDeleteProduct), entries[0].Action)
	assert.Equal(t, "u1/"+mug.ID, entries[1].ResourceID)
	assert.Equal(t, "a1", entries[2].ActorUserID)

	_, err = user.AdminAuditLogs().List(ctx)
	assert.Equal(t, syncerr.KindRemoteUnauthorized, syncerr.KindOf(err))
}

// 匿名で作ったカートがログイン後のReloadでサーバーに押し上げられる。
func TestCartSync_LoginPushesAnonymousCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tea := f.seed(t, "Teapot", "12.5", 5)
	mug := f.seed(t, "Mug", "8", 5)

	gate := identity.NewStatic(nil)
	token := signToken(t, "u1", "USER")
	client := f.client(t, token)
	runner := optimistic.NewRunner(nil)

	_, err := client.Carts().Create(ctx, shop.LineFor(shop.Product{ID: mug.ID}, 1))
	require.NoError(t, err)

	cart := cartsync.New(cartsync.Options{
		Local:  localstore.NewMemory().Tab("tab-1"),
		Gate:   gate,
		Remote: client.Carts(),
		Runner: runner,
	})

	teaView := shop.Product{ID: tea.ID, Name: tea.Name, Price: tea.Price}
	m := cart.AddQuantity(ctx, teaView, 2)
	state, err := m.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, optimistic.Confirmed, state)

	gate.Set(&identity.Identity{UserID: "u1", Role: identity.RoleUser})
	require.NoError(t, cart.Reload(ctx))

	drainCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, runner.Drain(drainCtx))

	assert.Equal(t, 3, cart.Count())

	remoteLines, err := client.Carts().List(ctx)
	require.NoError(t, err)
	got := map[string]int{}
	for _, l := range remoteLines {
		got[l.ProductID] = l.Quantity
	}
	assert.Equal(t, map[string]int{tea.ID: 2, mug.ID: 1}, got)
}
