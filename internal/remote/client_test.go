package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/shop"
	"storefront/internal/syncerr"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, h http.HandlerFunc, tok string) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, staticToken(tok))
	require.NoError(t, err)
	return c
}

func TestCarts_ListNormalizesPrices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cart", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"product_id":"p1","quantity":2,"name":"Tea","unit_price":"3.5"},{"product_id":"p2","quantity":1,"name":"Cup","unit_price":12.005}],"total":"19.01"}`))
	}, "tok")

	lines, err := c.Carts().List(context.Background())
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "3.50", lines[0].UnitPrice.StringFixed(2))
	assert.True(t, lines[1].UnitPrice.Equal(decimal.RequireFromString("12.01")))
}

func TestCarts_CreateAndUpdateBodies(t *testing.T) {
	var got []map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["_method"] = r.Method
		body["_path"] = r.URL.Path
		got = append(got, body)
		_, _ = w.Write([]byte(`{"product_id":"p 1","quantity":3,"unit_price":"1"}`))
	}, "tok")

	_, err := c.Carts().Create(context.Background(), shop.CartLine{ProductID: "p 1", Quantity: 3})
	require.NoError(t, err)
	line, err := c.Carts().Update(context.Background(), "p 1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, line.Quantity)

	require.Len(t, got, 2)
	assert.Equal(t, "POST", got[0]["_method"])
	assert.Equal(t, "p 1", got[0]["product_id"])
	assert.EqualValues(t, 3, got[0]["quantity"])
	assert.Equal(t, "PATCH", got[1]["_method"])
	assert.Equal(t, "/cart/items/p 1", got[1]["_path"])
}

func TestClient_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		kind   syncerr.Kind
	}{
		{http.StatusUnauthorized, syncerr.KindRemoteUnauthorized},
		{http.StatusForbidden, syncerr.KindRemoteUnauthorized},
		{http.StatusNotFound, syncerr.KindRemoteNotFound},
		{http.StatusConflict, syncerr.KindRemoteConflict},
		{http.StatusBadRequest, syncerr.KindRemoteRejected},
		{http.StatusServiceUnavailable, syncerr.KindRemoteTransient},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			}, "tok")

			err := c.Favorites().Create(context.Background(), "p1")
			require.Error(t, err)
			assert.Equal(t, tc.kind, syncerr.KindOf(err))
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestClient_NetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, staticToken("tok"))
	require.NoError(t, err)

	_, err = c.Carts().List(context.Background())
	require.Error(t, err)
	assert.Equal(t, syncerr.KindRemoteTransient, syncerr.KindOf(err))
}

func TestClient_NoTokenIsUnauthorized(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true }, "")

	err := c.Favorites().Remove(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrNoIdentity)
	assert.Equal(t, syncerr.KindRemoteUnauthorized, syncerr.KindOf(err))
	assert.False(t, called)
}

func TestSiteConfig_GetIsPublic(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"site_name":"Shop","site_logo_url":"https://cdn/logo.png"}`))
	}, "")

	cfg, err := c.SiteConfig().Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Shop", cfg.SiteName)
	assert.Equal(t, "https://cdn/logo.png", cfg.LogoURL())
}

func TestAdminCarts_RemoveLinePath(t *testing.T) {
	var path, method string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path, method = r.URL.Path, r.Method
		w.WriteHeader(http.StatusNoContent)
	}, "tok")

	require.NoError(t, c.AdminCarts().RemoveLine(context.Background(), "u1", "p1"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/admin/carts/u1/items/p1", path)
}

func TestNewClient_BadURL(t *testing.T) {
	_, err := NewClient("", nil)
	assert.Error(t, err)

	c, err := NewClient("127.0.0.1:8080/api/", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080/api", c.baseURL.String())
}
