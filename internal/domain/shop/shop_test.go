package shop

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_PriceAcceptsStringOrNumber(t *testing.T) {
	var fromString, fromNumber Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","price":"12.50"}`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","price":12.5}`), &fromNumber))

	assert.True(t, NormalizePrice(fromString.Price).Equal(NormalizePrice(fromNumber.Price)))
	assert.Equal(t, "12.50", NormalizePrice(fromNumber.Price).StringFixed(PriceScale))
}

func TestLineFor_RoundsPrice(t *testing.T) {
	p := Product{ID: "p1", Name: "Beans", Price: decimal.RequireFromString("3.14159")}

	line := LineFor(p, 2)
	assert.Equal(t, "p1", line.Key())
	assert.Equal(t, "3.14", line.UnitPrice.String())
	assert.Equal(t, "6.28", line.Subtotal().String())
	assert.True(t, line.Valid())
}

func TestCartLine_Valid_ZeroQuantity(t *testing.T) {
	assert.False(t, CartLine{ProductID: "p1", Quantity: 0}.Valid())
	assert.False(t, CartLine{ProductID: " ", Quantity: 1}.Valid())
}

func TestSiteConfig_LogoURL(t *testing.T) {
	assert.Equal(t, "", DefaultSiteConfig.LogoURL())

	logo := "https://cdn.example/logo.png"
	assert.Equal(t, logo, SiteConfig{SiteLogoURL: &logo}.LogoURL())
}
