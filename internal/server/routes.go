package server

import (
	"storefront/internal/config"
	"storefront/internal/handler"

	"github.com/labstack/echo/v4"
)

// Handlers はRemote Store APIのハンドラ一式。
type Handlers struct {
	Products      *handler.ProductHandler
	Cart          *handler.CartHandler
	Favorites     *handler.FavoriteHandler
	SiteConfig    *handler.SiteConfigHandler
	AdminProducts *handler.AdminProductHandler
	AdminCarts    *handler.AdminCartHandler
	AuditLogs     *handler.AuditLogHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	h.Products.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, cfg)
	h.Favorites.RegisterRoutes(e, cfg)
	h.SiteConfig.RegisterRoutes(e, cfg)
	h.AdminProducts.RegisterRoutes(e, cfg)
	h.AdminCarts.RegisterRoutes(e, cfg)
	h.AuditLogs.RegisterRoutes(e, cfg)
}
