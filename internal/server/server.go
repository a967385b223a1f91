package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Repos はusecaseに渡す永続化の実装（gorm または memrepo）。
type Repos struct {
	Products     repo.ProductRepository
	CartItems    repo.CartItemRepository
	Favorites    repo.FavoriteRepository
	SiteSettings repo.SiteSettingRepository
	AuditLogs    repo.AuditLogRepository
	Tx           repo.TransactionManager
}

// New はusecaseとハンドラを組み立てたechoを返す。
func New(cfg config.Config, r Repos, logger *slog.Logger) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))
	if cfg.FEURL != "" {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: []string{cfg.FEURL},
		}))
	}

	productUC := usecase.NewProductUsecase(r.Products, r.Tx)
	cartUC := usecase.NewCartUsecase(r.CartItems, r.Products)
	favoriteUC := usecase.NewFavoriteUsecase(r.Favorites, r.Products)
	siteConfigUC := usecase.NewSiteConfigUsecase(r.SiteSettings, r.Tx)
	adminCartUC := usecase.NewAdminCartUsecase(r.CartItems, r.Products, r.Tx)
	auditLogUC := usecase.NewAuditLogUsecase(r.AuditLogs)

	RegisterRoutes(e, cfg, Handlers{
		Products:      handler.NewProductHandler(productUC),
		Cart:          handler.NewCartHandler(cartUC),
		Favorites:     handler.NewFavoriteHandler(favoriteUC),
		SiteConfig:    handler.NewSiteConfigHandler(siteConfigUC),
		AdminProducts: handler.NewAdminProductHandler(productUC),
		AdminCarts:    handler.NewAdminCartHandler(adminCartUC),
		AuditLogs:     handler.NewAuditLogHandler(auditLogUC),
	})
	return e
}

// Start はctxが終わるまで待ち受け、終わったらgraceful shutdownする。
func Start(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
