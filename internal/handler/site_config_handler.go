package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type SiteConfigUpdateRequest struct {
	Value string `json:"value"`
}

// GET /site-config（公開）と PUT /admin/site-config/:key
type SiteConfigHandler struct {
	uc *usecase.SiteConfigUsecase
}

// DI
func NewSiteConfigHandler(uc *usecase.SiteConfigUsecase) *SiteConfigHandler {
	return &SiteConfigHandler{uc: uc}
}

func (h *SiteConfigHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	e.GET("/site-config", h.get)

	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.AdminRoleGuard())

	admin.PUT("/site-config/:key", h.set)
}

func (h *SiteConfigHandler) get(c echo.Context) error {
	out, err := h.uc.Get(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SiteConfigHandler) set(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req SiteConfigUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.Set(c.Request().Context(), adminID, c.Param("key"), req.Value); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
