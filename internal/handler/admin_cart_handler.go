package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/carts（任意ユーザーのカート）
type AdminCartHandler struct {
	uc *usecase.AdminCartUsecase
}

// DI
func NewAdminCartHandler(uc *usecase.AdminCartUsecase) *AdminCartHandler {
	return &AdminCartHandler{uc: uc}
}

func (h *AdminCartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	admin := e.Group("/admin")

	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/carts/:user_id", h.listLines)
	admin.DELETE("/carts/:user_id/items/:product_id", h.removeLine)
}

func (h *AdminCartHandler) listLines(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.ListLines(c.Request().Context(), adminID, c.Param("user_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminCartHandler) removeLine(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.RemoveLine(c.Request().Context(), adminID, c.Param("user_id"), c.Param("product_id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
