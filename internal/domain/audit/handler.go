package audit

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/emtct/emtct/internal/platform/auth"
	"github.com/emtct/emtct/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes exposes the trail to admins only.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/audit-log", auth.RequireRole(auth.RoleAdmin))
	g.GET("", h.List)
}

func (h *Handler) List(c echo.Context) error {
	if recordID := c.QueryParam("infant_id"); recordID != "" {
		entries, err := h.svc.ListByInfant(c.Request().Context(), recordID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if entries == nil {
			entries = []Entry{}
		}
		return c.JSON(http.StatusOK, entries)
	}
	pg := pagination.FromContext(c)
	entries, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, pg.Limit, pg.Offset))
}
