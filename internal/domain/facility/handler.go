package facility

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler serves the registry lists used by registration and account forms.
type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/facilities", h.ListFacilities)
	api.GET("/districts", h.ListDistricts)
}

func (h *Handler) ListFacilities(c echo.Context) error {
	facilities, err := h.repo.ListFacilities(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if facilities == nil {
		facilities = []Facility{}
	}
	return c.JSON(http.StatusOK, facilities)
}

func (h *Handler) ListDistricts(c echo.Context) error {
	districts, err := h.repo.ListDistricts(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if districts == nil {
		districts = []District{}
	}
	return c.JSON(http.StatusOK, districts)
}
