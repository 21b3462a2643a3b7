package report

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/emtct/emtct/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard/stats", h.Stats)
	api.GET("/reminders", h.Reminders)
	api.GET("/infants/export", h.ExportCSV)
	api.GET("/reports/districts", h.Districts, auth.RequireRole(auth.RoleDistrict, auth.RoleAdmin))
}

func actor(c echo.Context) (auth.Actor, error) {
	a, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return auth.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return a, nil
}

func (h *Handler) Stats(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	stats, err := h.svc.Stats(c.Request().Context(), a)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) Reminders(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	reminders, err := h.svc.Reminders(c.Request().Context(), a)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if reminders == nil {
		reminders = []Reminder{}
	}
	return c.JSON(http.StatusOK, reminders)
}

func (h *Handler) Districts(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	summaries, err := h.svc.DistrictSummaries(c.Request().Context(), a)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if summaries == nil {
		summaries = []DistrictSummary{}
	}
	return c.JSON(http.StatusOK, summaries)
}

func (h *Handler) ExportCSV(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	filename := fmt.Sprintf("EMTCT_Report_%s.csv", time.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Response().WriteHeader(http.StatusOK)
	return h.svc.WriteCSV(c.Request().Context(), a, c.Response())
}
