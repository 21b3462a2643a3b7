package infant

import (
	"errors"
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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/infants")
	g.GET("", h.List)
	g.POST("", h.Register)
	g.GET("/:id", h.Get)
	g.PUT("/:id/tests/:test", h.RecordTestResult)
	g.PUT("/:id/status", h.UpdateStatus)
	g.PUT("/:id/outcome", h.RecordOutcome)
}

// httpError maps domain errors onto status codes: unknown record 404,
// out-of-scope 403, validation 400.
func httpError(err error) error {
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "infant not found")
	case errors.Is(err, ErrOutOfScope):
		return echo.NewHTTPError(http.StatusForbidden, "record outside your scope")
	case errors.Is(err, ErrInvalidDate), errors.Is(err, ErrMissingScope), errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (h *Handler) List(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	items, err := h.svc.ListForActor(c.Request().Context(), actor)
	if err != nil {
		return httpError(err)
	}
	pg := pagination.FromContext(c)
	total := len(items)
	page := []*Infant{}
	if pg.Offset < total {
		end := pg.Offset + pg.Limit
		if end > total {
			end = total
		}
		page = items[pg.Offset:end]
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(page, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	inf, err := h.svc.GetForActor(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, inf)
}

func (h *Handler) Register(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var d Draft
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inf, err := h.svc.Register(c.Request().Context(), actor, d)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, inf)
}

func (h *Handler) RecordTestResult(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var upd TestResultUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	upd.Test = TestType(c.Param("test"))
	inf, err := h.svc.RecordTestResult(c.Request().Context(), actor, c.Param("id"), upd)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, inf)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var upd StatusUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inf, err := h.svc.UpdateStatus(c.Request().Context(), actor, c.Param("id"), upd)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, inf)
}

func (h *Handler) RecordOutcome(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var upd OutcomeUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inf, err := h.svc.RecordOutcome(c.Request().Context(), actor, c.Param("id"), upd)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, inf)
}
