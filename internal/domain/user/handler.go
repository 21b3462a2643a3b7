package user

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/emtct/emtct/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterPublicRoutes mounts login outside the JWT middleware.
func (h *Handler) RegisterPublicRoutes(api *echo.Group) {
	api.POST("/auth/login", h.Login)
}

// RegisterRoutes mounts the admin-only account management endpoints.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/users", auth.RequireRole(auth.RoleAdmin))
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:id/status", h.SetStatus)
}

type loginRequest struct {
	Email string `json:"email"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, token, err := h.svc.Login(c.Request().Context(), req.Email)
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown email")
	case errors.Is(err, ErrInactive):
		return echo.NewHTTPError(http.StatusForbidden, "account is inactive")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, User: u})
}

func (h *Handler) List(c echo.Context) error {
	users, err := h.svc.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if users == nil {
		users = []*User{}
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) Create(c echo.Context) error {
	var d Draft
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.svc.Create(c.Request().Context(), d)
	if errors.Is(err, ErrDuplicateEmail) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, u)
}

type statusRequest struct {
	Status AccountStatus `json:"status"`
}

func (h *Handler) SetStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.svc.SetStatus(c.Request().Context(), id, req.Status)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, u)
}
