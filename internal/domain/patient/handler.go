package patient

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medisense/medisense/internal/platform/auth"
	"github.com/medisense/medisense/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/dashboard", h.dashboard)
	g.GET("/history", h.history)
	g.GET("/recent-activity", h.recentActivity)
}

func (h *Handler) dashboard(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	d, err := h.svc.Dashboard(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":         true,
		"stats":           d.Stats,
		"recent_activity": d.RecentActivity,
	})
}

func (h *Handler) history(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	p := pagination.FromContext(c)
	resp, err := h.svc.History(c.Request().Context(), userID, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) recentActivity(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	activities, err := h.svc.RecentActivity(c.Request().Context(), userID, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"activities": activities,
		"count":      len(activities),
	})
}
