package admin

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medisense/medisense/internal/platform/auth"
	"github.com/medisense/medisense/internal/platform/httperr"
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
	g.GET("/users", h.listUsers)
	g.GET("/users/:id", h.userDetail)
	g.PUT("/users/:id/toggle-status", h.toggleUserStatus)
	g.GET("/analytics/predictions", h.predictionAnalytics)
}

func (h *Handler) dashboard(c echo.Context) error {
	d, err := h.svc.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":            true,
		"system_stats":       d.SystemStats,
		"role_distribution":  d.RoleDistribution,
		"common_diseases":    d.CommonDiseases,
		"recent_users":       d.RecentUsers,
		"recent_predictions": d.RecentPredictions,
		"weekly_trend":       d.WeeklyTrend,
	})
}

func (h *Handler) listUsers(c echo.Context) error {
	filter := UserFilter{
		Role:   strings.TrimSpace(c.QueryParam("role")),
		Search: strings.TrimSpace(c.QueryParam("search")),
	}
	p := pagination.FromContext(c)
	resp, err := h.svc.ListUsers(c.Request().Context(), filter, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) userDetail(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}
	detail, err := h.svc.UserDetail(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"user":        detail.User,
		"predictions": detail.Predictions,
		"stats":       detail.Stats,
	})
}

func (h *Handler) toggleUserStatus(c echo.Context) error {
	targetID, err := parseUserID(c)
	if err != nil {
		return err
	}
	adminID := auth.UserIDFromContext(c.Request().Context())

	active, err := h.svc.ToggleUserStatus(c.Request().Context(), adminID, targetID)
	if err != nil {
		return err
	}

	message := "User deactivated successfully"
	if active {
		message = "User activated successfully"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"message":   message,
		"is_active": active,
	})
}

func (h *Handler) predictionAnalytics(c echo.Context) error {
	days, _ := strconv.Atoi(c.QueryParam("days"))
	analytics, err := h.svc.PredictionAnalytics(c.Request().Context(), days)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":              true,
		"time_range":           analytics.TimeRange,
		"daily_predictions":    analytics.DailyPredictions,
		"disease_frequency":    analytics.DiseaseFrequency,
		"confidence_analytics": analytics.ConfidenceAnalytics,
	})
}

func parseUserID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, httperr.Validation("invalid user id").WithCause(err)
	}
	return id, nil
}
