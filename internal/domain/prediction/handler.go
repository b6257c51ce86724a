package prediction

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medisense/medisense/internal/platform/auth"
	"github.com/medisense/medisense/internal/platform/httperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the ML endpoints. The predict endpoint takes optional
// auth: an attached identity makes the result persist, anonymous calls do
// not. predict-authenticated requires a bearer token.
func (h *Handler) RegisterRoutes(g *echo.Group, optionalAuth, requireAuth echo.MiddlewareFunc) {
	g.POST("/predict", h.Predict, optionalAuth)
	g.POST("/predict-authenticated", h.PredictAuthenticated, requireAuth)
	g.GET("/symptoms/list", h.ListSymptoms)
	g.GET("/symptoms/search", h.SearchSymptoms)
	g.GET("/diseases/list", h.ListDiseases)
	g.POST("/validate-symptoms", h.ValidateSymptoms)
	g.GET("/model/info", h.ModelInfo)
	g.GET("/health", h.Health)
}

type predictRequest struct {
	Symptoms []string `json:"symptoms"`
}

type predictResponse struct {
	Success          bool            `json:"success"`
	PredictedDisease string          `json:"predicted_disease"`
	Confidence       float64         `json:"confidence"`
	Description      string          `json:"description"`
	Recommendations  Recommendations `json:"recommendations"`
	Symptoms         []string        `json:"symptoms"`
	PredictionID     *uuid.UUID      `json:"prediction_id,omitempty"`
	Timestamp        time.Time       `json:"timestamp"`
}

func (h *Handler) Predict(c echo.Context) error {
	return h.predict(c)
}

func (h *Handler) PredictAuthenticated(c echo.Context) error {
	return h.predict(c)
}

func (h *Handler) predict(c echo.Context) error {
	var req predictRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("symptoms list is required and must be an array")
	}

	userID := auth.UserIDFromContext(c.Request().Context())
	result, err := h.svc.Predict(c.Request().Context(), req.Symptoms, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, predictResponse{
		Success:          true,
		PredictedDisease: result.Outcome.Disease,
		Confidence:       result.Outcome.Confidence,
		Description:      result.Outcome.Description,
		Recommendations:  result.Outcome.Recommendations,
		Symptoms:         result.Symptoms,
		PredictionID:     result.RecordID,
		Timestamp:        result.Timestamp,
	})
}

func (h *Handler) ListSymptoms(c echo.Context) error {
	symptoms := h.svc.Symptoms()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"symptoms":    symptoms,
		"total_count": len(symptoms),
	})
}

func (h *Handler) SearchSymptoms(c echo.Context) error {
	query := c.QueryParam("q")
	limit := 10
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 50 {
		limit = 50
	}

	matches := h.svc.SearchSymptoms(query, limit)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"query":    query,
		"symptoms": matches,
		"count":    len(matches),
	})
}

func (h *Handler) ListDiseases(c echo.Context) error {
	diseases := h.svc.Diseases()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"diseases":    diseases,
		"total_count": len(diseases),
	})
}

type validateRequest struct {
	Symptoms []string `json:"symptoms"`
}

func (h *Handler) ValidateSymptoms(c echo.Context) error {
	var req validateRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("symptoms must be provided as an array")
	}

	result := h.svc.ValidateSymptoms(req.Symptoms)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":          true,
		"valid_symptoms":   result.Valid,
		"invalid_symptoms": result.Invalid,
		"suggestions":      result.Suggestions,
		"validation_summary": map[string]int{
			"total":   len(result.Valid) + len(result.Invalid),
			"valid":   len(result.Valid),
			"invalid": len(result.Invalid),
		},
	})
}

func (h *Handler) ModelInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":    true,
		"model_info": h.svc.Info(),
	})
}

func (h *Handler) Health(c echo.Context) error {
	status := h.svc.HealthCheck(c.Request().Context())
	if !status.Healthy {
		return httperr.Unavailable("prediction engine is not responding")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":         true,
		"status":          "healthy",
		"symptoms_count":  status.SymptomCount,
		"diseases_count":  status.DiseaseCount,
		"test_prediction": status.TestPredicted,
		"timestamp":       time.Now().UTC(),
	})
}
