package account

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medisense/medisense/internal/platform/auth"
	"github.com/medisense/medisense/internal/platform/httperr"
)

type Handler struct {
	svc     *Service
	devMode bool
}

// NewHandler wires the account endpoints. In devMode the forgot-password
// response carries the raw reset token instead of relying on mail delivery.
func NewHandler(svc *Service, devMode bool) *Handler {
	return &Handler{svc: svc, devMode: devMode}
}

func (h *Handler) RegisterRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/demo-login", h.demoLogin)
	g.POST("/forgot-password", h.forgotPassword)
	g.POST("/reset-password", h.resetPassword)

	g.GET("/profile", h.profile, requireAuth)
	g.PUT("/profile", h.updateProfile, requireAuth)
	g.GET("/validate-token", h.validateToken, requireAuth)
}

type authResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}

func (h *Handler) register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return httperr.Validation("invalid request body").WithCause(err)
	}
	res, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, authResponse{
		Success: true,
		Message: "registration successful",
		Token:   res.Token,
		User:    res.User,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c echo.Context) error {
	var in loginRequest
	if err := c.Bind(&in); err != nil {
		return httperr.Validation("invalid request body").WithCause(err)
	}
	res, err := h.svc.Login(c.Request().Context(), in.Email, in.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		Message: "login successful",
		Token:   res.Token,
		User:    res.User,
	})
}

func (h *Handler) demoLogin(c echo.Context) error {
	res, err := h.svc.DemoLogin(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		Message: "demo login successful",
		Token:   res.Token,
		User:    res.User,
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type forgotPasswordResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	ResetToken string `json:"reset_token,omitempty"`
}

func (h *Handler) forgotPassword(c echo.Context) error {
	var in forgotPasswordRequest
	if err := c.Bind(&in); err != nil {
		return httperr.Validation("invalid request body").WithCause(err)
	}
	token, err := h.svc.RequestPasswordReset(c.Request().Context(), in.Email)
	if err != nil {
		return err
	}
	resp := forgotPasswordResponse{
		Success: true,
		Message: "if the email exists, a reset link has been sent",
	}
	if h.devMode {
		resp.ResetToken = token
	}
	return c.JSON(http.StatusOK, resp)
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) resetPassword(c echo.Context) error {
	var in resetPasswordRequest
	if err := c.Bind(&in); err != nil {
		return httperr.Validation("invalid request body").WithCause(err)
	}
	if err := h.svc.ResetPassword(c.Request().Context(), in.Token, in.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "password has been reset",
	})
}

func (h *Handler) profile(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	u, err := h.svc.Profile(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": u})
}

func (h *Handler) updateProfile(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	var upd ProfileUpdate
	if err := c.Bind(&upd); err != nil {
		return httperr.Validation("invalid request body").WithCause(err)
	}
	u, err := h.svc.UpdateProfile(c.Request().Context(), userID, upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "profile updated",
		"user":    u,
	})
}

// validateToken re-checks the account behind an already verified token so
// clients can detect deactivation without waiting for expiry.
func (h *Handler) validateToken(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	u, err := h.svc.Profile(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if !u.IsActive {
		return httperr.Auth("account is deactivated")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "valid": true, "user": u})
}
