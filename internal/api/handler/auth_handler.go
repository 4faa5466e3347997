package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/haven-app/haven-api/internal/api/metrics"
	"github.com/haven-app/haven-api/internal/core/domain"
	"github.com/haven-app/haven-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type signupRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type resetRequestSchema struct {
	Email string `json:"email" validate:"required"`
}

type resetConfirmSchema struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type validateResponse struct {
	Valid bool         `json:"valid"`
	User  *domain.User `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Signup registers a new account and returns a bearer token for it.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  ports.AuthResult
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	timer := prometheus.NewTimer(metrics.AuthRequestDuration.WithLabelValues("signup"))
	result, err := h.authService.Signup(c.Request().Context(), req.Email, req.Password, req.Name)
	timer.ObserveDuration()

	metrics.SignupsTotal.WithLabelValues(outcomeLabel(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

// Login authenticates an account and returns a bearer token.
//
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  ports.AuthResult
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	timer := prometheus.NewTimer(metrics.AuthRequestDuration.WithLabelValues("login"))
	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	timer.ObserveDuration()

	metrics.LoginsTotal.WithLabelValues(outcomeLabel(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Validate checks the caller's bearer token and returns the current account.
//
// @Summary      Validate token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  validateResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/validate [get]
func (h *AuthHandler) Validate(c echo.Context) error {
	tok := bearerToken(c.Request().Header.Get("Authorization"))

	timer := prometheus.NewTimer(metrics.AuthRequestDuration.WithLabelValues("validate"))
	user, err := h.authService.Validate(c.Request().Context(), tok)
	timer.ObserveDuration()

	metrics.TokenValidationsTotal.WithLabelValues(outcomeLabel(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, validateResponse{Valid: true, User: user})
}

// RequestReset accepts a password-reset request. The response is identical
// whether or not the email is registered.
//
// @Summary      Request password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetRequestSchema  true  "Account email"
// @Success      202   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/reset/request [post]
func (h *AuthHandler) RequestReset(c echo.Context) error {
	var req resetRequestSchema
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.authService.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}

	metrics.ResetRequestsTotal.Inc()
	return c.JSON(http.StatusAccepted, messageResponse{
		Message: "If an account exists, a reset link has been sent.",
	})
}

// ConfirmReset trades a reset token for a password change.
//
// @Summary      Confirm password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetConfirmSchema  true  "Reset token and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/reset/confirm [post]
func (h *AuthHandler) ConfirmReset(c echo.Context) error {
	var req resetConfirmSchema
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	timer := prometheus.NewTimer(metrics.AuthRequestDuration.WithLabelValues("reset_confirm"))
	err := h.authService.ConfirmPasswordReset(c.Request().Context(), req.Token, req.Password)
	timer.ObserveDuration()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Password updated successfully."})
}

// bearerToken extracts the token from an Authorization header. Anything that
// is not a two-part bearer scheme reads as "no token".
func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// outcomeLabel folds a service error into a bounded metric label.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrUserExists):
		return "conflict"
	case errors.Is(err, domain.ErrMissingFields):
		return "invalid_input"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrMissingToken):
		return "missing_token"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	default:
		return "error"
	}
}
