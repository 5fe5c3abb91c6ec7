package handlers

import (
	"errors"
	"strings"

	"queueflow/internal/adapters/http/middleware"
	"queueflow/internal/core/services"
	"queueflow/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles operator authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles operator login
// @Summary Operator login
// @Description Login with username and password, returns a JWT access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return response.BadRequest(c, "Username and password are required")
	}

	result, err := h.authService.Login(c.UserContext(), &services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, services.ErrOperatorInactive) {
			return response.Forbidden(c, "Operator account is inactive")
		}
		return queueError(c, err)
	}

	return response.Success(c, "Login successful", result)
}

// Me returns the current operator
// @Summary Current operator
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	op, err := h.authService.GetOperatorByID(c.UserContext(), middleware.OperatorID(c))
	if err != nil {
		return queueError(c, err)
	}
	return response.Success(c, "Operator retrieved", op.ToResponse())
}
