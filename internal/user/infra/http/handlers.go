package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/hammerdown/auctionhouse/internal/shared/httpserver"
	"github.com/hammerdown/auctionhouse/internal/user/application"
	"github.com/hammerdown/auctionhouse/internal/user/domain"
)

// callerKey is the fiber.Locals key holding the authenticated caller's ID.
const callerKey = "callerID"

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthHandler serves registration and login.
type AuthHandler struct {
	auth *application.AuthService
}

func NewAuthHandler(auth *application.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register handles POST /register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if _, err := h.auth.Register(c.Context(), req.Username, req.Password); err != nil {
		return httpserver.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User registered successfully"})
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	token, err := h.auth.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":  "Login successful",
		"token":    token,
		"username": req.Username,
	})
}

// RequireAuth resolves the bearer token into a trusted caller identity and
// stores it in the request locals. Everything behind it can assume Caller
// returns a valid user ID.
func RequireAuth(auth *application.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return httpserver.RespondError(c, domain.ErrInvalidToken)
		}
		callerID, err := auth.ResolveCaller(token)
		if err != nil {
			return httpserver.RespondError(c, err)
		}
		c.Locals(callerKey, callerID)
		return c.Next()
	}
}

// Caller returns the authenticated caller ID set by RequireAuth.
func Caller(c *fiber.Ctx) uuid.UUID {
	return c.Locals(callerKey).(uuid.UUID)
}
