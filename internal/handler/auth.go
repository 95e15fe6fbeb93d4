package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kinohub/cinema-scheduling/internal/config"
	"github.com/kinohub/cinema-scheduling/internal/utils"
)

// staffAccountID identifies the single built-in staff account in token
// subjects and audit columns.
const staffAccountID uint64 = 1

// AuthHandler issues access tokens for the box-office staff account
// configured through STAFF_EMAIL and STAFF_PASSWORD_HASH.
type AuthHandler struct {
	cfg config.Config
}

func NewAuthHandler(cfg config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// Login handles POST /v1/auth/login.  Credentials are checked against the
// configured staff account; on success it returns a bearer token and its
// expiry.
func (h *AuthHandler) Login(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}
	if !strings.EqualFold(email, h.cfg.StaffEmail) || !utils.VerifyPassword(h.cfg.StaffPassHash, body.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	tok, err := utils.NewStaffToken(h.cfg.JWTSecret, staffAccountID, "STAFF", h.cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": tok.Token,
		"expires_at":   tok.Exp,
		"token_type":   "Bearer",
	})
}
