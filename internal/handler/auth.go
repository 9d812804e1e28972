package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pentopublic/backend/internal/config"
	"github.com/pentopublic/backend/internal/model"
	"github.com/pentopublic/backend/internal/repository"
	"github.com/pentopublic/backend/internal/utils"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users}
}

// registerRequest is the signup payload.  Bio applies to authors,
// isSubscribed to readers; the other role ignores the field.
type registerRequest struct {
	Email        string `json:"email"`
	UserName     string `json:"userName"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	Bio          string `json:"bio"`
	IsSubscribed bool   `json:"isSubscribed"`
}

// Register creates a reader, author or admin account.  Admins are written to
// their own credential table; everyone else gets a registration, a user row
// and a role detail row in one transaction.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.UserName = strings.TrimSpace(req.UserName)
	req.Email = strings.TrimSpace(req.Email)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))

	if req.Email == "" || req.UserName == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, userName and password are required"})
	}
	if !model.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be reader, author or admin"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var (
		id  uint64
		err error
	)
	if req.Role == model.RoleAdmin {
		id, err = h.Users.RegisterAdmin(ctx, req.UserName, req.Email, req.Password, h.Cfg.BcryptCost)
	} else {
		id, err = h.Users.RegisterUser(ctx, req.Email, req.UserName, req.Password,
			req.Role, req.Bio, req.IsSubscribed, h.Cfg.BcryptCost)
	}
	if err == repository.ErrIdentityExists {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username or email already registered"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not register user"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Registration successful",
		"userId":  id,
		"role":    req.Role,
	})
}

type loginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// Login authenticates against the admins table first and falls back to the
// registrations table.  Both failure modes return the same message so the
// response does not leak which usernames exist.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	admin, err := h.Users.GetAdminByUserName(ctx, req.UserName)
	if err == nil {
		if !utils.VerifyPassword(admin.Password, req.Password) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid username or password"})
		}
		return h.issueToken(c, admin.AdminID, model.RoleAdmin, admin.UserName)
	}
	if err != repository.ErrNotFound {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not log in"})
	}

	user, err := h.Users.GetLoginByUserName(ctx, req.UserName)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid username or password"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not log in"})
	}
	if !utils.VerifyPassword(user.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid username or password"})
	}
	return h.issueToken(c, user.UserID, user.Role, user.UserName)
}

func (h *AuthHandler) issueToken(c echo.Context, subjectID uint64, role, name string) error {
	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, subjectID, role, name, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token":    tok.Token,
		"userId":   subjectID,
		"role":     role,
		"userName": name,
	})
}
