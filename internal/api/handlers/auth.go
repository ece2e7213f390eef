package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dom/jumbah-travel/internal/api/middleware"
	"github.com/dom/jumbah-travel/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type UserResponse struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

type ProfileResponse struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
	Message  string `json:"message"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.authService.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredentials):
			Error(w, http.StatusBadRequest, "Username and password are required")
		case errors.Is(err, service.ErrUsernameExists):
			Error(w, http.StatusBadRequest, "Username already exists")
		default:
			slog.Error("handlers.Register: failed", "error", err)
			Error(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	JSON(w, http.StatusCreated, RegisterResponse{
		Message: "User registered successfully",
		UserID:  user.ID.String(),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredentials):
			Error(w, http.StatusBadRequest, "Username and password are required")
		case errors.Is(err, service.ErrInvalidCredentials):
			Error(w, http.StatusUnauthorized, "Invalid username or password")
		default:
			slog.Error("handlers.Login: failed", "error", err)
			Error(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	JSON(w, http.StatusOK, LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
		User: UserResponse{
			Username: result.User.Username,
			UserID:   result.User.ID.String(),
		},
	})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			Error(w, http.StatusUnauthorized, "User not found")
			return
		}
		slog.Error("handlers.Profile: failed", "error", err, "user_id", identity.UserID)
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	JSON(w, http.StatusOK, ProfileResponse{
		Username: user.Username,
		UserID:   user.ID.String(),
		Message:  "Profile retrieved successfully",
	})
}
