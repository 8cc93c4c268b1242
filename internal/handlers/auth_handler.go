package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/volunteerhub/backend/internal/auth/middleware"
	"github.com/volunteerhub/backend/internal/auth/service"
	"github.com/volunteerhub/backend/internal/models"
	"go.uber.org/zap"
)

// AccountService is the interface that wraps methods for account business logic.
type AccountService interface {
	// Method Register validates the request, creates an account with the default role and issues a session token.
	//
	// "req" parameter contains name, email and password.
	//
	// If fields are missing or the email is taken, an InvalidInput or Conflict error is returned.
	// Any storage, hashing or signing failure is returned as an Infrastructure error.
	Register(ctx context.Context, req *models.RegisterRequest) (*models.PublicUser, string, error)
	// Method Login verifies credentials and issues a session token.
	//
	// "req" parameter contains email and password.
	//
	// An unknown email and a wrong password both return the same Unauthenticated error.
	Login(ctx context.Context, req *models.LoginRequest) (*models.PublicUser, string, error)
	// Method CurrentUser re-fetches the account named by verified claims.
	//
	// If the account was removed after the token was issued, a NotFound error is returned.
	CurrentUser(ctx context.Context, claims *service.Claims) (*models.PublicUser, error)
}

// CookieSettings controls the attributes of the session cookie
type CookieSettings struct {
	Secure bool
	MaxAge time.Duration
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	accountService AccountService
	cookie         CookieSettings
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	accountService AccountService,
	cookie CookieSettings,
	logger *zap.Logger,
) *AuthHandler {
	if cookie.MaxAge <= 0 {
		cookie.MaxAge = service.DefaultTokenExpiry
	}
	return &AuthHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		accountService: accountService,
		cookie:         cookie,
	}
}

// RegisterRoutes registers all auth handler routes.
// "gate" guards the routes that need an authenticated caller.
func (h *AuthHandler) RegisterRoutes(r chi.Router, gate func(http.Handler) http.Handler) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.With(gate).Get("/me", h.Me)
}

// Register handles POST /register
// @Summary Register a new account
// @Description Create an account with the user role. Returns the public user and a session token, also set as an HTTP-only cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration request"
// @Success 201 {object} models.AuthResponse
// @Failure 400 {object} map[string]string "Missing fields or account exists"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.accountService.Register(r.Context(), &req)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.setTokenCookie(w, token)
	h.RespondJSON(w, http.StatusCreated, models.AuthResponse{
		Message: "user registered successfully",
		User:    user,
		Token:   token,
	})
}

// Login handles POST /login
// @Summary Login
// @Description Authenticate with email and password. Returns the public user and a session token, also set as an HTTP-only cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} models.AuthResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.accountService.Login(r.Context(), &req)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.setTokenCookie(w, token)
	h.RespondJSON(w, http.StatusOK, models.AuthResponse{
		Message: "login successful",
		User:    user,
		Token:   token,
	})
}

// Me handles GET /me
// @Summary Current user
// @Description Return the account of the authenticated caller, re-read from storage.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserResponse
// @Failure 401 {object} map[string]string "No token provided, token expired or invalid token"
// @Failure 404 {object} map[string]string "User not found"
// @Router /me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())

	user, err := h.accountService.CurrentUser(r.Context(), claims)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.UserResponse{User: user})
}

// Logout handles POST /logout
// @Summary Logout
// @Description Clear the session cookie. Issued tokens stay valid until they expire.
// @Tags auth
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Router /logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearTokenCookie(w)
	h.RespondJSON(w, http.StatusOK, models.MessageResponse{Message: "logged out successfully"})
}

// setTokenCookie sets the session token as an HTTP-only cookie
func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, h.tokenCookie(token, int(h.cookie.MaxAge.Seconds())))
}

// clearTokenCookie expires the session cookie with the attributes it was set with
func (h *AuthHandler) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, h.tokenCookie("", -1))
}

func (h *AuthHandler) tokenCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
