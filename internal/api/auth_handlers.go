package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"vidoptimize/internal/auth"
	"vidoptimize/internal/database"
	"vidoptimize/internal/metrics"
	"vidoptimize/internal/models"

	"github.com/google/uuid"
)

const refreshCookieName = "refreshToken"

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100" example:"Ada Lovelace"`
	Email    string `json:"email" validate:"required,email,max=254" example:"ada@example.com"`
	Password string `json:"password" validate:"required,max=72" example:"secret123"`
}

type LoginRequest struct {
	Email    string `json:"email" example:"ada@example.com"`
	Password string `json:"password" example:"secret123"`
}

type AuthResponse struct {
	Message string       `json:"message,omitempty" example:"Login successful"`
	Token   string       `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	User    *models.User `json:"user"`
}

// @Summary      Register a new account
// @Description  Creates a user on the free plan, returns an access token and sets the refresh token cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        registerRequest  body      RegisterRequest  true  "Account details"
// @Success      201              {object}  AuthResponse
// @Failure      400              {object}  ErrorResponse
// @Failure      429              {object}  ErrorResponse
// @Failure      500              {object}  ErrorResponse
// @Router       /auth/register [post]
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = database.NormalizeEmail(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		badRequest(w, "All fields are required")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		badRequest(w, validationMessage(err))
		return
	}

	existing, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		s.internalError(w, r, "Registration failed", err)
		return
	}
	if existing != nil {
		badRequest(w, "Email already registered")
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			badRequest(w, "password is too long")
			return
		}
		s.internalError(w, r, "Registration failed", err)
		return
	}

	userID := uuid.NewString()
	pair, err := s.tokens.IssuePair(userID, req.Email)
	if err != nil {
		s.internalError(w, r, "Registration failed", err)
		return
	}

	user, err := s.store.CreateUser(r.Context(), database.CreateUserParams{
		ID:           userID,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hashedPassword,
		RefreshToken: &pair.RefreshToken,
	})
	if err != nil {
		if errors.Is(err, database.ErrEmailTaken) {
			badRequest(w, "Email already registered")
			return
		}
		s.internalError(w, r, "Registration failed", err)
		return
	}

	s.logEvent(r, user.ID, database.EventUserRegistered, map[string]string{"email": user.Email})
	s.setRefreshCookie(w, pair.RefreshToken)

	writeJSON(w, http.StatusCreated, AuthResponse{
		Message: "Registration successful",
		Token:   pair.AccessToken,
		User:    user,
	})
}

// @Summary      Log in
// @Description  Verifies credentials, returns an access token and sets a new refresh token cookie. Any previous refresh token stops working.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        loginRequest  body      LoginRequest  true  "Login Credentials"
// @Success      200           {object}  AuthResponse
// @Failure      400           {object}  ErrorResponse
// @Failure      401           {object}  ErrorResponse
// @Failure      429           {object}  ErrorResponse
// @Failure      500           {object}  ErrorResponse
// @Router       /auth/login [post]
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	req.Email = database.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		badRequest(w, "Email and password are required")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		s.internalError(w, r, "Login failed", err)
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		unauthenticated(w, "Invalid credentials")
		return
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Email)
	if err != nil {
		s.internalError(w, r, "Login failed", err)
		return
	}

	if err := s.store.SetRefreshToken(r.Context(), user.ID, &pair.RefreshToken); err != nil {
		s.internalError(w, r, "Login failed", err)
		return
	}

	s.logEvent(r, user.ID, database.EventUserLoggedIn, nil)
	s.setRefreshCookie(w, pair.RefreshToken)

	writeJSON(w, http.StatusOK, AuthResponse{
		Message: "Login successful",
		Token:   pair.AccessToken,
		User:    user,
	})
}

// @Summary      Refresh access token
// @Description  Exchanges the refresh token cookie for a new access token and rotates the cookie. Each refresh token works once.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  AuthResponse
// @Failure      401  {object}  ErrorResponse "No refresh token"
// @Failure      403  {object}  ErrorResponse "Invalid, expired or already used refresh token"
// @Failure      429  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/refresh [post]
func (s *Server) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		unauthenticated(w, "No refresh token")
		return
	}
	oldToken := cookie.Value

	claims, err := s.tokens.Verify(oldToken, auth.RefreshToken)
	if err != nil {
		metrics.RecordRefreshRotation("invalid")
		forbidden(w, "Invalid or expired refresh token")
		return
	}

	user, err := s.store.GetUserByRefreshToken(r.Context(), oldToken)
	if err != nil {
		s.internalError(w, r, "Failed to refresh token", err)
		return
	}
	if user == nil {
		s.refreshTokenReused(r, claims)
		forbidden(w, "Refresh token not recognized")
		return
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Email)
	if err != nil {
		s.internalError(w, r, "Failed to refresh token", err)
		return
	}

	if err := s.store.RotateRefreshToken(r.Context(), user.ID, oldToken, pair.RefreshToken); err != nil {
		if errors.Is(err, database.ErrRefreshTokenNotRecognized) {
			s.refreshTokenReused(r, claims)
			forbidden(w, "Refresh token not recognized")
			return
		}
		s.internalError(w, r, "Failed to refresh token", err)
		return
	}

	metrics.RecordRefreshRotation("rotated")
	s.logEvent(r, user.ID, database.EventTokenRefreshed, nil)
	s.setRefreshCookie(w, pair.RefreshToken)

	writeJSON(w, http.StatusOK, AuthResponse{
		Token: pair.AccessToken,
		User:  user,
	})
}

// refreshTokenReused records a correctly signed refresh token that is no
// longer the stored one. The current session is left alone.
func (s *Server) refreshTokenReused(r *http.Request, claims *auth.AppClaims) {
	metrics.RecordRefreshRotation("reused")
	s.requestLogger(r).Warn().
		Str("user_id", claims.UserID).
		Str("jti", claims.ID).
		Msg("refresh token reuse detected")
	s.logEvent(r, claims.UserID, database.EventRefreshTokenReuse, map[string]string{"jti": claims.ID})
}

// @Summary      Log out
// @Description  Revokes the stored refresh token and clears the cookie.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/logout [post]
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	if err := s.store.ClearRefreshToken(r.Context(), user.ID); err != nil && !errors.Is(err, database.ErrUserNotFound) {
		s.internalError(w, r, "Logout failed", err)
		return
	}

	var payload map[string]string
	if claims := GetClaimsFromContext(r.Context()); claims != nil {
		payload = map[string]string{"jti": claims.ID}
	}
	s.logEvent(r, user.ID, database.EventUserLoggedOut, payload)
	s.clearRefreshCookie(w)

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logout successful"})
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.RefreshTokenTTL / time.Second),
		Expires:  time.Now().Add(auth.RefreshTokenTTL),
		HttpOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

// logEvent appends to the activity journal. Journal failures never fail the
// request.
func (s *Server) logEvent(r *http.Request, userID, eventType string, payload interface{}) {
	if err := s.store.LogEvent(r.Context(), userID, eventType, payload); err != nil {
		s.requestLogger(r).Warn().Err(err).Str("event_type", eventType).Msg("failed to journal event")
	}
}
