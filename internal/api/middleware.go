package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"vidoptimize/internal/auth"
	"vidoptimize/internal/models"
)

type contextKey string

const (
	claimsContextKey = contextKey("claims")
	userContextKey   = contextKey("user")
)

// AuthMiddleware verifies the bearer access token and loads the user it names.
// Expired and invalid tokens are refused with 403 so clients know to refresh;
// a missing token or a deleted user is 401.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			unauthenticated(w, "Access denied. No token provided.")
			return
		}

		claims, err := s.tokens.Verify(tokenString, auth.AccessToken)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				forbidden(w, "Token expired.")
				return
			}
			forbidden(w, "Invalid token.")
			return
		}

		user, err := s.store.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			s.internalError(w, r, "Authentication error", err)
			return
		}
		if user == nil {
			unauthenticated(w, "User no longer exists.")
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		ctx = context.WithValue(ctx, userContextKey, user)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.Contains(token, " ") {
		return "", false
	}
	return token, true
}

func GetClaimsFromContext(ctx context.Context) *auth.AppClaims {
	if claims, ok := ctx.Value(claimsContextKey).(*auth.AppClaims); ok {
		return claims
	}
	return nil
}

// GetUserFromContext returns the user loaded by AuthMiddleware for this request.
func GetUserFromContext(ctx context.Context) *models.User {
	if user, ok := ctx.Value(userContextKey).(*models.User); ok {
		return user
	}
	return nil
}
