package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"vidoptimize/internal/database"
	"vidoptimize/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testVideoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func doRequest(t *testing.T, method, path string, body interface{}, token string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rr := httptest.NewRecorder()
	testRouter.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst), rr.Body.String())
}

func refreshCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	t.Fatalf("response did not set the %s cookie", refreshCookieName)
	return nil
}

func uniqueEmail() string {
	return "user-" + uuid.NewString()[:8] + "@example.com"
}

type testAccount struct {
	user    models.User
	token   string
	refresh *http.Cookie
}

func registerAccount(t *testing.T) testAccount {
	t.Helper()
	rr := doRequest(t, http.MethodPost, "/api/auth/register", RegisterRequest{
		Name:     "Test User",
		Email:    uniqueEmail(),
		Password: "secret123",
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp AuthResponse
	decodeBody(t, rr, &resp)
	return testAccount{user: *resp.User, token: resp.Token, refresh: refreshCookie(t, rr)}
}

func setQuota(t *testing.T, userID string, used, limit int) {
	t.Helper()
	_, err := testPool.Exec(context.Background(),
		`UPDATE users SET quota_used = $2, quota_limit = $3 WHERE id = $1`, userID, used, limit)
	require.NoError(t, err)
}

func quotaUsed(t *testing.T, userID string) int {
	t.Helper()
	user, err := testServer.store.GetUserByID(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user.QuotaUsed
}

func saveOptimization(t *testing.T, token string, req SaveOptimizationRequest) *httptest.ResponseRecorder {
	t.Helper()
	return doRequest(t, http.MethodPost, "/api/optimizations/save", req, token)
}

func requireNoSecrets(t *testing.T, raw []byte) {
	t.Helper()
	require.NotContains(t, string(raw), `"password`)
	require.NotContains(t, string(raw), `"refresh_token"`)
}

func TestRegisterLoginProfile_Integration(t *testing.T) {
	rr := doRequest(t, http.MethodPost, "/api/auth/register", RegisterRequest{
		Name: "A", Email: "a@x.com", Password: "secret123",
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	requireNoSecrets(t, rr.Body.Bytes())

	var registered AuthResponse
	decodeBody(t, rr, &registered)
	require.Equal(t, "Registration successful", registered.Message)
	require.NotEmpty(t, registered.Token)
	require.Equal(t, "a@x.com", registered.User.Email)
	require.Equal(t, models.PlanFree, registered.User.Plan)
	require.Equal(t, 10, registered.User.QuotaLimit)

	cookie := refreshCookie(t, rr)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	require.Equal(t, "/", cookie.Path)
	require.False(t, cookie.Secure)
	require.Equal(t, 7*24*60*60, cookie.MaxAge)

	rr = doRequest(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: "A@X.com", Password: "secret123"}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	requireNoSecrets(t, rr.Body.Bytes())

	var loggedIn AuthResponse
	decodeBody(t, rr, &loggedIn)
	require.Equal(t, "Login successful", loggedIn.Message)
	require.Equal(t, registered.User.ID, loggedIn.User.ID)

	for _, path := range []string{"/api/users/profile", "/api/auth/profile"} {
		rr = doRequest(t, http.MethodGet, path, nil, loggedIn.Token)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		requireNoSecrets(t, rr.Body.Bytes())

		var profile map[string]interface{}
		decodeBody(t, rr, &profile)
		require.Equal(t, "a@x.com", profile["email"])
		require.NotContains(t, profile, "password")
		require.NotContains(t, profile, "password_hash")
	}
}

func TestRegisterHandler_Validation(t *testing.T) {
	existing := registerAccount(t)

	tests := []struct {
		name    string
		body    interface{}
		message string
	}{
		{"missing name", RegisterRequest{Email: uniqueEmail(), Password: "secret123"}, "All fields are required"},
		{"missing password", RegisterRequest{Name: "X", Email: uniqueEmail()}, "All fields are required"},
		{"bad email", RegisterRequest{Name: "X", Email: "not-an-email", Password: "secret123"}, "Invalid email format"},
		{"duplicate email", RegisterRequest{Name: "X", Email: strings.ToUpper(existing.user.Email), Password: "secret123"}, "Email already registered"},
		{"malformed json", "{", "Invalid request body"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doRequest(t, http.MethodPost, "/api/auth/register", tc.body, "")
			require.Equal(t, http.StatusBadRequest, rr.Code)

			var resp ErrorResponse
			decodeBody(t, rr, &resp)
			require.Equal(t, tc.message, resp.Error)
		})
	}
}

func TestLoginHandler_Integration(t *testing.T) {
	account := registerAccount(t)

	t.Run("missing fields", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: account.user.Email}, "")
		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Contains(t, rr.Body.String(), "Email and password are required")
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: account.user.Email, Password: "nope"}, "")
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		require.Contains(t, rr.Body.String(), "Invalid credentials")
	})

	t.Run("unknown email", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: uniqueEmail(), Password: "secret123"}, "")
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		require.Contains(t, rr.Body.String(), "Invalid credentials")
	})

	t.Run("login invalidates the previous refresh token", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: account.user.Email, Password: "secret123"}, "")
		require.Equal(t, http.StatusOK, rr.Code)
		require.NotEqual(t, account.refresh.Value, refreshCookie(t, rr).Value)

		rr = doRequest(t, http.MethodPost, "/api/auth/refresh", nil, "", account.refresh)
		require.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestRefreshTokenHandler_Integration(t *testing.T) {
	account := registerAccount(t)

	rr := doRequest(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: account.user.Email, Password: "secret123"}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	loginCookie := refreshCookie(t, rr)

	rr = doRequest(t, http.MethodPost, "/api/auth/refresh", nil, "", loginCookie)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	requireNoSecrets(t, rr.Body.Bytes())

	var refreshed AuthResponse
	decodeBody(t, rr, &refreshed)
	require.NotEmpty(t, refreshed.Token)
	require.Equal(t, account.user.ID, refreshed.User.ID)

	rotated := refreshCookie(t, rr)
	require.NotEqual(t, loginCookie.Value, rotated.Value)

	rr = doRequest(t, http.MethodGet, "/api/users/profile", nil, refreshed.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, http.MethodPost, "/api/auth/refresh", nil, "", loginCookie)
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Contains(t, rr.Body.String(), "Refresh token not recognized")

	// Reuse is journaled but the current token keeps working.
	events, err := testServer.store.GetEventsSince(context.Background(), account.user.ID, 0)
	require.NoError(t, err)
	var reused bool
	for _, e := range events {
		if e.EventType == database.EventRefreshTokenReuse {
			reused = true
		}
	}
	require.True(t, reused)

	rr = doRequest(t, http.MethodPost, "/api/auth/refresh", nil, "", rotated)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRefreshTokenHandler_Rejections(t *testing.T) {
	account := registerAccount(t)

	t.Run("no cookie", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/api/auth/refresh", nil, "")
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		require.Contains(t, rr.Body.String(), "No refresh token")
	})

	t.Run("garbage token", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/api/auth/refresh", nil, "", &http.Cookie{Name: refreshCookieName, Value: "garbage"})
		require.Equal(t, http.StatusForbidden, rr.Code)
		require.Contains(t, rr.Body.String(), "Invalid or expired refresh token")
	})

	t.Run("access token used as refresh token", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/api/auth/refresh", nil, "", &http.Cookie{Name: refreshCookieName, Value: account.token})
		require.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("failed refresh leaves the stored token unchanged", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/api/auth/refresh", nil, "", account.refresh)
		require.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestLogoutHandler_Integration(t *testing.T) {
	account := registerAccount(t)

	rr := doRequest(t, http.MethodPost, "/api/auth/logout", nil, account.token)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Logout successful")

	cleared := refreshCookie(t, rr)
	require.Empty(t, cleared.Value)
	require.Negative(t, cleared.MaxAge)

	rr = doRequest(t, http.MethodPost, "/api/auth/refresh", nil, "", account.refresh)
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = doRequest(t, http.MethodPost, "/api/auth/logout", nil, "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func signAccessToken(t *testing.T, userID string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.NewWithClaims(jwt.SigningMethodHS256, struct {
		UserID string `json:"userId"`
		Email  string `json:"email"`
		jwt.RegisteredClaims
	}{
		UserID: userID,
		Email:  "ghost@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "vidoptimize",
			IssuedAt:  jwt.NewNumericDate(expiresAt.Add(-15 * time.Minute)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	token, err := claims.SignedString([]byte("api_access_secret"))
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware_Integration(t *testing.T) {
	account := registerAccount(t)

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"no header", "", http.StatusUnauthorized, "Access denied. No token provided."},
		{"wrong scheme", "Basic " + account.token, http.StatusUnauthorized, "Access denied. No token provided."},
		{"garbage token", "Bearer not.a.jwt", http.StatusForbidden, "Invalid token."},
		{"refresh token", "Bearer " + account.refresh.Value, http.StatusForbidden, "Invalid token."},
		{"expired token", "Bearer " + signAccessToken(t, account.user.ID, time.Now().Add(-time.Minute)), http.StatusForbidden, "Token expired."},
		{"deleted user", "Bearer " + signAccessToken(t, uuid.NewString(), time.Now().Add(time.Minute)), http.StatusUnauthorized, "User no longer exists."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			testRouter.ServeHTTP(rr, req)

			require.Equal(t, tc.status, rr.Code)
			var resp ErrorResponse
			decodeBody(t, rr, &resp)
			require.Equal(t, tc.message, resp.Error)
		})
	}
}

func TestSuggestHandler_Integration(t *testing.T) {
	account := registerAccount(t)

	t.Run("all kinds without an API key", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/api/optimizations/suggest", SuggestRequest{VideoURL: testVideoURL}, account.token)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var resp struct {
			Suggestions struct {
				Titles []struct {
					Title string `json:"title"`
				} `json:"titles"`
				Description struct {
					Description string `json:"description"`
					Metrics     struct {
						CharacterCount int `json:"characterCount"`
						SEOScore       int `json:"seoScore"`
					} `json:"metrics"`
				} `json:"description"`
				Tags []string `json:"tags"`
			} `json:"suggestions"`
		}
		decodeBody(t, rr, &resp)
		require.Len(t, resp.Suggestions.Titles, 3)
		require.Equal(t, testVideoTitle+" - Complete Guide 2025", resp.Suggestions.Titles[0].Title)
		require.NotEmpty(t, resp.Suggestions.Description.Description)
		require.Positive(t, resp.Suggestions.Description.Metrics.CharacterCount)
		require.Positive(t, resp.Suggestions.Description.Metrics.SEOScore)
		require.Len(t, resp.Suggestions.Tags, 10)
	})

	t.Run("titles only", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/api/optimizations/suggest", SuggestRequest{
			VideoURL: testVideoURL, CurrentTitle: "Bread", Type: "title",
		}, account.token)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			Suggestions []struct {
				Title string `json:"title"`
			} `json:"suggestions"`
		}
		decodeBody(t, rr, &resp)
		require.Len(t, resp.Suggestions, 3)
		require.Equal(t, "Bread - Complete Guide 2025", resp.Suggestions[0].Title)
	})

	t.Run("tags only", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/api/optimizations/suggest", SuggestRequest{VideoURL: testVideoURL, Type: "tags"}, account.token)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			Suggestions []string `json:"suggestions"`
		}
		decodeBody(t, rr, &resp)
		require.Len(t, resp.Suggestions, 10)
	})

	t.Run("description only", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/api/optimizations/suggest", SuggestRequest{VideoURL: testVideoURL, Type: "description"}, account.token)
		require.Equal(t, http.StatusOK, rr.Code)
		require.Contains(t, rr.Body.String(), `"description"`)
		require.Contains(t, rr.Body.String(), `"keywordDensity"`)
	})

	t.Run("missing url", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/api/optimizations/suggest", SuggestRequest{}, account.token)
		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Contains(t, rr.Body.String(), "Video URL is required")
	})

	t.Run("quota exhausted", func(t *testing.T) {
		setQuota(t, account.user.ID, 10, 10)

		rr := doRequest(t, http.MethodPost, "/api/optimizations/suggest", SuggestRequest{VideoURL: testVideoURL}, account.token)
		require.Equal(t, http.StatusForbidden, rr.Code)

		var resp ErrorResponse
		decodeBody(t, rr, &resp)
		require.Equal(t, "Quota exceeded", resp.Error)
		require.Equal(t, "You have reached your optimization limit. Please upgrade your plan.", resp.Message)
		require.Equal(t, 10, quotaUsed(t, account.user.ID))
	})
}

func TestSaveOptimizationHandler_Integration(t *testing.T) {
	account := registerAccount(t)
	optimized := "Better Title"

	rr := saveOptimization(t, account.token, SaveOptimizationRequest{
		VideoURL:       testVideoURL,
		VideoTitle:     "My Video",
		OptimizedTitle: &optimized,
		Tags:           []string{"a", "b"},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp SaveOptimizationResponse
	decodeBody(t, rr, &resp)
	require.Equal(t, "Optimization saved successfully", resp.Message)
	require.Equal(t, models.StatusCompleted, resp.Optimization.Status)
	require.Equal(t, []string{"a", "b"}, resp.Optimization.Tags)
	require.Equal(t, optimized, *resp.Optimization.OptimizedTitle)
	require.Nil(t, resp.Optimization.OriginalTitle)
	require.GreaterOrEqual(t, resp.Optimization.Metrics.Views, 0)
	require.Less(t, resp.Optimization.Metrics.Views, 10000)
	require.LessOrEqual(t, resp.Optimization.Metrics.ClickRate, 10.0)
	require.Equal(t, 1, quotaUsed(t, account.user.ID))

	t.Run("missing fields", func(t *testing.T) {
		rr := saveOptimization(t, account.token, SaveOptimizationRequest{VideoURL: testVideoURL})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Contains(t, rr.Body.String(), "Video URL and title are required")
	})

	t.Run("invalid status", func(t *testing.T) {
		rr := saveOptimization(t, account.token, SaveOptimizationRequest{VideoURL: testVideoURL, VideoTitle: "x", Status: "archived"})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Equal(t, 1, quotaUsed(t, account.user.ID))
	})

	t.Run("quota exhausted", func(t *testing.T) {
		setQuota(t, account.user.ID, 10, 10)

		rr := saveOptimization(t, account.token, SaveOptimizationRequest{VideoURL: testVideoURL, VideoTitle: "x"})
		require.Equal(t, http.StatusForbidden, rr.Code)
		require.Contains(t, rr.Body.String(), "Quota exceeded")
		require.Equal(t, 10, quotaUsed(t, account.user.ID))
	})
}

func TestHistoryAndExport_Integration(t *testing.T) {
	account := registerAccount(t)

	rr := doRequest(t, http.MethodGet, "/api/optimizations/export", nil, account.token)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	require.Equal(t, "attachment; filename=optimizations.csv", rr.Header().Get("Content-Disposition"))
	require.Equal(t, `"Date","Video Title","Original Title","Optimized Title","Status","Views","Engagement"`, rr.Body.String())

	for _, req := range []SaveOptimizationRequest{
		{VideoURL: testVideoURL, VideoTitle: "Baking Bread at Home"},
		{VideoURL: testVideoURL, VideoTitle: `The "Best" Pizza`, Status: "pending"},
		{VideoURL: testVideoURL, VideoTitle: "100% Rye"},
	} {
		require.Equal(t, http.StatusCreated, saveOptimization(t, account.token, req).Code)
	}

	rr = doRequest(t, http.MethodGet, "/api/optimizations/history", nil, account.token)
	require.Equal(t, http.StatusOK, rr.Code)
	var history HistoryResponse
	decodeBody(t, rr, &history)
	require.Len(t, history.Optimizations, 3)
	require.Equal(t, "100% Rye", history.Optimizations[0].VideoTitle)

	rr = doRequest(t, http.MethodGet, "/api/optimizations/history?search=BREAD", nil, account.token)
	decodeBody(t, rr, &history)
	require.Len(t, history.Optimizations, 1)
	require.Equal(t, "Baking Bread at Home", history.Optimizations[0].VideoTitle)

	rr = doRequest(t, http.MethodGet, "/api/optimizations/history?search=%25", nil, account.token)
	decodeBody(t, rr, &history)
	require.Len(t, history.Optimizations, 1)

	rr = doRequest(t, http.MethodGet, "/api/optimizations/history?status=pending", nil, account.token)
	decodeBody(t, rr, &history)
	require.Len(t, history.Optimizations, 1)
	require.Equal(t, models.StatusPending, history.Optimizations[0].Status)

	rr = doRequest(t, http.MethodGet, "/api/optimizations/history?status=bogus", nil, account.token)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(t, http.MethodGet, "/api/optimizations/export", nil, account.token)
	require.Equal(t, http.StatusOK, rr.Code)
	lines := strings.Split(rr.Body.String(), "\n")
	require.Len(t, lines, 4)
	require.Contains(t, rr.Body.String(), `"The ""Best"" Pizza"`)
	for _, line := range lines[1:] {
		require.True(t, strings.HasPrefix(line, `"`))
		require.True(t, strings.HasSuffix(line, `"`))
	}
}

func TestDashboardHandlers_Integration(t *testing.T) {
	account := registerAccount(t)

	for i := 0; i < 3; i++ {
		status := ""
		if i == 2 {
			status = "failed"
		}
		rr := saveOptimization(t, account.token, SaveOptimizationRequest{VideoURL: testVideoURL, VideoTitle: "Video", Status: status})
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	t.Run("stats", func(t *testing.T) {
		rr := doRequest(t, http.MethodGet, "/api/dashboard/stats", nil, account.token)
		require.Equal(t, http.StatusOK, rr.Code)

		var stats StatsResponse
		decodeBody(t, rr, &stats)
		require.Equal(t, 3, stats.TotalOptimizations)
		require.Equal(t, 2, stats.ActiveVideos)
		require.Equal(t, "+12%", stats.Trends.Optimizations)
		require.Equal(t, "+15%", stats.Trends.ActiveVideos)
	})

	t.Run("quota", func(t *testing.T) {
		rr := doRequest(t, http.MethodGet, "/api/dashboard/quota", nil, account.token)
		require.Equal(t, http.StatusOK, rr.Code)

		var quota QuotaResponse
		decodeBody(t, rr, &quota)
		require.Equal(t, 3, quota.Used)
		require.Equal(t, 10, quota.Limit)
		require.InDelta(t, 30.0, quota.Percentage, 0.001)
		require.Equal(t, models.PlanFree, quota.Plan)
	})

	t.Run("recent", func(t *testing.T) {
		rr := doRequest(t, http.MethodGet, "/api/dashboard/recent?limit=2", nil, account.token)
		require.Equal(t, http.StatusOK, rr.Code)

		var recent HistoryResponse
		decodeBody(t, rr, &recent)
		require.Len(t, recent.Optimizations, 2)
		require.Equal(t, models.StatusFailed, recent.Optimizations[0].Status)
	})

	t.Run("performance", func(t *testing.T) {
		rr := doRequest(t, http.MethodGet, "/api/dashboard/performance?period=month", nil, account.token)
		require.Equal(t, http.StatusOK, rr.Code)

		var perf PerformanceResponse
		decodeBody(t, rr, &perf)
		require.Len(t, perf.Labels, 30)
		require.Len(t, perf.Datasets, 2)
		require.Equal(t, "Views", perf.Datasets[0].Label)
		require.Len(t, perf.Datasets[1].Data, 30)
	})
}

func TestAITitleHandler_Integration(t *testing.T) {
	account := registerAccount(t)

	rr := doRequest(t, http.MethodPost, "/api/ai/title", TitleAssistRequest{VideoURL: "https://youtu.be/dQw4w9WgXcQ"}, account.token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp TitleAssistResponse
	decodeBody(t, rr, &resp)
	require.Len(t, resp.Titles, 3)
	require.NotNil(t, resp.YTTitle)
	require.Equal(t, testVideoTitle, *resp.YTTitle)
	require.Equal(t, testVideoTitle+" - Complete Guide 2025", resp.Titles[0].Title)

	rr = doRequest(t, http.MethodPost, "/api/ai/title", TitleAssistRequest{VideoURL: "https://example.com/video"}, account.token)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"ytTitle":null`)
	require.Contains(t, rr.Body.String(), "Amazing Video - Complete Guide 2025")

	rr = doRequest(t, http.MethodPost, "/api/ai/title", TitleAssistRequest{}, account.token)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "videoUrl is required")

	setQuota(t, account.user.ID, 10, 10)
	rr = doRequest(t, http.MethodPost, "/api/ai/title", TitleAssistRequest{VideoURL: testVideoURL}, account.token)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestProfileAndSettings_Integration(t *testing.T) {
	account := registerAccount(t)

	bio := "I bake."
	empty := "  "
	rr := doRequest(t, http.MethodPut, "/api/users/profile", UpdateProfileRequest{Name: &empty, Bio: &bio}, account.token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	requireNoSecrets(t, rr.Body.Bytes())

	var profile ProfileResponse
	decodeBody(t, rr, &profile)
	require.Equal(t, "Profile updated successfully", profile.Message)
	require.Equal(t, "Test User", profile.User.Name)
	require.Equal(t, bio, *profile.User.Bio)

	rr = doRequest(t, http.MethodGet, "/api/users/settings", nil, account.token)
	require.Equal(t, http.StatusOK, rr.Code)
	var settings models.Settings
	decodeBody(t, rr, &settings)
	require.Equal(t, models.DefaultSettings(), settings)

	rr = doRequest(t, http.MethodPut, "/api/users/settings", map[string]interface{}{
		"notifications": map[string]bool{"sms": true},
		"privacy":       map[string]bool{"showActivity": true},
	}, account.token)
	require.Equal(t, http.StatusOK, rr.Code)
	var updated SettingsResponse
	decodeBody(t, rr, &updated)
	require.Equal(t, "Settings updated successfully", updated.Message)
	require.True(t, updated.Settings.Notifications.Email)
	require.True(t, updated.Settings.Notifications.SMS)
	require.True(t, updated.Settings.Privacy.ShowActivity)
	require.True(t, updated.Settings.Privacy.ShowProfile)
}

func TestGetEventsHandler_Integration(t *testing.T) {
	account := registerAccount(t)

	rr := doRequest(t, http.MethodGet, "/api/events", nil, account.token)
	require.Equal(t, http.StatusOK, rr.Code)

	var events []EventResponse
	decodeBody(t, rr, &events)
	require.NotEmpty(t, events)
	require.Equal(t, database.EventUserRegistered, events[0].EventType)

	require.Equal(t, http.StatusCreated, saveOptimization(t, account.token, SaveOptimizationRequest{VideoURL: testVideoURL, VideoTitle: "x"}).Code)

	rr = doRequest(t, http.MethodGet, "/api/events?since="+strconv.FormatInt(events[len(events)-1].ID, 10), nil, account.token)
	require.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &events)
	require.Len(t, events, 1)
	require.Equal(t, database.EventOptimizationSaved, events[0].EventType)

	rr = doRequest(t, http.MethodGet, "/api/events?since=abc", nil, account.token)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealthAndNotFound(t *testing.T) {
	rr := doRequest(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"status":"ok"`)

	for _, path := range []string{"/nope", "/api/nope"} {
		rr = doRequest(t, http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusNotFound, rr.Code)
		require.JSONEq(t, `{"error":"Endpoint not found"}`, rr.Body.String())
	}
}

func TestAuthRateLimit_Integration(t *testing.T) {
	limited := NewServer(testServer.config, testServer.store, testTokens, testServer.suggest, NewRateLimiter(0.001, 2), testServer.logger).Router()

	login := func() int {
		body, _ := json.Marshal(LoginRequest{Email: uniqueEmail(), Password: "secret123"})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		limited.ServeHTTP(rr, req)
		return rr.Code
	}

	require.Equal(t, http.StatusUnauthorized, login())
	require.Equal(t, http.StatusUnauthorized, login())
	require.Equal(t, http.StatusTooManyRequests, login())
}

func TestAuthRateLimit_IgnoresForwardedHeaders(t *testing.T) {
	limited := NewServer(testServer.config, testServer.store, testTokens, testServer.suggest, NewRateLimiter(0.001, 1), testServer.logger).Router()

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		body, _ := json.Marshal(LoginRequest{Email: uniqueEmail(), Password: "secret123"})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
		req.RemoteAddr = "198.51.100.7:4000"
		req.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i+1))
		req.Header.Set("X-Real-IP", "203.0.113."+strconv.Itoa(i+1))
		req.Header.Set("True-Client-IP", "203.0.113."+strconv.Itoa(i+1))
		rr := httptest.NewRecorder()
		limited.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	require.Equal(t, http.StatusUnauthorized, codes[0])
	for _, code := range codes[1:] {
		require.Equal(t, http.StatusTooManyRequests, code)
	}
}
