package api

import (
	"errors"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"

	"vidoptimize/internal/database"
	"vidoptimize/internal/metrics"
	"vidoptimize/internal/models"
	"vidoptimize/internal/suggest"

	"github.com/google/uuid"
)

type SuggestRequest struct {
	VideoURL           string `json:"videoUrl" example:"https://www.youtube.com/watch?v=dQw4w9WgXcQ"`
	CurrentTitle       string `json:"currentTitle"`
	CurrentDescription string `json:"currentDescription"`
	Type               string `json:"type" example:"title" enums:"title,description,tags,all"`
}

type SuggestResponse struct {
	// One of []suggest.TitleSuggestion, suggest.DescriptionSuggestion,
	// []string or suggest.SuggestionSet depending on the requested type.
	Suggestions interface{} `json:"suggestions" swaggertype:"object"`
}

type SaveOptimizationRequest struct {
	VideoURL             string   `json:"videoUrl" validate:"max=2048"`
	VideoTitle           string   `json:"videoTitle" validate:"max=500"`
	OriginalTitle        *string  `json:"originalTitle"`
	OptimizedTitle       *string  `json:"optimizedTitle"`
	OriginalDescription  *string  `json:"originalDescription"`
	OptimizedDescription *string  `json:"optimizedDescription"`
	Tags                 []string `json:"tags" validate:"max=50"`
	Status               string   `json:"status" validate:"omitempty,oneof=completed pending failed" example:"completed"`
}

type SaveOptimizationResponse struct {
	Message      string               `json:"message" example:"Optimization saved successfully"`
	Optimization *models.Optimization `json:"optimization"`
}

type HistoryResponse struct {
	Optimizations []models.Optimization `json:"optimizations"`
}

// @Summary      Generate suggestions
// @Description  Produces title, description or tag suggestions for a video. Does not consume quota but is refused once the quota is used up.
// @Tags         optimizations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        suggestRequest  body      SuggestRequest  true  "Video and current metadata"
// @Success      200             {object}  SuggestResponse
// @Failure      400             {object}  ErrorResponse
// @Failure      401             {object}  ErrorResponse
// @Failure      403             {object}  ErrorResponse "Quota exceeded"
// @Router       /optimizations/suggest [post]
func (s *Server) SuggestHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req SuggestRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	req.VideoURL = strings.TrimSpace(req.VideoURL)
	if req.VideoURL == "" {
		badRequest(w, "Video URL is required")
		return
	}

	if user.QuotaExceeded() {
		metrics.RecordQuotaRejection()
		quotaExceeded(w)
		return
	}

	ctx := r.Context()
	var suggestions interface{}
	switch req.Type {
	case suggest.KindTitle:
		suggestions = s.suggest.Titles(ctx, req.VideoURL, req.CurrentTitle)
	case suggest.KindDescription:
		suggestions = s.suggest.Description(ctx, req.VideoURL, req.CurrentDescription)
	case suggest.KindTags:
		suggestions = s.suggest.Tags(ctx, req.VideoURL, req.CurrentTitle)
	default:
		suggestions = s.suggest.All(ctx, req.VideoURL, req.CurrentTitle, req.CurrentDescription)
	}

	writeJSON(w, http.StatusOK, SuggestResponse{Suggestions: suggestions})
}

// @Summary      Save an optimization
// @Description  Records an optimization and consumes one unit of quota atomically.
// @Tags         optimizations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        optimization  body      SaveOptimizationRequest  true  "Optimization to save"
// @Success      201           {object}  SaveOptimizationResponse
// @Failure      400           {object}  ErrorResponse
// @Failure      401           {object}  ErrorResponse
// @Failure      403           {object}  ErrorResponse "Quota exceeded"
// @Failure      404           {object}  ErrorResponse
// @Failure      500           {object}  ErrorResponse
// @Router       /optimizations/save [post]
func (s *Server) SaveOptimizationHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req SaveOptimizationRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	req.VideoURL = strings.TrimSpace(req.VideoURL)
	req.VideoTitle = strings.TrimSpace(req.VideoTitle)
	if req.VideoURL == "" || req.VideoTitle == "" {
		badRequest(w, "Video URL and title are required")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		badRequest(w, validationMessage(err))
		return
	}

	status := models.OptimizationStatus(req.Status)
	if status == "" {
		status = models.StatusCompleted
	}

	optimization, err := s.store.CreateOptimization(r.Context(), database.CreateOptimizationParams{
		ID:                   uuid.NewString(),
		UserID:               user.ID,
		VideoURL:             req.VideoURL,
		VideoTitle:           req.VideoTitle,
		OriginalTitle:        req.OriginalTitle,
		OptimizedTitle:       req.OptimizedTitle,
		OriginalDescription:  req.OriginalDescription,
		OptimizedDescription: req.OptimizedDescription,
		Tags:                 req.Tags,
		Status:               status,
		Metrics:              mockMetrics(),
	})
	if err != nil {
		switch {
		case errors.Is(err, database.ErrQuotaExceeded):
			metrics.RecordQuotaRejection()
			quotaExceeded(w)
		case errors.Is(err, database.ErrUserNotFound):
			notFound(w, "User not found")
		default:
			s.internalError(w, r, "Failed to save optimization", err)
		}
		return
	}

	s.logEvent(r, user.ID, database.EventOptimizationSaved, map[string]string{
		"optimization_id": optimization.ID,
		"video_url":       optimization.VideoURL,
	})

	writeJSON(w, http.StatusCreated, SaveOptimizationResponse{
		Message:      "Optimization saved successfully",
		Optimization: optimization,
	})
}

// mockMetrics stands in for real analytics until a YouTube integration exists.
func mockMetrics() models.OptimizationMetrics {
	return models.OptimizationMetrics{
		Views:      rand.IntN(10000),
		Engagement: rand.IntN(100),
		ClickRate:  math.Round(rand.Float64()*10*100) / 100,
	}
}

// @Summary      Optimization history
// @Description  Lists the user's optimizations newest first, optionally filtered by a case-insensitive title search and status.
// @Tags         optimizations
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Substring of the video title"
// @Param        status  query     string  false  "completed, pending or failed"
// @Success      200     {object}  HistoryResponse
// @Failure      400     {object}  ErrorResponse
// @Failure      401     {object}  ErrorResponse
// @Failure      500     {object}  ErrorResponse
// @Router       /optimizations/history [get]
func (s *Server) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	query := r.URL.Query()

	status := models.OptimizationStatus(query.Get("status"))
	if status != "" && !status.Valid() {
		badRequest(w, "status must be one of: completed pending failed")
		return
	}

	optimizations, err := s.store.ListOptimizations(r.Context(), database.ListOptimizationsParams{
		UserID: user.ID,
		Search: strings.TrimSpace(query.Get("search")),
		Status: status,
	})
	if err != nil {
		s.internalError(w, r, "Failed to get history", err)
		return
	}

	writeJSON(w, http.StatusOK, HistoryResponse{Optimizations: optimizations})
}

// @Summary      Export history as CSV
// @Description  Downloads every optimization of the user as a CSV file.
// @Tags         optimizations
// @Produce      text/csv
// @Security     BearerAuth
// @Success      200  {string}  string  "CSV file"
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /optimizations/export [get]
func (s *Server) ExportHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	optimizations, err := s.store.ListOptimizations(r.Context(), database.ListOptimizationsParams{UserID: user.ID})
	if err != nil {
		s.internalError(w, r, "Failed to export history", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=optimizations.csv")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(optimizationsCSV(optimizations)))
}
