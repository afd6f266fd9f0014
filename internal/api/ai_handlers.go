package api

import (
	"net/http"
	"strings"

	"vidoptimize/internal/metrics"
	"vidoptimize/internal/suggest"
)

type TitleAssistRequest struct {
	VideoURL     string `json:"videoUrl" example:"https://youtu.be/dQw4w9WgXcQ"`
	CurrentTitle string `json:"currentTitle"`
}

type TitleAssistResponse struct {
	Titles  []suggest.TitleSuggestion `json:"titles"`
	YTTitle *string                   `json:"ytTitle"`
}

// @Summary      Title suggestions with the public video title
// @Description  Looks up the video's public title and returns it with three title suggestions. Refused once the quota is used up.
// @Tags         ai
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        titleRequest  body      TitleAssistRequest  true  "Video URL and optional current title"
// @Success      200           {object}  TitleAssistResponse
// @Failure      400           {object}  ErrorResponse
// @Failure      401           {object}  ErrorResponse
// @Failure      403           {object}  ErrorResponse "Quota exceeded"
// @Router       /ai/title [post]
func (s *Server) AITitleHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req TitleAssistRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	req.VideoURL = strings.TrimSpace(req.VideoURL)
	if req.VideoURL == "" {
		badRequest(w, "videoUrl is required")
		return
	}

	if user.QuotaExceeded() {
		metrics.RecordQuotaRejection()
		quotaExceeded(w)
		return
	}

	titles, videoTitle := s.suggest.TitlesWithVideoTitle(r.Context(), req.VideoURL, req.CurrentTitle)

	resp := TitleAssistResponse{Titles: titles}
	if videoTitle != "" {
		resp.YTTitle = &videoTitle
	}
	writeJSON(w, http.StatusOK, resp)
}
