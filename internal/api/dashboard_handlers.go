package api

import (
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"vidoptimize/internal/database"
	"vidoptimize/internal/models"
)

const (
	defaultRecentLimit = 5
	maxRecentLimit     = 50

	performanceLabelLayout = "Jan 2"
)

var performancePoints = map[string]int{
	"week":  7,
	"month": 30,
	"year":  365,
}

type Trends struct {
	Optimizations string `json:"optimizations" example:"+12%"`
	Views         string `json:"views" example:"+24%"`
	Engagement    string `json:"engagement" example:"+8%"`
	ActiveVideos  string `json:"activeVideos" example:"+15%"`
}

type StatsResponse struct {
	TotalOptimizations int    `json:"totalOptimizations"`
	TotalViews         int64  `json:"totalViews"`
	AvgEngagement      int64  `json:"avgEngagement"`
	ActiveVideos       int    `json:"activeVideos"`
	Trends             Trends `json:"trends"`
}

type QuotaResponse struct {
	Used       int         `json:"used" example:"3"`
	Limit      int         `json:"limit" example:"10"`
	Percentage float64     `json:"percentage" example:"30"`
	Plan       models.Plan `json:"plan" example:"free"`
}

type Dataset struct {
	Label string `json:"label" example:"Views"`
	Data  []int  `json:"data"`
}

type PerformanceResponse struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// @Summary      Dashboard statistics
// @Description  Aggregates the user's optimizations. Trend figures are placeholders.
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StatsResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /dashboard/stats [get]
func (s *Server) StatsHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	stats, err := s.store.GetOptimizationStats(r.Context(), user.ID)
	if err != nil {
		s.internalError(w, r, "Failed to get dashboard stats", err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse(stats))
}

func statsResponse(stats *database.OptimizationStats) StatsResponse {
	return StatsResponse{
		TotalOptimizations: stats.TotalOptimizations,
		TotalViews:         stats.TotalViews,
		AvgEngagement:      int64(math.Round(stats.AvgEngagement)),
		ActiveVideos:       stats.ActiveVideos,
		Trends: Trends{
			Optimizations: "+12%",
			Views:         "+24%",
			Engagement:    "+8%",
			ActiveVideos:  "+15%",
		},
	}
}

// @Summary      Quota usage
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  QuotaResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /dashboard/quota [get]
func (s *Server) QuotaHandler(w http.ResponseWriter, r *http.Request) {
	current := GetUserFromContext(r.Context())

	user, err := s.store.GetUserByID(r.Context(), current.ID)
	if err != nil {
		s.internalError(w, r, "Failed to get quota", err)
		return
	}
	if user == nil {
		notFound(w, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, QuotaResponse{
		Used:       user.QuotaUsed,
		Limit:      user.QuotaLimit,
		Percentage: user.QuotaPercentage(),
		Plan:       user.Plan,
	})
}

// @Summary      Recent optimizations
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Number of optimizations (default 5, max 50)"
// @Success      200    {object}  HistoryResponse
// @Failure      401    {object}  ErrorResponse
// @Failure      500    {object}  ErrorResponse
// @Router       /dashboard/recent [get]
func (s *Server) RecentHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	optimizations, err := s.store.ListOptimizations(r.Context(), database.ListOptimizationsParams{
		UserID: user.ID,
		Limit:  recentLimit(r.URL.Query().Get("limit")),
	})
	if err != nil {
		s.internalError(w, r, "Failed to get recent optimizations", err)
		return
	}

	writeJSON(w, http.StatusOK, HistoryResponse{Optimizations: optimizations})
}

func recentLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultRecentLimit
	}
	return min(limit, maxRecentLimit)
}

// @Summary      Performance chart data
// @Description  Returns one mocked point per day for the period, oldest first.
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Param        period  query     string  false  "week, month or year"  default(week)
// @Success      200     {object}  PerformanceResponse
// @Failure      401     {object}  ErrorResponse
// @Router       /dashboard/performance [get]
func (s *Server) PerformanceHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mockPerformance(r.URL.Query().Get("period"), time.Now()))
}

// mockPerformance builds the chart ending at now. An empty period is a week;
// any other unknown period is a year.
func mockPerformance(period string, now time.Time) PerformanceResponse {
	if period == "" {
		period = "week"
	}
	points, ok := performancePoints[period]
	if !ok {
		points = performancePoints["year"]
	}

	labels := make([]string, 0, points)
	views := make([]int, 0, points)
	engagement := make([]int, 0, points)
	for i := points - 1; i >= 0; i-- {
		labels = append(labels, now.AddDate(0, 0, -i).Format(performanceLabelLayout))
		views = append(views, rand.IntN(1000)+500)
		engagement = append(engagement, rand.IntN(100)+50)
	}

	return PerformanceResponse{
		Labels: labels,
		Datasets: []Dataset{
			{Label: "Views", Data: views},
			{Label: "Engagement", Data: engagement},
		},
	}
}
