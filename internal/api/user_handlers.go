package api

import (
	"errors"
	"net/http"
	"strings"

	"vidoptimize/internal/database"
	"vidoptimize/internal/models"
)

type UpdateProfileRequest struct {
	Name           *string `json:"name" validate:"omitempty,max=100" example:"Ada Lovelace"`
	YoutubeChannel *string `json:"youtubeChannel" validate:"omitempty,max=200" example:"https://youtube.com/@ada"`
	Bio            *string `json:"bio" validate:"omitempty,max=1000"`
	Avatar         *string `json:"avatar" validate:"omitempty,max=2048"`
}

type ProfileResponse struct {
	Message string       `json:"message" example:"Profile updated successfully"`
	User    *models.User `json:"user"`
}

type UpdateSettingsRequest struct {
	Notifications *struct {
		Email *bool `json:"email"`
		Push  *bool `json:"push"`
		SMS   *bool `json:"sms"`
	} `json:"notifications"`
	Privacy *struct {
		ShowProfile  *bool `json:"showProfile"`
		ShowActivity *bool `json:"showActivity"`
	} `json:"privacy"`
}

type SettingsResponse struct {
	Message  string           `json:"message" example:"Settings updated successfully"`
	Settings *models.Settings `json:"settings"`
}

// @Summary      Get current user profile
// @Description  Returns the authenticated user. Served on both /auth/profile and /users/profile.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.User
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /users/profile [get]
func (s *Server) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	current := GetUserFromContext(r.Context())

	user, err := s.store.GetUserByID(r.Context(), current.ID)
	if err != nil {
		s.internalError(w, r, "Failed to get profile", err)
		return
	}
	if user == nil {
		notFound(w, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// @Summary      Update current user profile
// @Description  Applies the supplied fields. An empty name is ignored.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        profile  body      UpdateProfileRequest  true  "Profile fields"
// @Success      200      {object}  ProfileResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /users/profile [put]
func (s *Server) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	current := GetUserFromContext(r.Context())

	var req UpdateProfileRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			req.Name = nil
		} else {
			req.Name = &trimmed
		}
	}
	if err := s.validate.Struct(req); err != nil {
		badRequest(w, validationMessage(err))
		return
	}

	user, err := s.store.UpdateUserProfile(r.Context(), current.ID, database.UpdateProfileParams{
		Name:           req.Name,
		YoutubeChannel: req.YoutubeChannel,
		Bio:            req.Bio,
		Avatar:         req.Avatar,
	})
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			notFound(w, "User not found")
			return
		}
		s.internalError(w, r, "Failed to update profile", err)
		return
	}

	s.logEvent(r, user.ID, database.EventProfileUpdated, nil)

	writeJSON(w, http.StatusOK, ProfileResponse{
		Message: "Profile updated successfully",
		User:    user,
	})
}

// @Summary      Get current user settings
// @Description  Returns notification and privacy settings, creating the defaults on first access.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Settings
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /users/settings [get]
func (s *Server) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	settings, err := s.store.GetOrCreateSettings(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			notFound(w, "User not found")
			return
		}
		s.internalError(w, r, "Failed to get settings", err)
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

// @Summary      Update current user settings
// @Description  Partially updates notification and privacy flags. Omitted flags keep their value.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        settings  body      UpdateSettingsRequest  true  "Settings to change"
// @Success      200       {object}  SettingsResponse
// @Failure      400       {object}  ErrorResponse
// @Failure      401       {object}  ErrorResponse
// @Failure      404       {object}  ErrorResponse
// @Failure      500       {object}  ErrorResponse
// @Router       /users/settings [put]
func (s *Server) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req UpdateSettingsRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	var params database.UpdateSettingsParams
	if n := req.Notifications; n != nil {
		params.EmailNotifications = n.Email
		params.PushNotifications = n.Push
		params.SMSNotifications = n.SMS
	}
	if p := req.Privacy; p != nil {
		params.ShowProfile = p.ShowProfile
		params.ShowActivity = p.ShowActivity
	}

	settings, err := s.store.UpdateSettings(r.Context(), user.ID, params)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			notFound(w, "User not found")
			return
		}
		s.internalError(w, r, "Failed to update settings", err)
		return
	}

	s.logEvent(r, user.ID, database.EventSettingsUpdated, settings)

	writeJSON(w, http.StatusOK, SettingsResponse{
		Message:  "Settings updated successfully",
		Settings: settings,
	})
}
