package api

import (
	"errors"
	"net/http"
	"strings"

	"terroir/internal/auth"
	"terroir/internal/database"
	"terroir/internal/metrics"
	"terroir/internal/models"
)

// RegisterRequest is the body for POST /api/auth/register.
type RegisterRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	IsProducer bool   `json:"is_producer"`
}

// TokenResponse carries a fresh token pair.
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user,omitempty"`
}

// handleRegister creates an account and signs the user in.
// POST /api/auth/register
func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("auth_register", "2xx")

	var req RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "valid email is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash password")
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsProducer:   req.IsProducer,
	}
	if err := s.db.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, database.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		s.log.Error().Err(err).Msg("failed to create user")
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	s.issueTokens(w, user)
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin checks credentials and returns a token pair.
// POST /api/auth/login
func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("auth_login", "2xx")

	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.db.GetUserByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		// Same answer for unknown email and wrong password.
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.issueTokens(w, user)
}

// RefreshRequest is the body for POST /api/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// handleRefresh exchanges a refresh token for a fresh pair.
// POST /api/auth/refresh
func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("auth_refresh", "2xx")

	var req RefreshRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	claims, err := s.tokens.Verify(req.RefreshToken, auth.KindRefresh)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	user, err := s.db.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "account no longer exists")
		return
	}

	s.issueTokens(w, user)
}

// handleMe returns the authenticated account.
// GET /api/auth/me
func (s *HTTPServer) handleMe(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("auth_me", "2xx")

	user, err := s.db.GetUserByID(r.Context(), userID(r))
	if err != nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// MePatch carries account fields to change.
type MePatch struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// handleUpdateMe applies a partial update to the account.
// PATCH /api/auth/me
func (s *HTTPServer) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("auth_update_me", "2xx")

	var patch MePatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.db.GetUserByID(r.Context(), userID(r))
	if err != nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	if patch.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*patch.Email))
		if email == "" || !strings.Contains(email, "@") {
			writeError(w, http.StatusBadRequest, "valid email is required")
			return
		}
		user.Email = email
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}

	if err := s.db.UpdateUser(r.Context(), user); err != nil {
		if errors.Is(err, database.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		s.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to update account")
		writeError(w, http.StatusInternalServerError, "update failed")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// ChangePasswordRequest is the body for POST /api/auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// handleChangePassword rotates the account password.
// POST /api/auth/change-password
func (s *HTTPServer) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("auth_change_password", "2xx")

	var req ChangePasswordRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	user, err := s.db.GetUserByID(r.Context(), userID(r))
	if err != nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		writeError(w, http.StatusUnauthorized, "current password is wrong")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash password")
		writeError(w, http.StatusInternalServerError, "password change failed")
		return
	}
	if err := s.db.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		s.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to update password")
		writeError(w, http.StatusInternalServerError, "password change failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) issueTokens(w http.ResponseWriter, user *models.User) {
	access, refresh, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to issue tokens")
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
	})
}
