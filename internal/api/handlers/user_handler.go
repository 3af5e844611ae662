package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/taskhub-app/taskhub-be/internal/apperror"
	"github.com/taskhub-app/taskhub-be/internal/auth"
	"github.com/taskhub-app/taskhub-be/internal/models"
	"github.com/taskhub-app/taskhub-be/internal/services"
)

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	users          services.UserServiceProvider
	sessions       services.SessionServiceProvider
	avatarMaxBytes int64
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users services.UserServiceProvider, sessions services.SessionServiceProvider, avatarMaxBytes int64) *UserHandler {
	return &UserHandler{users: users, sessions: sessions, avatarMaxBytes: avatarMaxBytes}
}

// SignUpPayload defines the structure for registration requests.
type SignUpPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      *int   `json:"age"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse is the body returned by signup and login.
type authResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// SignUp handles new user registration. The new account comes back already
// logged in: the response token is in the user's session set.
func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var payload SignUpPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apperror.Validation("", "invalid request body"))
		return
	}

	user, token, err := h.users.SignUp(payload.Name, payload.Email, payload.Password, payload.Age)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

// Login handles user authentication and token issuance.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apperror.Validation("", "invalid request body"))
		return
	}

	user, token, err := h.users.Login(payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed authentication attempt")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

// Logout revokes the exact token the request authenticated with. Other
// sessions of the same user stay valid.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
		return
	}

	if err := h.sessions.RemoveOne(identity.User.ID, identity.Token); err != nil {
		log.Error().Err(err).Str("user_id", identity.User.ID).Msg("Failed to revoke session")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// LogoutAll revokes every session the user has, including the one that
// authenticated this request.
func (h *UserHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
		return
	}

	if err := h.sessions.RemoveAll(identity.User.ID); err != nil {
		log.Error().Err(err).Str("user_id", identity.User.ID).Msg("Failed to revoke sessions")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out everywhere"})
}

// GetMe returns the authenticated user's own profile.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
		return
	}
	writeJSON(w, http.StatusOK, identity.User)
}

// UpdateMe handles a partial update of the authenticated user's profile.
// Unknown fields are rejected rather than silently dropped.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
		return
	}

	var payload struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Age      *int    `json:"age"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		writeError(w, apperror.Validation("", "invalid update: "+err.Error()))
		return
	}

	user, err := h.users.UpdateUser(identity.User.ID, services.UserUpdate{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		Age:      payload.Age,
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", identity.User.ID).Msg("Failed to update user")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// DeleteMe deletes the authenticated user's account. The session cascade
// revokes every token they ever held.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
		return
	}

	user, err := h.users.DeleteUser(identity.User.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", identity.User.ID).Msg("Failed to delete user")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UploadAvatar stores an avatar image sent as the multipart "avatar"
// field. Oversized or non-image payloads are rejected before anything is
// persisted.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
		return
	}

	// Cap the whole request body; multipart framing needs a little
	// headroom on top of the file limit.
	r.Body = http.MaxBytesReader(w, r.Body, h.avatarMaxBytes+4096)
	if err := r.ParseMultipartForm(h.avatarMaxBytes); err != nil {
		writeError(w, apperror.Validation("avatar", "avatar upload too large or malformed"))
		return
	}

	file, _, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, apperror.Validation("avatar", `missing "avatar" file field`))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.avatarMaxBytes+1))
	if err != nil {
		writeError(w, apperror.Validation("avatar", "failed to read avatar upload"))
		return
	}
	if int64(len(data)) > h.avatarMaxBytes {
		writeError(w, apperror.Validation("avatar", "avatar exceeds the size limit"))
		return
	}

	// Sniff the real content type instead of trusting the client header.
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/jpeg") && !strings.HasPrefix(mime, "image/png") {
		writeError(w, apperror.Validation("avatar", "avatar must be a JPEG or PNG image"))
		return
	}

	if err := h.users.SetAvatar(identity.User.ID, data, mime); err != nil {
		log.Error().Err(err).Str("user_id", identity.User.ID).Msg("Failed to store avatar")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "avatar uploaded"})
}

// DeleteAvatar removes the authenticated user's avatar.
func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
		return
	}

	if err := h.users.DeleteAvatar(identity.User.ID); err != nil {
		log.Error().Err(err).Str("user_id", identity.User.ID).Msg("Failed to delete avatar")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "avatar deleted"})
}

// GetAvatar serves any user's avatar image. Public: avatars are display
// data, not account data.
func (h *UserHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, mime, err := h.users.GetAvatar(id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Error().Err(err).Str("user_id", id).Msg("Failed to write avatar response")
	}
}
