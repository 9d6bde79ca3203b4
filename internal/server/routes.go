package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/recallguard/recall/internal/engine"
)

// writeEngineError maps the engine's error taxonomy to HTTP statuses:
// 404 unknown user, 409 enrollment collision, 400 weak password,
// 423 locked (with the unlock time), 502 provider failure.
func writeEngineError(w http.ResponseWriter, err error) {
	var locked *engine.LockedError
	switch {
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, engine.ErrDuplicateUser):
		writeError(w, http.StatusConflict, "user already enrolled")
	case errors.Is(err, engine.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &locked):
		writeJSON(w, http.StatusLocked, map[string]any{
			"error":        "account locked",
			"locked_until": locked.Until.UTC().Format(time.RFC3339),
			"retry_in":     int(time.Until(locked.Until).Seconds()),
		})
	case errors.Is(err, engine.ErrProvider):
		writeError(w, http.StatusBadGateway, "embedding provider unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	res, err := s.engine.Lookup(userID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if !res.Exists {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	body := map[string]any{
		"exists":    true,
		"is_locked": res.Locked,
	}
	if res.Locked {
		body["locked_until"] = res.LockedUntil.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string   `json:"user_id"`
		Password string   `json:"password"`
		Phrases  []string `json:"phrases"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}
	if len(req.Phrases) == 0 {
		writeError(w, http.StatusBadRequest, "at least one phrase required")
		return
	}

	if err := s.engine.Enroll(r.Context(), req.UserID, req.Password, req.Phrases); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "enrolled"})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string `json:"user_id"`
		InputText string `json:"input_text"`
		AuthType  string `json:"auth_type"` // "phrase" (default) or "password"
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}

	var d engine.Decision
	var err error
	switch req.AuthType {
	case "", "phrase":
		d, err = s.engine.Verify(r.Context(), req.UserID, req.InputText)
	case "password":
		d, err = s.engine.VerifyPassword(req.UserID, req.InputText)
	default:
		writeError(w, http.StatusBadRequest, "auth_type must be phrase or password")
		return
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}

	body := map[string]any{
		"status": string(d.Status),
		"score":  d.Score,
	}
	switch d.Status {
	case engine.StatusAmbiguous:
		body["message"] = "verification unclear, describe the memory once more"
	case engine.StatusDenied:
		body["attempts_remaining"] = d.AttemptsRemaining
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      string `json:"user_id"`
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}

	if err := s.engine.UpdatePassword(req.UserID, req.NewPassword); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
