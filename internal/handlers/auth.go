package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"e2echat/internal/credentials"
	"e2echat/internal/middleware"
	"e2echat/internal/models"
	"e2echat/internal/session"
	"e2echat/internal/store"
)

type AuthHandler struct {
	Store    store.Store
	Sessions *session.Manager
}

type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50,username"`
	Password  string `json:"password" validate:"required,min=6"`
	PublicKey string `json:"public_key" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Bad request")
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	hash, err := credentials.Hash(req.Password)
	if err != nil {
		log.Printf("hashing password: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		PublicKey:    req.PublicKey,
	}
	if err := h.Store.CreateUser(user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respondError(w, http.StatusConflict, "Username already exists")
			return
		}
		log.Printf("creating user: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message":  "User registered successfully",
		"username": user.Username,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Bad request")
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.Store.GetUserByUsername(req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		log.Printf("looking up user: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !credentials.Verify(user.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	sess, err := h.Sessions.Create(user.Username)
	if err != nil {
		log.Printf("creating session: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":       "Login successful",
		"session_token": sess.Token,
		"username":      sess.Username,
		"expires_at":    sess.ExpiresAt,
	})
}

// Logout sits behind the auth guard, so the token was valid when the guard
// ran. Revoking is idempotent; a token that disappeared in between still
// logs out cleanly.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.BearerToken(r)
	if err := h.Sessions.Revoke(token); err != nil {
		log.Printf("revoking session: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Invalid or expired session")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"valid":      true,
		"username":   sess.Username,
		"expires_at": sess.ExpiresAt,
	})
}
