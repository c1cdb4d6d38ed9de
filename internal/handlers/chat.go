package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"e2echat/internal/middleware"
	"e2echat/internal/models"
	"e2echat/internal/store"
)

type ChatHandler struct {
	Store store.Store
}

type SendMessageRequest struct {
	ReceiverUsername    string `json:"receiver_username" validate:"required"`
	EncryptedContent    string `json:"encrypted_content" validate:"required"`
	IV                  string `json:"iv" validate:"required"`
	EncryptedSessionKey string `json:"encrypted_session_key"`
}

// Users lists every registered username except the caller's, for the
// contact list.
func (h *ChatHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.GetAllUsernames(middleware.Username(r))
	if err != nil {
		log.Printf("listing users: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"users":   users,
		"message": "Users retrieved successfully",
	})
}

func (h *ChatHandler) PublicKey(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	key, err := h.Store.GetPublicKey(username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("getting public key: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"username":   username,
		"public_key": key,
	})
}

// Send stores an encrypted envelope. The content, IV, and optional session
// key are opaque; only the receiver's existence is checked.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Bad request")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	sender := middleware.Username(r)

	if _, err := h.Store.GetUserByUsername(req.ReceiverUsername); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Receiver not found")
			return
		}
		log.Printf("checking receiver: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	msg := &models.Message{
		SenderUsername:      sender,
		ReceiverUsername:    req.ReceiverUsername,
		EncryptedContent:    req.EncryptedContent,
		IV:                  req.IV,
		EncryptedSessionKey: req.EncryptedSessionKey,
	}
	if err := h.Store.SaveMessage(msg); err != nil {
		log.Printf("saving message: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to send message")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message":  "Message sent successfully",
		"sender":   sender,
		"receiver": req.ReceiverUsername,
	})
}

// Messages returns the caller's history, optionally narrowed to the
// exchange with one counterpart via ?with=.
func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	username := middleware.Username(r)
	other := r.URL.Query().Get("with")

	var messages []models.Message
	var err error
	if other != "" {
		messages, err = h.Store.GetMessagesWith(username, other)
	} else {
		messages, err = h.Store.GetMessages(username)
	}
	if err != nil {
		log.Printf("getting messages: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"messages": messages,
		"count":    len(messages),
	})
}

func (h *ChatHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.Store.GetConversations(middleware.Username(r))
	if err != nil {
		log.Printf("getting conversations: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"conversations": conversations,
		"count":         len(conversations),
	})
}

func (h *ChatHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < 2 {
		respondError(w, http.StatusBadRequest, "Search query must be at least 2 characters")
		return
	}

	users, err := h.Store.SearchUsers(query, middleware.Username(r))
	if err != nil {
		log.Printf("searching users: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"query": query,
	})
}
