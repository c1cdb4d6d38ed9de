package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"e2echat/internal/middleware"
	"e2echat/internal/session"
)

// Router wires every endpoint. The chat surface plus logout/verify sit
// behind the session guard; register, login, and health do not.
func Router(auth *AuthHandler, chat *ChatHandler, sessions *session.Manager) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging)

	// Unknown routes and wrong methods answer in JSON like everything else.
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	guard := middleware.Auth(sessions)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", Health).Methods("GET")
	api.HandleFunc("/auth/register", auth.Register).Methods("POST")
	api.HandleFunc("/auth/login", auth.Login).Methods("POST")

	authed := api.NewRoute().Subrouter()
	authed.Use(guard)
	authed.HandleFunc("/auth/logout", auth.Logout).Methods("POST")
	authed.HandleFunc("/auth/verify", auth.Verify).Methods("GET")
	authed.HandleFunc("/chat/users", chat.Users).Methods("GET")
	authed.HandleFunc("/chat/public-key/{username}", chat.PublicKey).Methods("GET")
	authed.HandleFunc("/chat/send", chat.Send).Methods("POST")
	authed.HandleFunc("/chat/messages", chat.Messages).Methods("GET")
	authed.HandleFunc("/chat/conversations", chat.Conversations).Methods("GET")
	authed.HandleFunc("/chat/search-users", chat.SearchUsers).Methods("GET")

	return r
}

func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "E2EE Chat API is running",
	})
}
