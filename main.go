package main

import (
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"e2echat/internal/config"
	"e2echat/internal/handlers"
	"e2echat/internal/session"
	"e2echat/internal/store/sqlstore"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// .env is optional; real environments set variables directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	st, err := sqlstore.New(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	sessions := session.NewManager(st)
	go purgeSessions(sessions)

	authHandler := &handlers.AuthHandler{Store: st, Sessions: sessions}
	chatHandler := &handlers.ChatHandler{Store: st}

	r := handlers.Router(authHandler, chatHandler, sessions)

	log.Println("Starting server on", cfg.ListenAddr)
	log.Fatal(http.ListenAndServe(cfg.ListenAddr, r))
}

// purgeSessions reclaims expired session rows. Expired sessions are already
// rejected at validation time; this keeps the table from growing forever.
func purgeSessions(sessions *session.Manager) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		n, err := sessions.PurgeExpired()
		if err != nil {
			log.Printf("purging expired sessions: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("purged %d expired sessions", n)
		}
	}
}
