package models

import "time"

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	PublicKey    string    `json:"public_key"`
	CreatedAt    time.Time `json:"created_at"`
}

type Message struct {
	ID                  int       `json:"id"`
	SenderUsername      string    `json:"sender_username"`
	ReceiverUsername    string    `json:"receiver_username"`
	EncryptedContent    string    `json:"encrypted_content"`
	IV                  string    `json:"iv"`
	EncryptedSessionKey string    `json:"encrypted_session_key,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
}

type Session struct {
	ID        int       `json:"-"`
	Username  string    `json:"username"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"-"`
}

// Conversation is one row of the per-contact summary: the counterpart's
// username and the most recent message timestamp across both directions.
type Conversation struct {
	ContactUsername string    `json:"contact_username"`
	LastMessageTime time.Time `json:"last_message_time"`
}
