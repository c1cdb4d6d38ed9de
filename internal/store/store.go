package store

import (
	"errors"

	"e2echat/internal/models"
)

var (
	// ErrNotFound is returned when a user, key, or session does not exist.
	// Expired sessions are reported the same way as missing ones.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate is returned when a uniqueness constraint is violated,
	// e.g. registering a username that is already taken.
	ErrDuplicate = errors.New("store: duplicate")
)

type Store interface {
	// User operations
	CreateUser(user *models.User) error
	GetUserByUsername(username string) (*models.User, error)
	GetPublicKey(username string) (string, error)
	SearchUsers(query, excludeUsername string) ([]string, error)
	GetAllUsernames(excludeUsername string) ([]string, error)

	// Message operations
	SaveMessage(msg *models.Message) error
	GetMessages(username string) ([]models.Message, error)
	GetMessagesWith(username, otherUsername string) ([]models.Message, error)
	GetConversations(username string) ([]models.Conversation, error)

	// Session operations
	CreateSession(sess *models.Session) error
	GetSession(token string) (*models.Session, error)
	DeleteSession(token string) error
	DeleteExpiredSessions() (int64, error)
}
