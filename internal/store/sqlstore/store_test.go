package sqlstore

import (
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"e2echat/internal/models"
)

var testStore *SQLStore

func SetupTestDB(t *testing.T) {
	var err error
	testStore, err = New("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
}

func TeardownTestDB() {
	testStore.db.Close()
}

func mustCreateUser(t *testing.T, username string) {
	t.Helper()
	err := testStore.CreateUser(&models.User{
		Username:     username,
		PasswordHash: "hash",
		PublicKey:    "pk-" + username,
	})
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
}

func mustSaveMessage(t *testing.T, sender, receiver, content string) *models.Message {
	t.Helper()
	msg := &models.Message{
		SenderUsername:   sender,
		ReceiverUsername: receiver,
		EncryptedContent: content,
		IV:               "iv-" + content,
	}
	if err := testStore.SaveMessage(msg); err != nil {
		t.Fatalf("Failed to save message: %v", err)
	}
	return msg
}
