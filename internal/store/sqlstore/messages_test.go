package sqlstore

import (
	"strings"
	"testing"

	"e2echat/internal/models"
)

func TestSaveMessage(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	mustCreateUser(t, "alice")
	mustCreateUser(t, "bob")

	msg := &models.Message{
		SenderUsername:      "alice",
		ReceiverUsername:    "bob",
		EncryptedContent:    "ct1",
		IV:                  "iv1",
		EncryptedSessionKey: "esk1",
	}
	if err := testStore.SaveMessage(msg); err != nil {
		t.Fatalf("Failed to save message: %v", err)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Expected timestamp to be assigned by the store")
	}

	messages, err := testStore.GetMessages("alice")
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(messages))
	}
	got := messages[0]
	if got.EncryptedContent != "ct1" || got.IV != "iv1" || got.EncryptedSessionKey != "esk1" {
		t.Errorf("Message fields did not round-trip: %+v", got)
	}
	if !got.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Expected timestamp %v, got %v", msg.Timestamp, got.Timestamp)
	}
}

func TestSaveMessageWithoutSessionKey(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	mustCreateUser(t, "alice")
	mustCreateUser(t, "bob")
	mustSaveMessage(t, "alice", "bob", "ct1")

	messages, _ := testStore.GetMessages("bob")
	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(messages))
	}
	if messages[0].EncryptedSessionKey != "" {
		t.Errorf("Expected empty session key, got '%s'", messages[0].EncryptedSessionKey)
	}
}

func TestGetMessagesWith(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	mustCreateUser(t, "alice")
	mustCreateUser(t, "bob")
	mustCreateUser(t, "carol")

	mustSaveMessage(t, "alice", "bob", "ct1")
	mustSaveMessage(t, "bob", "alice", "ct2")
	mustSaveMessage(t, "alice", "carol", "ct3")
	mustSaveMessage(t, "carol", "bob", "ct4")

	messages, err := testStore.GetMessagesWith("alice", "bob")
	if err != nil {
		t.Fatalf("GetMessagesWith failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	if messages[0].EncryptedContent != "ct1" || messages[1].EncryptedContent != "ct2" {
		t.Errorf("Expected ascending order [ct1 ct2], got [%s %s]",
			messages[0].EncryptedContent, messages[1].EncryptedContent)
	}

	// The filtered view must equal the full history filtered by counterpart
	all, err := testStore.GetMessages("alice")
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	var filtered []models.Message
	for _, m := range all {
		if m.SenderUsername == "bob" || m.ReceiverUsername == "bob" {
			filtered = append(filtered, m)
		}
	}
	if len(filtered) != len(messages) {
		t.Fatalf("Expected filtered history of %d messages, got %d", len(messages), len(filtered))
	}
	for i := range filtered {
		if filtered[i].ID != messages[i].ID {
			t.Errorf("Mismatch at %d: filtered id %d vs with id %d", i, filtered[i].ID, messages[i].ID)
		}
	}
}

func TestGetMessagesAscending(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	mustCreateUser(t, "alice")
	mustCreateUser(t, "bob")

	for _, content := range []string{"ct1", "ct2", "ct3"} {
		mustSaveMessage(t, "alice", "bob", content)
	}

	messages, err := testStore.GetMessages("alice")
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	for i := 1; i < len(messages); i++ {
		if messages[i].Timestamp.Before(messages[i-1].Timestamp) {
			t.Errorf("Messages out of order at index %d", i)
		}
	}
}

func TestGetConversations(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	mustCreateUser(t, "alice")
	mustCreateUser(t, "bob")
	mustCreateUser(t, "carol")

	mustSaveMessage(t, "alice", "bob", "ct1")
	bobReply := mustSaveMessage(t, "bob", "alice", "ct2")
	toCarol := mustSaveMessage(t, "alice", "carol", "ct3")

	conversations, err := testStore.GetConversations("alice")
	if err != nil {
		t.Fatalf("GetConversations failed: %v", err)
	}

	// Each contact exactly once, most recent first
	if len(conversations) != 2 {
		t.Fatalf("Expected 2 conversations, got %d (%v)", len(conversations), conversations)
	}
	if conversations[0].ContactUsername != "carol" {
		t.Errorf("Expected most recent contact 'carol', got '%s'", conversations[0].ContactUsername)
	}
	if conversations[1].ContactUsername != "bob" {
		t.Errorf("Expected contact 'bob', got '%s'", conversations[1].ContactUsername)
	}

	// Timestamps must be the max across both directions
	if !conversations[0].LastMessageTime.Equal(toCarol.Timestamp) {
		t.Errorf("Expected carol last message time %v, got %v", toCarol.Timestamp, conversations[0].LastMessageTime)
	}
	if !conversations[1].LastMessageTime.Equal(bobReply.Timestamp) {
		t.Errorf("Expected bob last message time %v, got %v", bobReply.Timestamp, conversations[1].LastMessageTime)
	}
}

// Postgres only accepts the grouped CASE through its output alias; a second
// rebound copy of the expression would carry a different placeholder number
// and fail the ungrouped-column check.
func TestConversationsQueryRebind(t *testing.T) {
	s := &SQLStore{driverName: "postgres"}
	q := s.rebind(conversationsQuery)

	if strings.Contains(q, "?") {
		t.Errorf("Expected every placeholder rewritten for postgres, got:\n%s", q)
	}
	if !strings.Contains(q, "$3") || strings.Contains(q, "$4") {
		t.Errorf("Expected exactly 3 numbered placeholders, got:\n%s", q)
	}
	if !strings.Contains(q, "GROUP BY contact_username") {
		t.Errorf("Expected grouping by the contact_username alias, got:\n%s", q)
	}
}

func TestGetConversationsEmpty(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	mustCreateUser(t, "alice")

	conversations, err := testStore.GetConversations("alice")
	if err != nil {
		t.Fatalf("GetConversations failed: %v", err)
	}
	if len(conversations) != 0 {
		t.Errorf("Expected no conversations, got %d", len(conversations))
	}
}
