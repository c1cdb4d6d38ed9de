package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"

	"e2echat/internal/models"
	"e2echat/internal/store"
)

type SQLStore struct {
	db         *sql.DB
	driverName string
}

func New(driverName, dataSourceName string) (*SQLStore, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLStore{db: db, driverName: driverName}
	if err := s.createTables(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) createTables() error {
	// Simplified for brevity, ideally use migrations
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		public_key TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sender_username TEXT NOT NULL,
		receiver_username TEXT NOT NULL,
		encrypted_content TEXT NOT NULL,
		iv TEXT NOT NULL,
		encrypted_session_key TEXT,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (sender_username) REFERENCES users (username),
		FOREIGN KEY (receiver_username) REFERENCES users (username)
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL,
		session_token TEXT UNIQUE NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (username) REFERENCES users (username)
	);
	`

	if s.driverName == "postgres" {
		// Adjust for Postgres syntax
		query = strings.ReplaceAll(query, "INTEGER PRIMARY KEY AUTOINCREMENT", "SERIAL PRIMARY KEY")
	}

	_, err := s.db.Exec(query)
	return err
}

// Helper to handle placeholders
func (s *SQLStore) rebind(query string) string {
	if s.driverName == "postgres" {
		// Replace ? with $1, $2, etc.
		n := strings.Count(query, "?")
		for i := 1; i <= n; i++ {
			query = strings.Replace(query, "?", fmt.Sprintf("$%d", i), 1)
		}
	}
	return query
}

// isDuplicate reports whether err is a uniqueness-constraint violation
// from either driver.
func isDuplicate(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}
	return false
}

// scanTime normalizes a timestamp read from the database. Aggregate columns
// like MAX(timestamp) lose their declared type under sqlite3 and come back
// as text, while postgres hands over a time.Time.
func scanTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case []byte:
		return parseTimestamp(string(t))
	case string:
		return parseTimestamp(t)
	}
	return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
}

func parseTimestamp(s string) (time.Time, error) {
	layouts := []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

func (s *SQLStore) CreateUser(user *models.User) error {
	user.CreatedAt = time.Now().UTC()
	query := s.rebind("INSERT INTO users (username, password_hash, public_key, created_at) VALUES (?, ?, ?, ?)")
	_, err := s.db.Exec(query, user.Username, user.PasswordHash, user.PublicKey, user.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *SQLStore) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	query := s.rebind("SELECT id, username, password_hash, public_key, created_at FROM users WHERE username = ?")

	err := s.db.QueryRow(query, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.PublicKey, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *SQLStore) GetPublicKey(username string) (string, error) {
	var key string
	query := s.rebind("SELECT public_key FROM users WHERE username = ?")
	err := s.db.QueryRow(query, username).Scan(&key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", store.ErrNotFound
		}
		return "", err
	}
	return key, nil
}

func (s *SQLStore) SearchUsers(queryStr, excludeUsername string) ([]string, error) {
	query := s.rebind(`
		SELECT username FROM users
		WHERE LOWER(username) LIKE LOWER(?) AND username != ?
		ORDER BY username
		LIMIT 10
	`)
	rows, err := s.db.Query(query, "%"+queryStr+"%", excludeUsername)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectUsernames(rows)
}

func (s *SQLStore) GetAllUsernames(excludeUsername string) ([]string, error) {
	query := s.rebind("SELECT username FROM users WHERE username != ? ORDER BY username")
	rows, err := s.db.Query(query, excludeUsername)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectUsernames(rows)
}

func collectUsernames(rows *sql.Rows) ([]string, error) {
	usernames := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		usernames = append(usernames, name)
	}
	return usernames, rows.Err()
}

func (s *SQLStore) SaveMessage(msg *models.Message) error {
	// Timestamp is assigned here, not by the caller.
	msg.Timestamp = time.Now().UTC()

	sessionKey := sql.NullString{String: msg.EncryptedSessionKey, Valid: msg.EncryptedSessionKey != ""}
	query := s.rebind("INSERT INTO messages (sender_username, receiver_username, encrypted_content, iv, encrypted_session_key, timestamp) VALUES (?, ?, ?, ?, ?, ?)")
	_, err := s.db.Exec(query, msg.SenderUsername, msg.ReceiverUsername, msg.EncryptedContent, msg.IV, sessionKey, msg.Timestamp)
	return err
}

func (s *SQLStore) GetMessages(username string) ([]models.Message, error) {
	query := s.rebind(`
		SELECT id, sender_username, receiver_username, encrypted_content, iv, encrypted_session_key, timestamp
		FROM messages
		WHERE sender_username = ? OR receiver_username = ?
		ORDER BY timestamp ASC, id ASC
	`)
	rows, err := s.db.Query(query, username, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMessages(rows)
}

func (s *SQLStore) GetMessagesWith(username, otherUsername string) ([]models.Message, error) {
	query := s.rebind(`
		SELECT id, sender_username, receiver_username, encrypted_content, iv, encrypted_session_key, timestamp
		FROM messages
		WHERE (sender_username = ? AND receiver_username = ?)
		   OR (sender_username = ? AND receiver_username = ?)
		ORDER BY timestamp ASC, id ASC
	`)
	rows, err := s.db.Query(query, username, otherUsername, otherUsername, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMessages(rows)
}

func collectMessages(rows *sql.Rows) ([]models.Message, error) {
	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		var sessionKey sql.NullString
		if err := rows.Scan(&m.ID, &m.SenderUsername, &m.ReceiverUsername, &m.EncryptedContent, &m.IV, &sessionKey, &m.Timestamp); err != nil {
			return nil, err
		}
		m.EncryptedSessionKey = sessionKey.String
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Grouping must use the output alias: postgres matches grouping expressions
// by exact node equality, so a rebound second copy of the CASE (with its own
// placeholder number) would not count as grouping the underlying columns.
const conversationsQuery = `
	SELECT
		CASE WHEN sender_username = ? THEN receiver_username ELSE sender_username END AS contact_username,
		MAX(timestamp) AS last_message_time
	FROM messages
	WHERE sender_username = ? OR receiver_username = ?
	GROUP BY contact_username
	ORDER BY last_message_time DESC
`

// GetConversations collapses the directional message log into one row per
// counterpart: whichever of sender/receiver is not the queried user, with
// the most recent timestamp across both directions, newest first.
func (s *SQLStore) GetConversations(username string) ([]models.Conversation, error) {
	query := s.rebind(conversationsQuery)
	rows, err := s.db.Query(query, username, username, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := []models.Conversation{}
	for rows.Next() {
		var c models.Conversation
		var last any
		if err := rows.Scan(&c.ContactUsername, &last); err != nil {
			return nil, err
		}
		if c.LastMessageTime, err = scanTime(last); err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

func (s *SQLStore) CreateSession(sess *models.Session) error {
	sess.CreatedAt = time.Now().UTC()
	query := s.rebind("INSERT INTO sessions (username, session_token, expires_at, created_at) VALUES (?, ?, ?, ?)")
	_, err := s.db.Exec(query, sess.Username, sess.Token, sess.ExpiresAt, sess.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

// GetSession returns the session row whether or not it has expired; expiry
// is the session manager's call.
func (s *SQLStore) GetSession(token string) (*models.Session, error) {
	var sess models.Session
	query := s.rebind("SELECT id, username, session_token, expires_at, created_at FROM sessions WHERE session_token = ?")
	err := s.db.QueryRow(query, token).Scan(&sess.ID, &sess.Username, &sess.Token, &sess.ExpiresAt, &sess.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func (s *SQLStore) DeleteSession(token string) error {
	query := s.rebind("DELETE FROM sessions WHERE session_token = ?")
	_, err := s.db.Exec(query, token)
	return err
}

func (s *SQLStore) DeleteExpiredSessions() (int64, error) {
	query := s.rebind("DELETE FROM sessions WHERE expires_at <= ?")
	res, err := s.db.Exec(query, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
