package store

import "time"

// Message roles stored in chat_messages.role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// User is an account identified by its username. The user_id doubles as the
// display handle; it is created on first login and never mutated.
type User struct {
	UserID    string
	Username  string
	CreatedAt time.Time
}

// VocabularyEntry is one saved word card. (UserID, Word) is unique; the
// first insert wins and later duplicates are rejected.
type VocabularyEntry struct {
	UserID     string
	Word       string
	Definition string
	Examples   []string
	Notes      string
	CreatedAt  time.Time
}

// ChatSession is one conversation owned by a user. Deleting a session
// cascades to its messages.
type ChatSession struct {
	ChatID    string
	UserID    string
	Name      string
	CreatedAt time.Time
}

// ChatMessage is one immutable turn in a chat, ordered by CreatedAt
// ascending with ID as tiebreak.
type ChatMessage struct {
	ID        int64
	ChatID    string
	Role      string
	Content   string
	CreatedAt time.Time
}
