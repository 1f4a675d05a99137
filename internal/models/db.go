package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// NormalizeRole maps anything that is not an assistant turn to a user turn.
func NormalizeRole(r Role) Role {
	if r == RoleAssistant {
		return RoleAssistant
	}
	return RoleUser
}

// Message is one conversational turn in a session's append-only log.
type Message struct {
	ID        int64     `db:"id" json:"id,string"`
	SessionID string    `db:"session_id" json:"session_id"`
	Identity  string    `db:"identity" json:"identity,omitempty"` // Optional end-user scope (e.g. email)
	Timestamp time.Time `db:"ts" json:"timestamp"`
	Role      Role      `db:"role" json:"role"`
	Content   string    `db:"content" json:"content"`
}

// Document is one indexed knowledge-base record.
type Document struct {
	Source  string `db:"source" json:"source" yaml:"source"`
	Title   string `db:"title" json:"title,omitempty" yaml:"title"`
	Section string `db:"section" json:"section,omitempty" yaml:"section"`
	Body    string `db:"body" json:"body" yaml:"body"`
	Topic   string `db:"topic" json:"topic,omitempty" yaml:"topic"`
}

// RetrievalHit is a Document ranked by the search backend. Scores are only
// comparable within one result set.
type RetrievalHit struct {
	Document
	Score float64 `json:"relevance_score"`
}

// User represents a registered end user. The email doubles as the chat identity.
type User struct {
	ID             uuid.UUID `db:"id"`
	Email          string    `db:"email"`
	HashedPassword string    `db:"hashed_password"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}
