package models

import (
	"github.com/google/uuid"
)

// --- Request Structs ---

// SignupRequest defines the expected body for the signup endpoint.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest defines the expected body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AskRequest is the body of a chat turn.
type AskRequest struct {
	Question string  `json:"question"`
	TopK     *int    `json:"top_k,omitempty"`
	Topic    *string `json:"topic,omitempty"` // nil = configured default, "" = no filter
}

// --- Response Structs ---

// UserResponse defines the user information returned by the API.
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// AuthResponse defines the response body for successful authentication.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionResponse is returned when a new chat session is opened.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// Citation points at one document used to answer a turn.
type Citation struct {
	Source  string `json:"source"`
	Section string `json:"section,omitempty"`
}

// AskResponse is the displayed outcome of one chat turn.
type AskResponse struct {
	SessionID    string     `json:"session_id"`
	Reply        string     `json:"reply"`
	Sources      []Citation `json:"sources"`
	CitationLine string     `json:"citation_line,omitempty"`
	PromptTokens int        `json:"prompt_tokens,omitempty"`
}

// TranscriptResponse is the ordered history of one session.
type TranscriptResponse struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
}

// SearchResponse wraps raw retrieval hits.
type SearchResponse struct {
	Query string         `json:"query"`
	Hits  []RetrievalHit `json:"hits"`
}
