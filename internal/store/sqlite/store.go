// Package sqlite is the embedded backend: an FTS5 index for documents and a
// plain table for chat history, both in one SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"seocoach-backend/internal/models"
	"seocoach-backend/internal/store"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	_ store.Store     = (*SQLiteStore)(nil)
	_ store.UserStore = (*SQLiteStore)(nil)
)

const schema = `
CREATE VIRTUAL TABLE IF NOT EXISTS kb_documents USING fts5(
	source UNINDEXED,
	topic UNINDEXED,
	title,
	section,
	body,
	tokenize = 'porter unicode61'
);

CREATE TABLE IF NOT EXISTS chat_messages (
	id INTEGER PRIMARY KEY,
	session_id TEXT NOT NULL,
	identity TEXT NOT NULL DEFAULT '',
	ts INTEGER NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS chat_session_ts ON chat_messages(session_id, identity, ts, id);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	hashed_password TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);`

type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
// ":memory:" gives a private in-process database.
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Search ranks documents with bm25. bm25 is lower-is-better, so the score is negated.
func (s *SQLiteStore) Search(ctx context.Context, arg store.SearchParams) ([]models.RetrievalHit, error) {
	match := matchExpression(arg.Query)
	if match == "" {
		return []models.RetrievalHit{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT source, title, section, body, topic, -bm25(kb_documents) AS score
		FROM kb_documents
		WHERE kb_documents MATCH ? AND (? = '' OR topic = ?)
		ORDER BY score DESC
		LIMIT ?`, match, arg.Topic, arg.Topic, arg.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()

	hits := []models.RetrievalHit{}
	for rows.Next() {
		var h models.RetrievalHit
		if err := rows.Scan(&h.Source, &h.Title, &h.Section, &h.Body, &h.Topic, &h.Score); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// UpsertDocuments replaces documents keyed by (source, section).
func (s *SQLiteStore) UpsertDocuments(ctx context.Context, docs []models.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, d := range docs {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM kb_documents WHERE source = ? AND section = ?`, d.Source, d.Section); err != nil {
			return fmt.Errorf("failed to replace document %s: %w", d.Source, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kb_documents (source, topic, title, section, body) VALUES (?, ?, ?, ?, ?)`,
			d.Source, d.Topic, d.Title, d.Section, d.Body); err != nil {
			return fmt.Errorf("failed to insert document %s: %w", d.Source, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) AppendMessage(ctx context.Context, msg models.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, session_id, identity, ts, role, content) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SessionID, msg.Identity, msg.Timestamp.UnixNano(), string(msg.Role), msg.Content)
	if err != nil {
		return fmt.Errorf("failed to insert chat message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListMessages(ctx context.Context, arg store.ListMessagesParams) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, identity, ts, role, content FROM (
			SELECT id, session_id, identity, ts, role, content
			FROM chat_messages
			WHERE session_id = ? AND identity = ?
			ORDER BY ts DESC, id DESC
			LIMIT ?
		) ORDER BY ts ASC, id ASC`, arg.SessionID, arg.Identity, arg.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var (
			m    models.Message
			ts   int64
			role string
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Identity, &ts, &role, &m.Content); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		m.Timestamp = time.Unix(0, ts).UTC()
		m.Role = models.Role(role)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var (
		u                models.User
		id               string
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, hashed_password, created_at, updated_at FROM users WHERE email = ?`, email).
		Scan(&id, &u.Email, &u.HashedPassword, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", id, err)
	}
	u.CreatedAt = time.Unix(0, created).UTC()
	u.UpdatedAt = time.Unix(0, updated).UTC()
	return &u, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, hashed_password, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID.String(), user.Email, user.HashedPassword, now.UnixNano(), now.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

// matchExpression turns free text into an FTS5 query that ORs every term,
// quoting each so user punctuation never reaches the FTS5 parser.
func matchExpression(query string) string {
	terms := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, `"`+t+`"`)
	}
	return strings.Join(quoted, " OR ")
}
