package store

import (
	"context"
	"errors"

	"seocoach-backend/internal/models"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// ErrUnavailable is returned by backends that could not be reached or configured.
var ErrUnavailable = errors.New("store unavailable")

// SearchParams describes one ranked full-text query.
type SearchParams struct {
	Query string
	Limit int
	Topic string // Empty means no topic filter
}

// ListMessagesParams selects the most recent messages of one (session, identity) scope.
type ListMessagesParams struct {
	SessionID string
	Identity  string
	Limit     int
}

// DocumentStore ranks knowledge-base documents.
// Search returns hits ordered by descending score; ties keep backend order.
type DocumentStore interface {
	Search(ctx context.Context, arg SearchParams) ([]models.RetrievalHit, error)
	UpsertDocuments(ctx context.Context, docs []models.Document) error
}

// HistoryStore is the append-only per-session message log.
// ListMessages returns the newest Limit messages, oldest first.
type HistoryStore interface {
	AppendMessage(ctx context.Context, msg models.Message) error
	ListMessages(ctx context.Context, arg ListMessagesParams) ([]models.Message, error)
}

// UserStore backs signup/login. Only SQL backends implement it.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

// Store is the full storage capability set selected by configuration.
type Store interface {
	DocumentStore
	HistoryStore
	Ping(ctx context.Context) error
	Close() error
}

// Compose returns a Store that searches docs and keeps history in history.
// Closing it closes both.
func Compose(docs Store, history HistoryStore) Store {
	return &composite{Store: docs, history: history}
}

type composite struct {
	Store
	history HistoryStore
}

func (c *composite) AppendMessage(ctx context.Context, msg models.Message) error {
	return c.history.AppendMessage(ctx, msg)
}

func (c *composite) ListMessages(ctx context.Context, arg ListMessagesParams) ([]models.Message, error) {
	return c.history.ListMessages(ctx, arg)
}

func (c *composite) Ping(ctx context.Context) error {
	if err := c.Store.Ping(ctx); err != nil {
		return err
	}
	if p, ok := c.history.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *composite) Close() error {
	err := c.Store.Close()
	if cl, ok := c.history.(interface{ Close() error }); ok {
		err = errors.Join(err, cl.Close())
	}
	return err
}

// Unavailable is the store used when no backend could be constructed.
// Every call fails with ErrUnavailable so the clients above degrade.
type Unavailable struct {
	Reason error
}

var _ Store = Unavailable{}

func (u Unavailable) err() error {
	if u.Reason != nil {
		return errors.Join(ErrUnavailable, u.Reason)
	}
	return ErrUnavailable
}

func (u Unavailable) Search(context.Context, SearchParams) ([]models.RetrievalHit, error) {
	return nil, u.err()
}

func (u Unavailable) UpsertDocuments(context.Context, []models.Document) error { return u.err() }

func (u Unavailable) AppendMessage(context.Context, models.Message) error { return u.err() }

func (u Unavailable) ListMessages(context.Context, ListMessagesParams) ([]models.Message, error) {
	return nil, u.err()
}

func (u Unavailable) Ping(context.Context) error { return u.err() }

func (u Unavailable) Close() error { return nil }
