// Package typesense is the HTTP data-API backend. Documents and chat history
// live in two Typesense collections; ranking is Typesense's text_match.
package typesense

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"seocoach-backend/internal/models"
	"seocoach-backend/internal/store"

	"github.com/typesense/typesense-go/v4/typesense"
	"github.com/typesense/typesense-go/v4/typesense/api"
	"github.com/typesense/typesense-go/v4/typesense/api/pointer"
)

var _ store.Store = (*TypesenseStore)(nil)

// maxPerPage is the largest per_page Typesense accepts.
const maxPerPage = 250

type Config struct {
	URL            string
	APIKey         string
	DocsCollection string
	ChatCollection string
	Timeout        time.Duration
}

type TypesenseStore struct {
	client  *typesense.Client
	docs    string
	chat    string
	timeout time.Duration
}

// document and chatRecord are the collection schemas as stored in Typesense.
type document struct {
	ID      string `json:"id"`
	Source  string `json:"source"`
	Title   string `json:"title"`
	Section string `json:"section"`
	Body    string `json:"body"`
	Topic   string `json:"topic"`
}

type chatRecord struct {
	ID        string `json:"id"`
	Seq       int64  `json:"seq"`
	SessionID string `json:"session_id"`
	Identity  string `json:"identity"`
	TS        int64  `json:"ts"`
	Role      string `json:"role"`
	Content   string `json:"content"`
}

func New(cfg Config) (*TypesenseStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("typesense URL is empty")
	}
	if cfg.DocsCollection == "" {
		cfg.DocsCollection = "docs"
	}
	if cfg.ChatCollection == "" {
		cfg.ChatCollection = "chat"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(cfg.Timeout),
	)
	return &TypesenseStore{
		client:  client,
		docs:    cfg.DocsCollection,
		chat:    cfg.ChatCollection,
		timeout: cfg.Timeout,
	}, nil
}

func (s *TypesenseStore) Ping(ctx context.Context) error {
	ok, err := s.client.Health(ctx, s.timeout)
	if err != nil {
		return fmt.Errorf("typesense health: %w", err)
	}
	if !ok {
		return fmt.Errorf("typesense reports unhealthy")
	}
	return nil
}

// Close is a no-op; the client holds no pooled resources of its own.
func (s *TypesenseStore) Close() error { return nil }

func (s *TypesenseStore) Search(ctx context.Context, arg store.SearchParams) ([]models.RetrievalHit, error) {
	params := &api.SearchCollectionParams{
		Q:       pointer.String(arg.Query),
		QueryBy: pointer.String("title,section,body"),
		SortBy:  pointer.String("_text_match:desc"),
		PerPage: pointer.Int(min(arg.Limit, maxPerPage)),
	}
	if arg.Topic != "" {
		params.FilterBy = pointer.String("topic:=" + quoteFilter(arg.Topic))
	}

	result, err := s.client.Collection(s.docs).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("typesense search %s: %w", s.docs, err)
	}

	hits := []models.RetrievalHit{}
	if result.Hits == nil {
		return hits, nil
	}
	for _, h := range *result.Hits {
		var d document
		if err := decodeDocument(h.Document, &d); err != nil {
			return nil, err
		}
		var score float64
		if h.TextMatch != nil {
			score = float64(*h.TextMatch)
		}
		hits = append(hits, models.RetrievalHit{
			Document: models.Document{
				Source:  d.Source,
				Title:   d.Title,
				Section: d.Section,
				Body:    d.Body,
				Topic:   d.Topic,
			},
			Score: score,
		})
	}
	return hits, nil
}

func (s *TypesenseStore) UpsertDocuments(ctx context.Context, docs []models.Document) error {
	for _, d := range docs {
		rec := document{
			ID:      documentID(d),
			Source:  d.Source,
			Title:   d.Title,
			Section: d.Section,
			Body:    d.Body,
			Topic:   d.Topic,
		}
		if _, err := s.client.Collection(s.docs).Documents().Upsert(ctx, rec, &api.DocumentIndexParameters{}); err != nil {
			return fmt.Errorf("typesense upsert %s: %w", rec.ID, err)
		}
	}
	return nil
}

func (s *TypesenseStore) AppendMessage(ctx context.Context, msg models.Message) error {
	rec := chatRecord{
		ID:        strconv.FormatInt(msg.ID, 10),
		Seq:       msg.ID,
		SessionID: msg.SessionID,
		Identity:  msg.Identity,
		TS:        msg.Timestamp.UnixNano(),
		Role:      string(msg.Role),
		Content:   msg.Content,
	}
	if _, err := s.client.Collection(s.chat).Documents().Create(ctx, rec, &api.DocumentIndexParameters{}); err != nil {
		return fmt.Errorf("typesense create chat message: %w", err)
	}
	return nil
}

// ListMessages fetches the newest Limit records and reverses them into ascending order.
func (s *TypesenseStore) ListMessages(ctx context.Context, arg store.ListMessagesParams) ([]models.Message, error) {
	filter := "session_id:=" + quoteFilter(arg.SessionID) + " && identity:=" + quoteFilter(arg.Identity)
	params := &api.SearchCollectionParams{
		Q:        pointer.String("*"),
		QueryBy:  pointer.String("content"),
		FilterBy: pointer.String(filter),
		SortBy:   pointer.String("ts:desc,seq:desc"),
		PerPage:  pointer.Int(min(arg.Limit, maxPerPage)),
	}

	result, err := s.client.Collection(s.chat).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("typesense list chat messages: %w", err)
	}

	messages := []models.Message{}
	if result.Hits == nil {
		return messages, nil
	}
	for _, h := range *result.Hits {
		var rec chatRecord
		if err := decodeDocument(h.Document, &rec); err != nil {
			return nil, err
		}
		messages = append(messages, models.Message{
			ID:        rec.Seq,
			SessionID: rec.SessionID,
			Identity:  rec.Identity,
			Timestamp: time.Unix(0, rec.TS).UTC(),
			Role:      models.Role(rec.Role),
			Content:   rec.Content,
		})
	}
	slices.Reverse(messages)
	return messages, nil
}

func decodeDocument(doc *map[string]interface{}, out any) error {
	if doc == nil {
		return fmt.Errorf("typesense hit without document")
	}
	raw, err := json.Marshal(*doc)
	if err != nil {
		return fmt.Errorf("re-encode typesense document: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode typesense document: %w", err)
	}
	return nil
}

// quoteFilter wraps a value in backticks so spaces and operators are taken literally.
func quoteFilter(v string) string {
	return "`" + strings.ReplaceAll(v, "`", "") + "`"
}

func documentID(d models.Document) string {
	id := d.Source
	if d.Section != "" {
		id += "#" + d.Section
	}
	return id
}
