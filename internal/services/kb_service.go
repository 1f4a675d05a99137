package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"seocoach-backend/internal/models"
	"seocoach-backend/internal/retrieval"
	"seocoach-backend/internal/store"

	"gopkg.in/yaml.v3"
)

// Custom errors for KB service
var (
	ErrKBValidation = errors.New("knowledge base validation failed")
	ErrEmptyQuery   = errors.New("query cannot be empty")
)

// KBService exposes the knowledge base: raw ranked search and document ingestion.
type KBService struct {
	retrieval *retrieval.Client
	docs      store.DocumentStore
	topK      int
	maxTopK   int
	topic     string
}

// NewKBService creates a new KBService. topK, maxTopK and topic are the
// defaults applied to searches that do not set them.
func NewKBService(docs store.DocumentStore, topK, maxTopK int, topic string) *KBService {
	return &KBService{
		retrieval: retrieval.NewClient(docs),
		docs:      docs,
		topK:      topK,
		maxTopK:   maxTopK,
		topic:     topic,
	}
}

// Search ranks documents for query. Nil k and topic use the defaults; k is
// clamped to 1..maxTopK.
func (s *KBService) Search(ctx context.Context, query string, k *int, topic *string) ([]models.RetrievalHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	limit := s.topK
	if k != nil {
		limit = *k
	}
	limit = min(max(limit, 1), s.maxTopK)

	t := s.topic
	if topic != nil {
		t = strings.TrimSpace(*topic)
	}
	return s.retrieval.Search(ctx, query, limit, t), nil
}

// Ingest validates docs and upserts them by (source, section). Documents
// without a topic get the default topic.
func (s *KBService) Ingest(ctx context.Context, docs []models.Document) (int, error) {
	if len(docs) == 0 {
		return 0, fmt.Errorf("%w: no documents", ErrKBValidation)
	}
	clean := make([]models.Document, 0, len(docs))
	for i, d := range docs {
		d.Source = strings.TrimSpace(d.Source)
		d.Section = strings.TrimSpace(d.Section)
		d.Title = strings.TrimSpace(d.Title)
		if d.Source == "" {
			return 0, fmt.Errorf("%w: document %d has no source", ErrKBValidation, i)
		}
		if strings.TrimSpace(d.Body) == "" {
			return 0, fmt.Errorf("%w: document %q has an empty body", ErrKBValidation, d.Source)
		}
		if d.Topic == "" {
			d.Topic = s.topic
		}
		clean = append(clean, d)
	}

	if err := s.docs.UpsertDocuments(ctx, clean); err != nil {
		slog.ErrorContext(ctx, "failed to upsert documents", "count", len(clean), "error", err)
		return 0, fmt.Errorf("failed to upsert documents: %w", err)
	}
	slog.InfoContext(ctx, "documents ingested", "count", len(clean))
	return len(clean), nil
}

// seedFile is the YAML layout accepted by ParseDocuments.
type seedFile struct {
	Documents []models.Document `yaml:"documents"`
}

// ParseDocuments reads a YAML knowledge-base file of the form
//
//	documents:
//	  - source: titles.md
//	    title: Title tags
//	    section: Length
//	    topic: SEO
//	    body: Keep titles under 60 characters.
func ParseDocuments(r io.Reader) ([]models.Document, error) {
	var f seedFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrKBValidation)
		}
		return nil, fmt.Errorf("%w: %v", ErrKBValidation, err)
	}
	return f.Documents, nil
}
