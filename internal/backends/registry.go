// Package backends maps configured backend names to storage constructors.
package backends

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"seocoach-backend/internal/config"
	"seocoach-backend/internal/store"
)

// StoreFactory opens a full document + history backend.
type StoreFactory func(ctx context.Context, cfg *config.Config) (store.Store, error)

// HistoryFactory opens a history-only backend.
type HistoryFactory func(ctx context.Context, cfg *config.Config) (store.HistoryStore, error)

// Registry holds the mapping between backend names and their constructors.
type Registry struct {
	stores    map[string]StoreFactory
	histories map[string]HistoryFactory
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{
		stores:    make(map[string]StoreFactory),
		histories: make(map[string]HistoryFactory),
	}
}

// Register adds a full backend under name.
func (r *Registry) Register(name string, f StoreFactory) {
	if _, exists := r.stores[name]; exists {
		slog.Warn("backend already registered, overwriting", "backend", name)
	}
	r.stores[name] = f
}

// RegisterHistory adds a history-only backend under name.
func (r *Registry) RegisterHistory(name string, f HistoryFactory) {
	if _, exists := r.histories[name]; exists {
		slog.Warn("history backend already registered, overwriting", "backend", name)
	}
	r.histories[name] = f
}

// Names lists the registered full backends.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.stores))
	for n := range r.stores {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Get retrieves a full backend constructor by name.
func (r *Registry) Get(name string) (StoreFactory, error) {
	f, exists := r.stores[name]
	if !exists {
		return nil, fmt.Errorf("no backend registered for %q (have %v)", name, r.Names())
	}
	return f, nil
}

// Opened is the result of Open. Users is nil when the document backend
// cannot store accounts. HistoryErr is set when a separate history backend
// could not be opened; history then runs on store.Unavailable while search
// keeps using the document backend.
type Opened struct {
	Store      store.Store
	Users      store.UserStore
	HistoryErr error
}

// Open constructs the configured document backend and, when a different
// history backend is configured, routes history to it.
func (r *Registry) Open(ctx context.Context, cfg *config.Config) (*Opened, error) {
	factory, err := r.Get(cfg.Store.Backend)
	if err != nil {
		return nil, err
	}
	primary, err := factory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Store.Backend, err)
	}

	// Users must be taken before composing; the composite hides them.
	users, _ := primary.(store.UserStore)

	historyName := cfg.HistoryBackendName()
	if historyName == cfg.Store.Backend {
		return &Opened{Store: primary, Users: users}, nil
	}

	history, err := r.openHistory(ctx, historyName, cfg)
	if err != nil {
		err = fmt.Errorf("open %s history backend: %w", historyName, err)
		return &Opened{
			Store:      store.Compose(primary, store.Unavailable{Reason: err}),
			Users:      users,
			HistoryErr: err,
		}, nil
	}
	return &Opened{Store: store.Compose(primary, history), Users: users}, nil
}

func (r *Registry) openHistory(ctx context.Context, name string, cfg *config.Config) (store.HistoryStore, error) {
	if f, ok := r.histories[name]; ok {
		return f(ctx, cfg)
	}
	if f, ok := r.stores[name]; ok {
		return f(ctx, cfg)
	}
	return nil, fmt.Errorf("no history backend registered for %q", name)
}
