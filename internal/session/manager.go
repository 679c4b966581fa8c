package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"voxtutor/internal/catalog"
	"voxtutor/internal/mastery"
	"voxtutor/internal/persona"
	"voxtutor/internal/types"
)

// Manager runs many sessions concurrently against one shared mastery store
// and catalog. Starting a session registers every loaded concept in the
// store, so teach-back scoring always finds its row.
type Manager struct {
	store  *mastery.Store
	llm    types.LLMClient
	voices persona.VoiceTags
	log    *zap.Logger

	mu       sync.Mutex
	catalog  *catalog.Catalog
	sessions map[string]*Session

	group    *errgroup.Group
	groupCtx context.Context
	cancel   context.CancelFunc
}

// NewManager creates a manager. Sessions started later inherit ctx; a nil
// catalog means content loading failed and sessions degrade to the
// no-content fallback behavior.
func NewManager(ctx context.Context, cat *catalog.Catalog, store *mastery.Store, client types.LLMClient, voices persona.VoiceTags, log *zap.Logger) *Manager {
	if cat == nil {
		cat = catalog.Empty()
	}
	ctx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(ctx)
	return &Manager{
		store:    store,
		llm:      client,
		voices:   voices,
		log:      log,
		catalog:  cat,
		sessions: make(map[string]*Session),
		group:    group,
		groupCtx: groupCtx,
		cancel:   cancel,
	}
}

// SetCatalog swaps the catalog used for sessions started from now on.
// Running sessions keep the instance they were built with.
func (m *Manager) SetCatalog(cat *catalog.Catalog) {
	if cat == nil {
		cat = catalog.Empty()
	}
	m.mu.Lock()
	m.catalog = cat
	m.mu.Unlock()
	m.log.Info("catalog replaced for new sessions", zap.Int("concepts", cat.Len()))
}

// Catalog returns the catalog new sessions will receive.
func (m *Manager) Catalog() *catalog.Catalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalog
}

// StartSession builds a session around the current catalog and runs it in
// the manager's group. The returned session is already live.
func (m *Manager) StartSession(turnIO TurnIO) (*Session, error) {
	cat := m.Catalog()

	// Register all concepts so RecordTeachBack never misses its row.
	// Failures degrade (scores just won't persist), they don't block the
	// conversation.
	for _, c := range cat.Concepts() {
		if err := m.store.UpsertConcept(m.groupCtx, c.ID, c.Title); err != nil {
			m.log.Warn("failed to register concept",
				zap.String("concept", c.ID), zap.Error(err))
		}
	}

	machine, err := persona.NewMachine(cat, m.store, m.voices, m.log)
	if err != nil {
		return nil, fmt.Errorf("failed to build persona machine: %w", err)
	}

	s := New(machine, m.llm, turnIO, m.log)
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	m.log.Info("session started", zap.String("session", s.ID()))

	m.group.Go(func() error {
		defer func() {
			m.mu.Lock()
			delete(m.sessions, s.ID())
			m.mu.Unlock()
			m.log.Info("session finished", zap.String("session", s.ID()))
		}()
		return s.Run(m.groupCtx)
	})

	return s, nil
}

// ActiveSessions returns the number of live sessions.
func (m *Manager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Wait blocks until every session loop has exited on its own (input ended
// or the manager's context was cancelled). It does not cancel anything.
func (m *Manager) Wait() error {
	return m.group.Wait()
}

// Shutdown cancels all sessions and waits for their loops to exit. The
// mastery store is left intact; anything committed stays committed.
func (m *Manager) Shutdown() error {
	m.cancel()
	return m.group.Wait()
}
