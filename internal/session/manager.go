package session

import (
	"context"
	"errors"
	"fmt"
	"hash/maphash"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vancomm/shapesweeper/internal/catalog"
)

var ErrNotFound = errors.New("session not found")

func createRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

type entry struct {
	session *Session
	cancel  context.CancelFunc
}

// Manager keeps the live sessions of the process.
type Manager struct {
	logger      *slog.Logger
	catalog     catalog.Catalog
	idleTimeout time.Duration
	opts        []Option

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]entry
}

func NewManager(
	logger *slog.Logger,
	c catalog.Catalog,
	idleTimeout time.Duration,
	opts ...Option,
) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		logger:      logger,
		catalog:     c,
		idleTimeout: idleTimeout,
		opts:        append([]Option{WithLogger(logger)}, opts...),
		ctx:         ctx,
		cancel:      cancel,
		sessions:    make(map[string]entry),
	}
}

// Create looks the map up in the catalog and starts a session on the
// given mode.
func (m *Manager) Create(ctx context.Context, mapName string, mode int) (*Session, error) {
	found, err := m.catalog.Map(ctx, mapName)
	if err != nil {
		return nil, err
	}
	if len(found.Modes) == 0 {
		return nil, fmt.Errorf("%w: %s", catalog.ErrNoModes, found.Name)
	}
	if mode < 0 || mode >= len(found.Modes) {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchMode, mode)
	}

	s, err := New(uuid.NewString(), *found, createRand(), m.opts...)
	if err != nil {
		return nil, err
	}
	if mode != 0 {
		s.load(mode)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx.Err() != nil {
		return nil, ErrClosed
	}
	sCtx, cancel := context.WithCancel(m.ctx)
	m.sessions[s.ID] = entry{session: s, cancel: cancel}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		s.Run(sCtx)
	}()

	m.logger.Info("session created",
		slog.String("session", s.ID),
		slog.String("map", s.Map),
		slog.Int("mode", mode),
	)
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.session, nil
}

// Remove stops a session, reporting whether it was live.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return false
	}
	e.cancel()
	<-e.session.Done()
	return true
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes sessions idle since before now minus the idle timeout.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	var stale []string
	for id, e := range m.sessions {
		if now.Sub(e.session.LastActive()) > m.idleTimeout {
			stale = append(stale, id)
		}
	}
	m.mu.Unlock()

	n := 0
	for _, id := range stale {
		if m.Remove(id) {
			n++
		}
	}
	if n > 0 {
		m.logger.Info("evicted idle sessions", slog.Int("count", n))
	}
	return n
}

// Run evicts idle sessions until ctx is done, then stops every session.
func (m *Manager) Run(ctx context.Context) error {
	interval := max(m.idleTimeout/4, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Close()
			return nil
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

// Close stops every session and waits for them to finish.
func (m *Manager) Close() {
	m.mu.Lock()
	m.cancel()
	m.sessions = make(map[string]entry)
	m.mu.Unlock()
	m.wg.Wait()
}
