package game

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// managedGame pairs an engine with the lock that serializes calls into it.
type managedGame struct {
	mu     sync.Mutex
	engine *Engine
	detach func()
}

// Manager hosts many games. Calls into a single game go through Do and are
// serialized; different games run independently.
type Manager struct {
	games    map[string]*managedGame
	mu       sync.RWMutex
	logger   *zap.Logger
	recorder *ReplayRecorder
}

// NewManager creates a new game manager
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		games:  make(map[string]*managedGame),
		logger: logger,
	}
}

// SetRecorder makes every game created afterwards record a replay.
func (m *Manager) SetRecorder(rr *ReplayRecorder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorder = rr
}

// CreateGame deals a new game and returns its ID.
func (m *Manager) CreateGame(opts Options) (string, error) {
	if opts.Logger == nil {
		opts.Logger = m.logger
	}
	e, err := NewEngine(opts)
	if err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}
	if err := m.Add(e); err != nil {
		return "", err
	}
	return e.ID(), nil
}

// Add registers an existing engine, e.g. one restored with LoadEngine.
func (m *Manager) Add(e *Engine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.games[e.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrGameExists, e.ID())
	}
	g := &managedGame{engine: e}
	if m.recorder != nil {
		g.detach = m.recorder.Attach(e)
	}
	m.games[e.ID()] = g

	m.logger.Info("game created",
		zap.String("game_id", e.ID()),
		zap.String("status", e.Status().String()),
	)
	return nil
}

// Do runs fn with exclusive access to the game's engine.
func (m *Manager) Do(gameID string, fn func(e *Engine) error) error {
	m.mu.RLock()
	g, ok := m.games[gameID]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g.engine)
}

// Get returns a copy of the game's current state.
func (m *Manager) Get(gameID string) (*GameState, error) {
	var state *GameState
	err := m.Do(gameID, func(e *Engine) error {
		state = e.GetGameState()
		return nil
	})
	return state, err
}

// Remove drops a game, detaching its replay recording if any.
func (m *Manager) Remove(gameID string) {
	m.mu.Lock()
	g, ok := m.games[gameID]
	delete(m.games, gameID)
	m.mu.Unlock()

	if ok && g.detach != nil {
		g.mu.Lock()
		g.detach()
		g.mu.Unlock()
	}
	m.logger.Info("game removed", zap.String("game_id", gameID))
}

// IDs returns the IDs of all hosted games in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ActiveCount returns the number of games that have not finished.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	games := make([]*managedGame, 0, len(m.games))
	for _, g := range m.games {
		games = append(games, g)
	}
	m.mu.RUnlock()

	count := 0
	for _, g := range games {
		g.mu.Lock()
		if !g.engine.Status().Terminal() {
			count++
		}
		g.mu.Unlock()
	}
	return count
}
