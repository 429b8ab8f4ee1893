package game

import (
	"compress/gzip"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/skemino/skemino-server-go/internal/game/notation"
	"github.com/skemino/skemino-server-go/internal/game/rules"
)

// ErrReplayNotFound is returned for a game without an in-memory replay.
var ErrReplayNotFound = errors.New("replay not found")

const replayVersion = 2

// Replay is a recorded game: the position after every ply, oldest first.
// A ply is one placement, the setup placement being ply 1, so a position's
// ply is len(Moves). Each recorded position extends the previous one by
// exactly one move.
type Replay struct {
	GameID string
	States []*Snapshot
	mu     sync.RWMutex
}

// NewReplay creates an empty replay for gameID.
func NewReplay(gameID string) *Replay {
	return &Replay{GameID: gameID}
}

// Record adds snap as the next position. A position with the same ply as the
// latest one replaces it, which keeps the final status of a game that ends
// without a move (resignation, timeout, agreed draw).
func (r *Replay) Record(snap *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if snap.GameID != r.GameID {
		return fmt.Errorf("replay %s: snapshot belongs to game %s", r.GameID, snap.GameID)
	}
	n := len(r.States)
	if n == 0 {
		r.States = append(r.States, snap)
		return nil
	}

	last := r.States[n-1]
	ply := len(last.Moves)
	switch len(snap.Moves) {
	case ply:
		if !sameMoves(last.Moves, snap.Moves) {
			return fmt.Errorf("replay %s: ply %d rewritten", r.GameID, ply)
		}
		r.States[n-1] = snap
		return nil
	case ply + 1:
		if !sameMoves(last.Moves, snap.Moves[:ply]) {
			return fmt.Errorf("replay %s: ply %d does not continue the recorded game", r.GameID, ply+1)
		}
		r.States = append(r.States, snap)
		return nil
	default:
		return fmt.Errorf("replay %s: expected ply %d or %d, got %d", r.GameID, ply, ply+1, len(snap.Moves))
	}
}

func sameMoves(a, b []rules.Move) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Turn != b[i].Turn || a[i].Player != b[i].Player ||
			a[i].Card != b[i].Card || a[i].To != b[i].To {
			return false
		}
	}
	return true
}

// Len returns the number of recorded positions.
func (r *Replay) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.States)
}

// Latest returns the most recent position, or nil for an empty replay.
func (r *Replay) Latest() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}

// AtPly returns the position after ply placements, or nil when that ply was
// not recorded. Recording may start mid-game, e.g. for a restored game.
func (r *Replay) AtPly(ply int) *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.States) == 0 {
		return nil
	}
	i := ply - len(r.States[0].Moves)
	if i < 0 || i >= len(r.States) {
		return nil
	}
	return r.States[i]
}

// Moves returns the move list of the latest position in PSN.
func (r *Replay) Moves() string {
	if latest := r.Latest(); latest != nil {
		return notation.FormatMoves(latest.Moves)
	}
	return ""
}

// replayFile is the on-disk form of a Replay.
type replayFile struct {
	Version int
	GameID  string
	SavedAt time.Time
	States  []*Snapshot
	// FinalChecksum is the checksum of the last position, empty for an empty replay.
	FinalChecksum string
}

func replayPath(dir, gameID string) string {
	return filepath.Join(dir, gameID+".replay")
}

// SaveToFile writes the replay to <dir>/<game id>.replay as gzipped gob. The
// file is written under a temporary name and renamed into place.
func (r *Replay) SaveToFile(dir string) error {
	r.mu.RLock()
	file := replayFile{
		Version: replayVersion,
		GameID:  r.GameID,
		SavedAt: time.Now(),
		States:  append([]*Snapshot(nil), r.States...),
	}
	r.mu.RUnlock()

	if n := len(file.States); n > 0 {
		sum, err := file.States[n-1].ComputeChecksum()
		if err != nil {
			return err
		}
		file.FinalChecksum = sum.Hash
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, file.GameID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	zw := gzip.NewWriter(tmp)
	if err := gob.NewEncoder(zw).Encode(&file); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode replay: %w", err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush replay: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close replay: %w", err)
	}
	return os.Rename(tmp.Name(), replayPath(dir, file.GameID))
}

// LoadReplayFromFile reads a replay written by SaveToFile. The ply chain is
// rebuilt through Record and the final position must match its checksum.
func LoadReplayFromFile(dir, gameID string) (*Replay, error) {
	f, err := os.Open(replayPath(dir, gameID))
	if err != nil {
		return nil, fmt.Errorf("failed to open replay: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer zr.Close()

	var file replayFile
	if err := gob.NewDecoder(zr).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode replay: %w", err)
	}
	if file.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", file.Version)
	}
	if file.GameID != gameID {
		return nil, fmt.Errorf("replay file for %s holds game %s", gameID, file.GameID)
	}

	replay := NewReplay(file.GameID)
	for _, snap := range file.States {
		if err := replay.Record(snap); err != nil {
			return nil, err
		}
	}
	if latest := replay.Latest(); latest != nil {
		ok, err := latest.VerifyChecksum(&SerializationChecksum{Hash: file.FinalChecksum})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("replay %s: final state checksum mismatch", gameID)
		}
	}
	return replay, nil
}

// ReplayRecorder records a Replay for every attached game and writes them
// to a directory on request.
type ReplayRecorder struct {
	logger  *zap.Logger
	dir     string
	mu      sync.Mutex
	replays map[string]*Replay
}

// NewReplayRecorder creates a recorder saving into dir.
func NewReplayRecorder(logger *zap.Logger, dir string) *ReplayRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayRecorder{
		logger:  logger,
		dir:     dir,
		replays: make(map[string]*Replay),
	}
}

// Attach records a position of e whenever the game starts, the turn changes
// or the game ends. A game that already started is recorded from its current
// position. The returned function stops recording and drops the replay from
// memory unless it was saved.
func (rr *ReplayRecorder) Attach(e *Engine) func() {
	gameID := e.ID()
	replay := NewReplay(gameID)

	rr.mu.Lock()
	rr.replays[gameID] = replay
	rr.mu.Unlock()
	rr.logger.Info("started replay recording", zap.String("game_id", gameID))

	record := func(rules.Event) {
		if err := replay.Record(e.Snapshot()); err != nil {
			rr.logger.Warn("failed to record replay position",
				zap.String("game_id", gameID),
				zap.Error(err),
			)
		}
	}
	if e.Status() != rules.StatusWaiting {
		record(rules.Event{})
	}
	handles := []int{
		e.Events().SubscribeTyped(rules.EventGameStarted, record),
		e.Events().SubscribeTyped(rules.EventTurnChanged, record),
		e.Events().SubscribeTyped(rules.EventGameEnded, record),
	}

	return func() {
		for _, h := range handles {
			e.Events().Unsubscribe(h)
		}
		rr.mu.Lock()
		if rr.replays[gameID] == replay {
			delete(rr.replays, gameID)
		}
		rr.mu.Unlock()
		rr.logger.Debug("stopped replay recording", zap.String("game_id", gameID))
	}
}

// Recording reports whether a replay of gameID is held in memory.
func (rr *ReplayRecorder) Recording(gameID string) bool {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	_, ok := rr.replays[gameID]
	return ok
}

// Get returns the in-memory replay of gameID.
func (rr *ReplayRecorder) Get(gameID string) (*Replay, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	replay, ok := rr.replays[gameID]
	return replay, ok
}

// Save writes the replay of gameID to disk and drops it from memory.
func (rr *ReplayRecorder) Save(gameID string) error {
	rr.mu.Lock()
	replay, ok := rr.replays[gameID]
	delete(rr.replays, gameID)
	rr.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrReplayNotFound, gameID)
	}

	if err := replay.SaveToFile(rr.dir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}
	rr.logger.Info("saved replay to disk",
		zap.String("game_id", gameID),
		zap.Int("positions", replay.Len()),
		zap.String("directory", rr.dir),
	)
	return nil
}

// Load reads the saved replay of gameID.
func (rr *ReplayRecorder) Load(gameID string) (*Replay, error) {
	replay, err := LoadReplayFromFile(rr.dir, gameID)
	if err != nil {
		return nil, err
	}
	rr.logger.Info("loaded replay from disk",
		zap.String("game_id", gameID),
		zap.Int("positions", replay.Len()),
	)
	return replay, nil
}
