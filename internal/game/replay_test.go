package game

import (
	"compress/gzip"
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/skemino/skemino-server-go/internal/game/board"
	"github.com/skemino/skemino-server-go/internal/game/notation"
	"github.com/skemino/skemino-server-go/internal/game/rules"
	"github.com/skemino/skemino-server-go/internal/player"
)

// playOut runs a seeded bot game to the end.
func playOut(t *testing.T, e *Engine, seed uint64) {
	t.Helper()
	_, err := e.SetupInitialPosition()
	require.NoError(t, err)

	bot := player.NewSeededRandomBot("bot", seed)
	for e.Status() == rules.StatusActive {
		state := e.GetGameState()
		mv, err := bot.ChooseMove(state.Turn, state.Hand(state.Turn).Cards(), e.ValidMovesForCard)
		require.NoError(t, err)
		_, err = e.ApplyMove(mv)
		require.NoError(t, err)
	}
}

func TestReplayRecordFollowsPlies(t *testing.T) {
	e := playedEngine(t)
	after := e.Snapshot()
	empty := *after
	empty.Moves = nil
	before := &empty

	replay := NewReplay(e.ID())
	assert.Nil(t, replay.Latest())
	assert.Nil(t, replay.AtPly(0))
	assert.Equal(t, "", replay.Moves())

	require.NoError(t, replay.Record(before))
	require.NoError(t, replay.Record(after))
	require.Equal(t, 2, replay.Len())
	assert.Same(t, before, replay.AtPly(0))
	assert.Same(t, after, replay.AtPly(1))
	assert.Nil(t, replay.AtPly(2))
	assert.Equal(t, "P5:d4*/1.5", replay.Moves())

	// Same ply again replaces the latest position.
	ended := *after
	ended.Status = rules.StatusCompleted
	require.NoError(t, replay.Record(&ended))
	assert.Equal(t, 2, replay.Len())
	assert.Equal(t, rules.StatusCompleted, replay.Latest().Status)
}

func TestReplayRecordRejectsGaps(t *testing.T) {
	e := playedEngine(t)
	snap := e.Snapshot()

	replay := NewReplay(e.ID())
	require.NoError(t, replay.Record(snap))

	skipped := *snap
	skipped.Moves = append(append([]rules.Move(nil), snap.Moves...), snap.Moves[0], snap.Moves[0])
	assert.Error(t, replay.Record(&skipped), "two plies at once")

	rewritten := *snap
	rewritten.Moves = append([]rules.Move(nil), snap.Moves...)
	rewritten.Moves[0].ID = "other"
	assert.Error(t, replay.Record(&rewritten))

	other := *snap
	other.GameID = "another-game"
	assert.Error(t, replay.Record(&other))
	assert.Equal(t, 1, replay.Len())
}

func TestReplayRecorderAttach(t *testing.T) {
	rr := NewReplayRecorder(zaptest.NewLogger(t), t.TempDir())
	e := seededEngine(t, 3)
	detach := rr.Attach(e)
	require.True(t, rr.Recording(e.ID()))

	playOut(t, e, 3)

	replay, ok := rr.Get(e.ID())
	require.True(t, ok)
	final := e.GetGameState()

	// One position per ply, the setup placement being ply 1.
	require.Equal(t, len(final.Moves), replay.Len())
	first := replay.AtPly(1)
	require.NotNil(t, first)
	assert.Equal(t, rules.StatusActive, first.Status)
	assert.True(t, first.Moves[0].Setup)
	for ply := 1; ply <= len(final.Moves); ply++ {
		require.Len(t, replay.AtPly(ply).Moves, ply)
	}
	last := replay.Latest()
	assert.Equal(t, rules.StatusCompleted, last.Status)
	assert.Equal(t, final.Winner, last.Winner)
	assert.Equal(t, notation.FormatMoves(final.Moves), replay.Moves())

	detach()
	assert.False(t, rr.Recording(e.ID()))
	_, ok = rr.Get(e.ID())
	assert.False(t, ok, "detaching drops an unsaved replay")
}

func TestReplayRecorderAttachMidGame(t *testing.T) {
	rr := NewReplayRecorder(zaptest.NewLogger(t), t.TempDir())
	e := playedEngine(t)
	defer rr.Attach(e)()

	replay, ok := rr.Get(e.ID())
	require.True(t, ok)
	require.Equal(t, 1, replay.Len())
	assert.NotNil(t, replay.AtPly(1))

	require.NoError(t, e.Resign(board.Black))
	assert.Equal(t, 1, replay.Len(), "resignation adds no ply")
	assert.Equal(t, rules.StatusCompleted, replay.Latest().Status)
}

func TestReplaySaveLoad(t *testing.T) {
	dir := t.TempDir()
	rr := NewReplayRecorder(zaptest.NewLogger(t), dir)
	e := seededEngine(t, 11)
	detach := rr.Attach(e)
	playOut(t, e, 11)

	original, _ := rr.Get(e.ID())
	require.NoError(t, rr.Save(e.ID()))
	detach()

	_, ok := rr.Get(e.ID())
	assert.False(t, ok, "saved replay is dropped from memory")
	assert.FileExists(t, filepath.Join(dir, e.ID()+".replay"))
	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	loaded, err := rr.Load(e.ID())
	require.NoError(t, err)
	require.Equal(t, original.Len(), loaded.Len())

	want, err := original.Latest().ComputeChecksum()
	require.NoError(t, err)
	got, err := loaded.Latest().ComputeChecksum()
	require.NoError(t, err)
	assert.Equal(t, want.Hash, got.Hash)

	// The final position can be resumed into an engine.
	restored, err := LoadEngine(loaded.Latest(), Options{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	assert.Equal(t, e.GetGameState().Winner, restored.GetGameState().Winner)
}

func TestSaveReplayUnknownGame(t *testing.T) {
	rr := NewReplayRecorder(zaptest.NewLogger(t), t.TempDir())
	assert.ErrorIs(t, rr.Save("missing"), ErrReplayNotFound)
	_, err := rr.Load("missing")
	assert.Error(t, err)
}

func TestLoadReplayRejectsTamperedState(t *testing.T) {
	dir := t.TempDir()
	snap := playedEngine(t).Snapshot()
	snap.GameID = "tampered"

	file, err := os.Create(filepath.Join(dir, "tampered.replay"))
	require.NoError(t, err)
	zw := gzip.NewWriter(file)
	require.NoError(t, gob.NewEncoder(zw).Encode(&replayFile{
		Version:       replayVersion,
		GameID:        "tampered",
		States:        []*Snapshot{snap},
		FinalChecksum: "deadbeef",
	}))
	require.NoError(t, zw.Close())
	require.NoError(t, file.Close())

	_, err = LoadReplayFromFile(dir, "tampered")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.replay"), []byte("junk"), 0o644))
	_, err = LoadReplayFromFile(dir, "junk")
	assert.Error(t, err)
}
