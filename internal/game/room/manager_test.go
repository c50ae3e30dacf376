package room

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/mystery-pairs/internal/apperrors"
	"github.com/palemoky/mystery-pairs/internal/game/card"
)

type recordingStore struct {
	mu      sync.Mutex
	saved   map[string]*Room
	saves   int
	deleted []string
	ops     []string // 按写入顺序记录 "save:<id>" / "delete:<id>"
}

func newRecordingStore() *recordingStore {
	return &recordingStore{saved: make(map[string]*Room)}
}

func (s *recordingStore) SaveRoom(_ context.Context, roomID string, snapshot any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[roomID] = snapshot.(*Room)
	s.saves++
	s.ops = append(s.ops, "save:"+roomID)
	return nil
}

func (s *recordingStore) DeleteRoom(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, roomID)
	s.ops = append(s.ops, "delete:"+roomID)
	return nil
}

func (s *recordingStore) opLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ops...)
}

func (s *recordingStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *recordingStore) deletedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func newTestManager() *Manager {
	return NewManager(nil, 8, rand.New(rand.NewPCG(5, 6)))
}

func TestManager_CreateAndJoin(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	snap, err := m.Create("r1", "p1", "P1", 10)
	require.NoError(t, err)
	assert.Equal(t, "r1", snap.ID)
	assert.Equal(t, "r1", m.RoomOf("p1"))

	_, err = m.Create("r1", "p2", "P2", 5)
	assert.ErrorIs(t, err, apperrors.ErrRoomExists)
	_, err = m.Create("r2", "p1", "P1", 5)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyJoined)

	snap, err = m.Join("r1", "p2", "P2")
	require.NoError(t, err)
	assert.Len(t, snap.Players, 2)
	assert.Equal(t, 10, snap.Players[1].ChipsTotal)

	_, err = m.Join("r1", "p2", "P2")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyJoined)
	_, err = m.Join("missing", "p3", "P3")
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)
}

func TestManager_CreateDefaults(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	snap, err := m.Create("", "p1", "P1", 0)
	require.NoError(t, err)
	assert.Len(t, snap.ID, roomCodeLength)
	assert.Equal(t, 8, snap.Players[0].ChipsTotal)
}

func TestManager_DoRequiresMembership(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	_, err := m.Create("r1", "p1", "P1", 8)
	require.NoError(t, err)

	_, err = m.Start("r1", "stranger")
	assert.ErrorIs(t, err, apperrors.ErrNotInRoom)
	_, err = m.Start("nope", "p1")
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)
}

func TestManager_SnapshotIsDetached(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	snap, err := m.Create("r1", "p1", "P1", 8)
	require.NoError(t, err)
	snap.Players[0].ChipsTotal = 1000

	again, ok := m.Snapshot("r1")
	require.True(t, ok)
	assert.Equal(t, 8, again.Players[0].ChipsTotal)

	_, ok = m.Snapshot("missing")
	assert.False(t, ok)
}

func TestManager_StoreMirrorsOnlySuccess(t *testing.T) {
	t.Parallel()

	store := newRecordingStore()
	m := NewManager(store, 8, nil)
	_, err := m.Create("r1", "p1", "P1", 8)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return store.saveCount() == 1 }, time.Second, 5*time.Millisecond)

	_, err = m.Stand("r1", "p1") // waiting 阶段不能停牌
	assert.ErrorIs(t, err, apperrors.ErrWrongPhase)
	_, err = m.Start("r1", "p1")
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return store.saveCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return store.saveCount() > 2 }, 50*time.Millisecond, 5*time.Millisecond)

	_, _, err = m.Leave("p1")
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		ids := store.deletedIDs()
		return len(ids) == 1 && ids[0] == "r1"
	}, time.Second, 5*time.Millisecond)
}

func TestManager_Leave(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	_, err := m.Create("r1", "p1", "P1", 8)
	require.NoError(t, err)
	_, err = m.Join("r1", "p2", "P2")
	require.NoError(t, err)

	snap, roomID, err := m.Leave("p1")
	require.NoError(t, err)
	assert.Equal(t, "r1", roomID)
	require.NotNil(t, snap)
	assert.Len(t, snap.Players, 1)
	assert.Empty(t, m.RoomOf("p1"))
	assert.Equal(t, 1, m.Count())

	snap, _, err = m.Leave("p2")
	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.Zero(t, m.Count(), "room is deleted when its last occupant leaves")

	_, _, err = m.Leave("p2")
	assert.ErrorIs(t, err, apperrors.ErrNotInRoom)

	// 同一 ID 可以重新创建
	_, err = m.Create("r1", "p3", "P3", 8)
	assert.NoError(t, err)
}

func TestManager_RemakeReplacesRoom(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	_, err := m.Create("r1", "p1", "P1", 5)
	require.NoError(t, err)
	_, err = m.Start("r1", "p1")
	require.NoError(t, err)

	snap, err := m.Remake("r1", "p1")
	require.NoError(t, err)
	assert.Equal(t, PhaseWaiting, snap.Phase)
	assert.Equal(t, 5, snap.Players[0].ChipsTotal)
	assert.Equal(t, "Game restarted with same settings.", lastLog(snap))

	_, err = m.Start("r1", "p1")
	assert.NoError(t, err, "remade room accepts a new match")
}

func TestManager_ListAndCounts(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	_, err := m.Create("b", "p1", "P1", 8)
	require.NoError(t, err)
	_, err = m.Create("a", "p2", "P2", 8)
	require.NoError(t, err)
	_, err = m.Start("b", "p1")
	require.NoError(t, err)

	items := m.List()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].RoomID)
	assert.Equal(t, "waiting", items[0].Phase)
	assert.Equal(t, "b", items[1].RoomID)
	assert.Equal(t, "playing", items[1].Phase)
	assert.Equal(t, 1, items[1].PlayerCount)

	assert.Equal(t, 2, m.Count())
	assert.Equal(t, 1, m.ActiveCount())
}

func TestManager_SweepIdle(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	_, err := m.Create("old", "p1", "P1", 8)
	require.NoError(t, err)
	_, err = m.Join("old", "p2", "P2")
	require.NoError(t, err)
	_, err = m.Create("fresh", "p3", "P3", 8)
	require.NoError(t, err)

	m.mu.RLock()
	e := m.rooms["old"]
	m.mu.RUnlock()
	e.mu.Lock()
	e.room.UpdatedAt = time.Now().Add(-time.Hour)
	e.mu.Unlock()

	removed := m.SweepIdle(30 * time.Minute)
	assert.Equal(t, map[string][]string{"old": {"p1", "p2"}}, removed)
	assert.Empty(t, m.RoomOf("p1"))
	assert.Equal(t, "fresh", m.RoomOf("p3"))

	_, ok := m.Snapshot("old")
	assert.False(t, ok)
}

func TestManager_ConcurrentRooms(t *testing.T) {
	t.Parallel()

	m := NewManager(nil, 8, nil)
	const rooms = 20

	var wg sync.WaitGroup
	for i := range rooms {
		wg.Go(func() {
			roomID := fmt.Sprintf("room-%d", i)
			host := fmt.Sprintf("h%d", i)
			guest := fmt.Sprintf("g%d", i)
			if _, err := m.Create(roomID, host, "Host", 8); err != nil {
				t.Error(err)
				return
			}
			if _, err := m.Join(roomID, guest, "Guest"); err != nil {
				t.Error(err)
				return
			}
			if _, err := m.Start(roomID, host); err != nil {
				t.Error(err)
				return
			}
			// 两名玩家同时尝试停牌：只有当前玩家成功
			var inner sync.WaitGroup
			for _, pid := range []string{host, guest} {
				inner.Go(func() { _, _ = m.Stand(roomID, pid) })
			}
			inner.Wait()
		})
	}
	wg.Wait()

	for i := range rooms {
		snap, ok := m.Snapshot(fmt.Sprintf("room-%d", i))
		require.True(t, ok)
		assert.GreaterOrEqual(t, snap.TurnsThisRound, 1)
		assert.LessOrEqual(t, snap.TurnsThisRound, 2)
		assert.GreaterOrEqual(t, snap.CurrentTurnIndex, 0)
		assert.Less(t, snap.CurrentTurnIndex, len(snap.Players))
	}
	assert.Equal(t, rooms, m.ActiveCount())
}

func TestEndToEnd_TwoPlayersEightChips(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	_, err := m.Create("e2e", "alice", "Alice", 8)
	require.NoError(t, err)
	_, err = m.Join("e2e", "bob", "Bob")
	require.NoError(t, err)
	_, err = m.Start("e2e", "alice")
	require.NoError(t, err)

	// 固定手牌：Alice 对 2，Bob (1,4)；牌堆只有普通牌
	_, err = m.Do("e2e", "alice", func(r *Room) error {
		r.Players[0].Hand = pairOf(2, 2)
		r.Players[1].Hand = pairOf(1, 4)
		r.DeckRed = numberDeck(card.Red, 10)
		return nil
	})
	require.NoError(t, err)

	var snap *Room
	for turn := range 6 {
		pid := []string{"alice", "bob"}[turn%2]
		_, err = m.Draw("e2e", pid, card.Red, SourceDeck)
		require.NoError(t, err)
		snap, err = m.Discard("e2e", pid, 2)
		require.NoError(t, err)
	}

	assert.Equal(t, PhaseReveal, snap.Phase)
	assert.Equal(t, 6, snap.TurnsThisRound)
	assert.Equal(t, []string{"alice"}, snap.WinnerIDs)

	alice, bob := snap.Players[0], snap.Players[1]
	assert.Equal(t, 8, alice.ChipsTotal, "winner reclaims 3 anted chips")
	assert.Equal(t, 2, bob.ChipsTotal, "loser forfeits 3 anted chips and pays diff 3")
	assert.Zero(t, alice.ChipsAnted)
	assert.Zero(t, bob.ChipsAnted)

	_, err = m.Draw("e2e", "alice", card.Red, SourceDeck)
	assert.ErrorIs(t, err, apperrors.ErrWrongPhase)

	snap, err = m.NextRound("e2e", "bob")
	require.NoError(t, err)
	assert.Equal(t, PhasePlaying, snap.Phase)
	assert.Equal(t, 1, snap.StartingPlayerIndex)
}

func TestManager_OnMatchOverFiresOnce(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	var mu sync.Mutex
	var winners []string
	m.OnMatchOver(func(snap *Room) {
		mu.Lock()
		defer mu.Unlock()
		winners = append(winners, snap.GrandWinnerID)
	})

	_, err := m.Create("final", "alice", "Alice", 1)
	require.NoError(t, err)
	_, err = m.Join("final", "bob", "Bob")
	require.NoError(t, err)
	_, err = m.Start("final", "alice")
	require.NoError(t, err)
	_, err = m.Do("final", "alice", func(r *Room) error {
		r.Players[0].Hand = pairOf(2, 2)
		r.Players[1].Hand = pairOf(1, 4)
		r.DeckRed = numberDeck(card.Red, 10)
		return nil
	})
	require.NoError(t, err)

	var snap *Room
	for turn := range 6 {
		pid := []string{"alice", "bob"}[turn%2]
		if turn < 2 {
			_, err = m.Draw("final", pid, card.Red, SourceDeck)
			require.NoError(t, err)
			snap, err = m.Discard("final", pid, 2)
		} else {
			snap, err = m.Stand("final", pid)
		}
		require.NoError(t, err)
	}

	assert.Equal(t, PhaseGameOver, snap.Phase)
	assert.Equal(t, "alice", snap.GrandWinnerID)

	// 已结束的比赛再次离开不会重复触发
	_, _, err = m.Leave("bob")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"alice"}, winners)
}

func TestManager_OnUpdateFollowsOperationOrder(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	var logLens []int // 回调在房间锁内执行，同一房间无需额外加锁
	m.OnUpdate(func(snap *Room) { logLens = append(logLens, len(snap.GameLog)) })

	_, err := m.Create("r1", "p1", "P1", 8)
	require.NoError(t, err)
	_, err = m.Join("r1", "p2", "P2")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, pid := range []string{"p1", "p2"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				_, err := m.PlayAgain("r1", pid)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	_, err = m.Stand("r1", "p1")
	require.ErrorIs(t, err, apperrors.ErrWrongPhase)

	snap, ok := m.Snapshot("r1")
	require.True(t, ok)
	require.Len(t, logLens, 102, "rejected intents are not published")
	assert.IsIncreasing(t, logLens)
	assert.Equal(t, len(snap.GameLog), logLens[len(logLens)-1])
}
