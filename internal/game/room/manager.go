package room

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/mystery-pairs/internal/apperrors"
	"github.com/palemoky/mystery-pairs/internal/game/card"
	"github.com/palemoky/mystery-pairs/internal/logger"
	"github.com/palemoky/mystery-pairs/internal/protocol"
)

const (
	roomCodeLength = 6            // 房间号长度
	roomCodeChars  = "0123456789" // 房间号字符集
	storeTimeout   = 3 * time.Second
)

// Store 房间快照存储
type Store interface {
	SaveRoom(ctx context.Context, roomID string, snapshot any) error
	DeleteRoom(ctx context.Context, roomID string) error
}

// entry 房间及其互斥锁，同一房间的所有操作串行执行
type entry struct {
	mu      sync.Mutex
	room    *Room
	deleted bool
}

// Manager 房间注册表
// 加锁顺序固定为 entry.mu → Manager.mu
type Manager struct {
	mirror       *mirror
	rng          card.Source
	defaultChips int

	rooms   map[string]*entry
	players map[string]string // 玩家 ID → 房间 ID
	mu      sync.RWMutex

	onUpdate    func(snap *Room)
	onMatchOver func(snap *Room)
}

// NewManager 创建房间注册表，store 可以为 nil
func NewManager(store Store, defaultChips int, rng card.Source) *Manager {
	if rng == nil {
		rng = card.DefaultSource
	}
	m := &Manager{
		rng:          rng,
		defaultChips: defaultChips,
		rooms:        make(map[string]*entry),
		players:      make(map[string]string),
	}
	if store != nil {
		m.mirror = newMirror(store)
	}
	return m
}

// Close 停止快照写入，等待已入队的快照写完
func (m *Manager) Close(ctx context.Context) error {
	if m.mirror == nil {
		return nil
	}
	return m.mirror.close(ctx)
}

// OnUpdate 注册房间变更回调，每次成功操作后持有房间锁以快照调用
// 同一房间的回调按操作顺序执行，回调不得阻塞
func (m *Manager) OnUpdate(fn func(snap *Room)) {
	m.onUpdate = fn
}

// OnMatchOver 注册比赛结束回调，在房间刚进入 gameOver 时以快照调用（持有房间锁，回调不得阻塞）
func (m *Manager) OnMatchOver(fn func(snap *Room)) {
	m.onMatchOver = fn
}

// Create 创建房间，roomID 为空时生成房间号
func (m *Manager) Create(roomID, playerID, name string, chips int) (*Room, error) {
	if chips <= 0 {
		chips = m.defaultChips
	}

	m.mu.Lock()
	if _, in := m.players[playerID]; in {
		m.mu.Unlock()
		return nil, apperrors.ErrAlreadyJoined
	}
	if roomID == "" {
		roomID = m.generateRoomCode()
	}
	if _, exists := m.rooms[roomID]; exists {
		m.mu.Unlock()
		return nil, apperrors.ErrRoomExists
	}
	// 新房间在加入注册表前加锁，其他操作只能在发布之后看到它
	e := &entry{room: New(roomID, playerID, name, chips, m.rng)}
	e.mu.Lock()
	defer e.mu.Unlock()
	m.rooms[roomID] = e
	m.players[playerID] = roomID
	m.mu.Unlock()

	snap := m.publish(e.room)
	logger.L().Info("🏠 房间已创建", zap.String("room", roomID), zap.String("player", name), zap.Int("chips", chips))
	return snap, nil
}

// Join 加入房间
func (m *Manager) Join(roomID, playerID, name string) (*Room, error) {
	if m.RoomOf(playerID) != "" {
		return nil, apperrors.ErrAlreadyJoined
	}
	e := m.entry(roomID)
	if e == nil {
		return nil, apperrors.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, apperrors.ErrRoomNotFound
	}
	if err := e.room.Join(playerID, name); err != nil {
		return nil, err
	}
	e.room.UpdatedAt = time.Now()

	m.mu.Lock()
	m.players[playerID] = roomID
	m.mu.Unlock()

	snap := m.publish(e.room)
	logger.L().Info("👤 玩家加入房间", zap.String("room", roomID), zap.String("player", name))
	return snap, nil
}

// Do 在房间锁内执行 fn，成功后在锁内发布快照并返回
// 失败时房间保持不变，既不发布也不写入存储
func (m *Manager) Do(roomID, playerID string, fn func(r *Room) error) (*Room, error) {
	return m.mutate(roomID, playerID, func(e *entry) error { return fn(e.room) })
}

func (m *Manager) mutate(roomID, playerID string, fn func(e *entry) error) (*Room, error) {
	e := m.entry(roomID)
	if e == nil {
		return nil, apperrors.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, apperrors.ErrRoomNotFound
	}
	if e.room.Player(playerID) == nil {
		return nil, apperrors.ErrNotInRoom
	}
	before := e.room.Phase
	if err := fn(e); err != nil {
		return nil, err
	}
	e.room.UpdatedAt = time.Now()

	snap := m.publish(e.room)
	m.checkMatchOver(before, snap)
	return snap, nil
}

// publish 复制快照，交给快照队列和变更回调，调用方需持有房间锁
func (m *Manager) publish(r *Room) *Room {
	snap := r.Clone()
	if m.mirror != nil {
		m.mirror.enqueue(snap.ID, snap)
	}
	if m.onUpdate != nil {
		m.onUpdate(snap)
	}
	return snap
}

func (m *Manager) checkMatchOver(before Phase, snap *Room) {
	if m.onMatchOver == nil || before == PhaseGameOver || snap.Phase != PhaseGameOver {
		return
	}
	logger.L().Info("🏆 比赛结束", zap.String("room", snap.ID), zap.String("winner", snap.GrandWinnerID))
	m.onMatchOver(snap)
}

// Start 开始游戏
func (m *Manager) Start(roomID, playerID string) (*Room, error) {
	return m.Do(roomID, playerID, func(r *Room) error { return r.Start() })
}

// Draw 摸牌
func (m *Manager) Draw(roomID, playerID string, color card.Color, source DrawSource) (*Room, error) {
	return m.Do(roomID, playerID, func(r *Room) error { return r.Draw(playerID, color, source) })
}

// Discard 弃牌
func (m *Manager) Discard(roomID, playerID string, index int) (*Room, error) {
	return m.Do(roomID, playerID, func(r *Room) error { return r.Discard(playerID, index) })
}

// Stand 停牌
func (m *Manager) Stand(roomID, playerID string) (*Room, error) {
	return m.Do(roomID, playerID, func(r *Room) error { return r.Stand(playerID) })
}

// ResolveMystery 神秘牌选值
func (m *Manager) ResolveMystery(roomID, playerID, cardID string, chosen int) (*Room, error) {
	return m.Do(roomID, playerID, func(r *Room) error { return r.ResolveMystery(playerID, cardID, chosen) })
}

// NextRound 下一轮
func (m *Manager) NextRound(roomID, playerID string) (*Room, error) {
	return m.Do(roomID, playerID, func(r *Room) error { return r.NextRound() })
}

// PlayAgain 原地重开
func (m *Manager) PlayAgain(roomID, playerID string) (*Room, error) {
	return m.Do(roomID, playerID, func(r *Room) error {
		r.PlayAgain()
		return nil
	})
}

// Remake 以相同玩家重建房间
func (m *Manager) Remake(roomID, playerID string) (*Room, error) {
	return m.mutate(roomID, playerID, func(e *entry) error {
		e.room = e.room.Remake(m.defaultChips)
		return nil
	})
}

// Leave 玩家离开所在房间；房间变空时删除
// 返回离开后的快照（房间已删除时为 nil）
func (m *Manager) Leave(playerID string) (snap *Room, roomID string, err error) {
	roomID = m.RoomOf(playerID)
	if roomID == "" {
		return nil, "", apperrors.ErrNotInRoom
	}
	e := m.entry(roomID)
	if e == nil {
		m.unindex(playerID)
		return nil, roomID, apperrors.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		m.unindex(playerID)
		return nil, roomID, apperrors.ErrRoomNotFound
	}

	before := e.room.Phase
	empty, err := e.room.RemovePlayer(playerID)
	if err != nil {
		return nil, roomID, err
	}

	m.mu.Lock()
	delete(m.players, playerID)
	if empty {
		e.deleted = true
		m.remove(roomID)
		delete(m.rooms, roomID)
	}
	m.mu.Unlock()

	if empty {
		logger.L().Info("🏠 房间已解散", zap.String("room", roomID))
		return nil, roomID, nil
	}

	e.room.UpdatedAt = time.Now()
	snap = m.publish(e.room)
	m.checkMatchOver(before, snap)
	logger.L().Info("👋 玩家离开房间", zap.String("room", roomID), zap.String("player", playerID))
	return snap, roomID, nil
}

// Snapshot 返回房间快照
func (m *Manager) Snapshot(roomID string) (*Room, bool) {
	e := m.entry(roomID)
	if e == nil {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, false
	}
	return e.room.Clone(), true
}

// List 返回房间列表，按房间号排序
func (m *Manager) List() []protocol.RoomListItem {
	items := make([]protocol.RoomListItem, 0)
	for id, e := range m.entries() {
		e.mu.Lock()
		if !e.deleted {
			items = append(items, protocol.RoomListItem{
				RoomID:      id,
				Phase:       string(e.room.Phase),
				PlayerCount: len(e.room.Players),
				RoundNumber: e.room.RoundNumber,
			})
		}
		e.mu.Unlock()
	}
	slices.SortFunc(items, func(a, b protocol.RoomListItem) int {
		switch {
		case a.RoomID < b.RoomID:
			return -1
		case a.RoomID > b.RoomID:
			return 1
		}
		return 0
	})
	return items
}

// RoomOf 返回玩家所在房间 ID
func (m *Manager) RoomOf(playerID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.players[playerID]
}

// Count 返回房间总数
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// ActiveCount 返回正在进行一轮游戏的房间数
func (m *Manager) ActiveCount() int {
	count := 0
	for _, e := range m.entries() {
		e.mu.Lock()
		if !e.deleted && e.room.Phase.InRound() {
			count++
		}
		e.mu.Unlock()
	}
	return count
}

// SweepIdle 删除超过 maxIdle 未更新的房间，返回被删除房间内的玩家（房间 ID → 玩家 ID）
func (m *Manager) SweepIdle(maxIdle time.Duration) map[string][]string {
	removed := make(map[string][]string)
	now := time.Now()
	for id, e := range m.entries() {
		e.mu.Lock()
		if e.deleted || now.Sub(e.room.UpdatedAt) <= maxIdle {
			e.mu.Unlock()
			continue
		}
		e.deleted = true
		ids := make([]string, len(e.room.Players))
		for i, p := range e.room.Players {
			ids[i] = p.ID
		}
		removed[id] = ids

		m.mu.Lock()
		m.remove(id)
		delete(m.rooms, id)
		for _, pid := range ids {
			if m.players[pid] == id {
				delete(m.players, pid)
			}
		}
		m.mu.Unlock()
		e.mu.Unlock()

		logger.L().Info("🧹 空闲房间已清理", zap.String("room", id), zap.Int("players", len(ids)))
	}
	return removed
}

func (m *Manager) entry(roomID string) *entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[roomID]
}

// entries 复制一份映射，避免持有注册表锁时再加房间锁
func (m *Manager) entries() map[string]*entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*entry, len(m.rooms))
	for id, e := range m.rooms {
		out[id] = e
	}
	return out
}

func (m *Manager) unindex(playerID string) {
	m.mu.Lock()
	delete(m.players, playerID)
	m.mu.Unlock()
}

// generateRoomCode 生成房间号，调用方需持有 m.mu
func (m *Manager) generateRoomCode() string {
	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = roomCodeChars[rand.IntN(len(roomCodeChars))]
		}
		if _, exists := m.rooms[string(code)]; !exists {
			return string(code)
		}
	}
}

// remove 删除房间快照，调用方需持有房间锁和 m.mu，且在房间移出注册表之前调用
// 同 ID 的新房间只能在此之后创建，其快照排在删除之后
func (m *Manager) remove(roomID string) {
	if m.mirror != nil {
		m.mirror.enqueue(roomID, nil)
	}
}
