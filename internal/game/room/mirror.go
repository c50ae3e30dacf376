package room

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/palemoky/mystery-pairs/internal/logger"
)

// mirror 房间快照的单写者队列
// 每个房间只保留最新一次待写状态（nil 表示删除），由一个 goroutine 按入队顺序写入存储，
// 因此先入队的保存不会覆盖之后的删除
type mirror struct {
	store Store

	mu      sync.Mutex
	pending map[string]*Room
	order   []string
	closed  bool

	wake    chan struct{}
	quit    chan struct{}
	stopped chan struct{}
}

func newMirror(store Store) *mirror {
	mr := &mirror{
		store:   store,
		pending: make(map[string]*Room),
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go mr.run()
	return mr
}

// enqueue 记录房间的最新状态，不阻塞；关闭后忽略
func (mr *mirror) enqueue(roomID string, snap *Room) {
	mr.mu.Lock()
	if mr.closed {
		mr.mu.Unlock()
		return
	}
	if _, queued := mr.pending[roomID]; !queued {
		mr.order = append(mr.order, roomID)
	}
	mr.pending[roomID] = snap
	mr.mu.Unlock()

	select {
	case mr.wake <- struct{}{}:
	default:
	}
}

func (mr *mirror) run() {
	defer close(mr.stopped)
	for {
		select {
		case <-mr.wake:
			mr.flush()
		case <-mr.quit:
			mr.flush()
			return
		}
	}
}

// flush 取出当前批次并依次写入
func (mr *mirror) flush() {
	mr.mu.Lock()
	order, pending := mr.order, mr.pending
	mr.order, mr.pending = nil, make(map[string]*Room)
	mr.mu.Unlock()

	for _, id := range order {
		mr.write(id, pending[id])
	}
}

func (mr *mirror) write(roomID string, snap *Room) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if snap == nil {
		if err := mr.store.DeleteRoom(ctx, roomID); err != nil {
			logger.L().Warn("⚠️ 删除房间快照失败", zap.String("room", roomID), zap.Error(err))
		}
		return
	}
	if err := mr.store.SaveRoom(ctx, roomID, snap); err != nil {
		logger.L().Warn("⚠️ 保存房间快照失败", zap.String("room", roomID), zap.Error(err))
	}
}

// close 停止接收新状态，写完已入队的快照后返回
func (mr *mirror) close(ctx context.Context) error {
	mr.mu.Lock()
	if mr.closed {
		mr.mu.Unlock()
		return nil
	}
	mr.closed = true
	mr.mu.Unlock()

	close(mr.quit)
	select {
	case <-mr.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
