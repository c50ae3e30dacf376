package types

import (
	"context"

	"github.com/palemoky/mystery-pairs/internal/protocol"
	"github.com/palemoky/mystery-pairs/internal/server/storage"
)

// ServerInterface 定义服务器接口（用于打破循环依赖）
type ServerInterface interface {
	IsMaintenanceMode() bool
	GetOnlineCount() int
	GetClientByID(id string) ClientInterface
}

// ClientInterface 定义客户端接口
type ClientInterface interface {
	GetID() string
	GetRoom() string
	SetRoom(roomID string)
	SendMessage(msg *protocol.Message) // 不得阻塞，房间广播在房间锁内调用
	Close()
}

// MatchRecorder 比赛结果记录
type MatchRecorder interface {
	RecordMatch(ctx context.Context, players []storage.MatchPlayer) error
}
