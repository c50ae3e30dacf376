package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/mystery-pairs/internal/apperrors"
	"github.com/palemoky/mystery-pairs/internal/game/room"
	"github.com/palemoky/mystery-pairs/internal/logger"
	"github.com/palemoky/mystery-pairs/internal/protocol"
	"github.com/palemoky/mystery-pairs/internal/protocol/codec"
	"github.com/palemoky/mystery-pairs/internal/server/storage"
	"github.com/palemoky/mystery-pairs/internal/types"
)

const recordTimeout = 5 * time.Second

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server      types.ServerInterface
	RoomManager *room.Manager
	Leaderboard types.MatchRecorder // 可以为 nil
}

// Handler 消息处理器
type Handler struct {
	server      types.ServerInterface
	roomManager *room.Manager
	leaderboard types.MatchRecorder
	handlers    map[protocol.MessageType]handlerFunc
}

// handlerFunc 房间操作处理器
// 成功的操作由房间注册表在房间锁内广播快照，处理器只负责返回错误
type handlerFunc func(client types.ClientInterface, msg *protocol.Message) error

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server:      deps.Server,
		roomManager: deps.RoomManager,
		leaderboard: deps.Leaderboard,
	}
	h.initHandlers()
	h.roomManager.OnUpdate(h.broadcastRoom)
	h.roomManager.OnMatchOver(h.recordMatch)
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 房间操作
		protocol.MsgCreateRoom: h.handleCreateRoom,
		protocol.MsgJoinRoom:   h.handleJoinRoom,
		protocol.MsgLeaveRoom:  h.handleLeaveRoom,
		protocol.MsgStartGame:  h.handleStartGame,
		protocol.MsgNextRound:  h.handleNextRound,
		protocol.MsgPlayAgain:  h.handlePlayAgain,
		protocol.MsgRemakeRoom: h.handleRemakeRoom,

		// 游戏操作
		protocol.MsgDrawCard:       h.handleDrawCard,
		protocol.MsgDiscardCard:    h.handleDiscardCard,
		protocol.MsgStand:          h.handleStand,
		protocol.MsgResolveMystery: h.handleResolveMystery,
	}
}

// Handle 处理消息：执行一次房间操作，再应答请求者
// 快照广播发生在操作内部，与同一房间的其他操作串行
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	if msg.Type == protocol.MsgPing {
		h.handlePing(client, msg)
		return
	}

	handler, ok := h.handlers[msg.Type]
	if !ok {
		logger.L().Warn("⚠️ 未知消息类型",
			zap.String("type", string(msg.Type)),
			zap.String("player", client.GetID()),
			zap.Int("payload_bytes", len(msg.Payload)),
		)
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if err := handler(client, msg); err != nil {
		client.SendMessage(ackError(msg, err))
		return
	}
	client.SendMessage(codec.NewAck(msg, 0, ""))
}

// HandleDisconnect 连接断开等同于离开房间
func (h *Handler) HandleDisconnect(client types.ClientInterface) {
	if h.roomManager.RoomOf(client.GetID()) == "" {
		return
	}
	if err := h.leave(client); err != nil {
		logger.L().Warn("⚠️ 断线离开房间失败", zap.String("player", client.GetID()), zap.Error(err))
	}
}

// broadcastRoom 向房间内每位玩家发送完整快照，在房间锁内调用，SendMessage 不阻塞
func (h *Handler) broadcastRoom(snap *room.Room) {
	msg := codec.MustNewMessage(protocol.MsgRoomUpdate, protocol.RoomUpdatePayload{Room: snap})
	for _, p := range snap.Players {
		if c := h.server.GetClientByID(p.ID); c != nil {
			c.SendMessage(msg)
		}
	}
}

// ackError 把错误映射为失败应答，未知错误使用 ErrCodeUnknown
func ackError(req *protocol.Message, err error) *protocol.Message {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		return codec.NewAck(req, gameErr.Code, gameErr.Message)
	}
	logger.L().Error("❌ 处理请求出错", zap.String("type", string(req.Type)), zap.Error(err))
	return codec.NewAck(req, protocol.ErrCodeUnknown, protocol.ErrorMessages[protocol.ErrCodeUnknown])
}

// parse 解析请求 payload，失败时返回 ErrInvalidMessage
func parse[T any](msg *protocol.Message) (*T, error) {
	payload, err := codec.ParsePayload[T](msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidMessage, err)
	}
	return payload, nil
}

// recordMatch 比赛结束时异步写入排行榜
func (h *Handler) recordMatch(snap *room.Room) {
	if h.leaderboard == nil {
		return
	}
	players := make([]storage.MatchPlayer, len(snap.Players))
	for i, p := range snap.Players {
		players[i] = storage.MatchPlayer{ID: p.ID, Name: p.Name, Winner: p.ID == snap.GrandWinnerID}
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := h.leaderboard.RecordMatch(ctx, players); err != nil {
			logger.L().Warn("⚠️ 记录比赛结果失败", zap.String("room", snap.ID), zap.Error(err))
			return
		}
		logger.L().Info("📈 比赛结果已记录", zap.String("room", snap.ID), zap.Int("players", len(players)))
	}()
}
