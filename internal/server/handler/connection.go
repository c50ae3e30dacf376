package handler

import (
	"time"

	"github.com/palemoky/mystery-pairs/internal/protocol"
	"github.com/palemoky/mystery-pairs/internal/protocol/codec"
	"github.com/palemoky/mystery-pairs/internal/types"
)

// handlePing 处理心跳消息
func (h *Handler) handlePing(client types.ClientInterface, msg *protocol.Message) {
	var clientTS int64
	if payload, err := codec.ParsePayload[protocol.PingPayload](msg); err == nil {
		clientTS = payload.Timestamp
	}

	pong := codec.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: clientTS,
		ServerTimestamp: time.Now().UnixMilli(),
	})
	pong.ID = msg.ID
	client.SendMessage(pong)
}
