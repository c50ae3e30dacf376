package handler

import (
	"github.com/palemoky/mystery-pairs/internal/game/card"
	"github.com/palemoky/mystery-pairs/internal/game/room"
	"github.com/palemoky/mystery-pairs/internal/protocol"
	"github.com/palemoky/mystery-pairs/internal/types"
)

// handleDrawCard 处理摸牌
func (h *Handler) handleDrawCard(client types.ClientInterface, msg *protocol.Message) error {
	payload, err := parse[protocol.DrawCardPayload](msg)
	if err != nil {
		return err
	}
	_, err = h.roomManager.Draw(payload.RoomID, client.GetID(), card.Color(payload.Color), room.DrawSource(payload.Source))
	return err
}

// handleDiscardCard 处理弃牌
func (h *Handler) handleDiscardCard(client types.ClientInterface, msg *protocol.Message) error {
	payload, err := parse[protocol.DiscardCardPayload](msg)
	if err != nil {
		return err
	}
	_, err = h.roomManager.Discard(payload.RoomID, client.GetID(), payload.DiscardIndex)
	return err
}

// handleStand 处理停牌
func (h *Handler) handleStand(client types.ClientInterface, msg *protocol.Message) error {
	payload, err := parse[protocol.RoomPayload](msg)
	if err != nil {
		return err
	}
	_, err = h.roomManager.Stand(payload.RoomID, client.GetID())
	return err
}

// handleResolveMystery 处理神秘牌取值
func (h *Handler) handleResolveMystery(client types.ClientInterface, msg *protocol.Message) error {
	payload, err := parse[protocol.ResolveMysteryPayload](msg)
	if err != nil {
		return err
	}
	_, err = h.roomManager.ResolveMystery(payload.RoomID, client.GetID(), payload.CardID, payload.ChosenValue)
	return err
}
