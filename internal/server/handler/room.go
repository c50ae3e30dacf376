package handler

import (
	"errors"
	"strings"

	"github.com/palemoky/mystery-pairs/internal/apperrors"
	"github.com/palemoky/mystery-pairs/internal/protocol"
	"github.com/palemoky/mystery-pairs/internal/types"
)

// handleCreateRoom 处理创建房间
func (h *Handler) handleCreateRoom(client types.ClientInterface, msg *protocol.Message) error {
	// 维护模式检查
	if h.server.IsMaintenanceMode() {
		return apperrors.ErrServerMaintenance
	}

	payload, err := parse[protocol.CreateRoomPayload](msg)
	if err != nil {
		return err
	}

	snap, err := h.roomManager.Create(strings.TrimSpace(payload.RoomID), client.GetID(), displayName(payload.Name), payload.Chips)
	if err != nil {
		return err
	}
	client.SetRoom(snap.ID)
	return nil
}

// handleJoinRoom 处理加入房间
func (h *Handler) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) error {
	if h.server.IsMaintenanceMode() {
		return apperrors.ErrServerMaintenance
	}

	payload, err := parse[protocol.JoinRoomPayload](msg)
	if err != nil {
		return err
	}

	snap, err := h.roomManager.Join(strings.TrimSpace(payload.RoomID), client.GetID(), displayName(payload.Name))
	if err != nil {
		return err
	}
	client.SetRoom(snap.ID)
	return nil
}

// handleLeaveRoom 处理离开房间
func (h *Handler) handleLeaveRoom(client types.ClientInterface, _ *protocol.Message) error {
	return h.leave(client)
}

func (h *Handler) leave(client types.ClientInterface) error {
	_, _, err := h.roomManager.Leave(client.GetID())
	if err != nil && !errors.Is(err, apperrors.ErrRoomNotFound) {
		return err
	}
	client.SetRoom("")
	return err
}

// handleStartGame 处理开始游戏
func (h *Handler) handleStartGame(client types.ClientInterface, msg *protocol.Message) error {
	payload, err := parse[protocol.RoomPayload](msg)
	if err != nil {
		return err
	}
	_, err = h.roomManager.Start(payload.RoomID, client.GetID())
	return err
}

// handleNextRound 处理进入下一轮
func (h *Handler) handleNextRound(client types.ClientInterface, msg *protocol.Message) error {
	payload, err := parse[protocol.RoomPayload](msg)
	if err != nil {
		return err
	}
	_, err = h.roomManager.NextRound(payload.RoomID, client.GetID())
	return err
}

// handlePlayAgain 处理原房间重开
func (h *Handler) handlePlayAgain(client types.ClientInterface, msg *protocol.Message) error {
	payload, err := parse[protocol.RoomPayload](msg)
	if err != nil {
		return err
	}
	_, err = h.roomManager.PlayAgain(payload.RoomID, client.GetID())
	return err
}

// handleRemakeRoom 处理重建房间
func (h *Handler) handleRemakeRoom(client types.ClientInterface, msg *protocol.Message) error {
	payload, err := parse[protocol.RoomPayload](msg)
	if err != nil {
		return err
	}
	_, err = h.roomManager.Remake(payload.RoomID, client.GetID())
	return err
}
