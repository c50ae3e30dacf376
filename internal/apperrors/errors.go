package apperrors

import (
	"errors"

	"github.com/palemoky/mystery-pairs/internal/protocol"
)

// GameError 游戏错误（房间、注册表和会话共享）
type GameError struct {
	Code    int
	Kind    string
	Message string
}

func (e *GameError) Error() string {
	return e.Kind + ": " + e.Message
}

// Is 按错误码比较，便于 errors.Is 匹配包装过的错误
func (e *GameError) Is(target error) bool {
	var t *GameError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func newErr(code int, kind string) *GameError {
	return &GameError{Code: code, Kind: kind, Message: protocol.ErrorMessages[code]}
}

// 预定义错误
var (
	ErrRoomNotFound      = newErr(protocol.ErrCodeRoomNotFound, "room-not-found")
	ErrRoomExists        = newErr(protocol.ErrCodeRoomExists, "room-already-exists")
	ErrNotInRoom         = newErr(protocol.ErrCodeNotInRoom, "not-in-room")
	ErrAlreadyJoined     = newErr(protocol.ErrCodeAlreadyJoined, "already-joined")
	ErrWrongPhase        = newErr(protocol.ErrCodeWrongPhase, "wrong-phase")
	ErrNotYourTurn       = newErr(protocol.ErrCodeNotYourTurn, "not-your-turn")
	ErrNoChips           = newErr(protocol.ErrCodeNoChips, "no-chips")
	ErrSourceExhausted   = newErr(protocol.ErrCodeSourceExhausted, "source-exhausted")
	ErrInvalidIndex      = newErr(protocol.ErrCodeInvalidIndex, "invalid-index")
	ErrDrawPending       = newErr(protocol.ErrCodeDrawPending, "draw-pending")
	ErrNoPendingDraw     = newErr(protocol.ErrCodeNoPendingDraw, "no-pending-draw")
	ErrNoActiveMystery   = newErr(protocol.ErrCodeNoActiveMystery, "no-active-mystery")
	ErrInvalidValue      = newErr(protocol.ErrCodeInvalidValue, "invalid-value")
	ErrInvalidMessage    = newErr(protocol.ErrCodeInvalidMsg, "invalid-message")
	ErrServerMaintenance = newErr(protocol.ErrCodeServerMaintenance, "server-maintenance")
)

// CodeOf 返回错误对应的错误码，非 GameError 返回 ErrCodeUnknown
func CodeOf(err error) int {
	var gameErr *GameError
	if errors.As(err, &gameErr) {
		return gameErr.Code
	}
	return protocol.ErrCodeUnknown
}
