package protocol

// 错误码
const (
	ErrCodeUnknown           = 1000
	ErrCodeInvalidMsg        = 1001
	ErrCodeRateLimit         = 1002 // 速率限制
	ErrCodeRoomNotFound      = 2001
	ErrCodeRoomExists        = 2002
	ErrCodeNotInRoom         = 2003
	ErrCodeAlreadyJoined     = 2004
	ErrCodeWrongPhase        = 3001
	ErrCodeNotYourTurn       = 3002
	ErrCodeNoChips           = 3003
	ErrCodeSourceExhausted   = 3004
	ErrCodeInvalidIndex      = 3005
	ErrCodeDrawPending       = 3006
	ErrCodeNoPendingDraw     = 3007
	ErrCodeNoActiveMystery   = 4001
	ErrCodeInvalidValue      = 4002
	ErrCodeServerMaintenance = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:           "未知错误",
	ErrCodeInvalidMsg:        "无效的消息格式",
	ErrCodeRateLimit:         "请求过于频繁",
	ErrCodeRoomNotFound:      "房间不存在",
	ErrCodeRoomExists:        "房间已存在",
	ErrCodeNotInRoom:         "您不在房间中",
	ErrCodeAlreadyJoined:     "您已在房间中",
	ErrCodeWrongPhase:        "当前阶段不能执行该操作",
	ErrCodeNotYourTurn:       "还没轮到您",
	ErrCodeNoChips:           "筹码不足",
	ErrCodeSourceExhausted:   "没有可摸的牌",
	ErrCodeInvalidIndex:      "无效的弃牌位置",
	ErrCodeDrawPending:       "请先弃一张牌",
	ErrCodeNoPendingDraw:     "本回合还没有摸牌",
	ErrCodeNoActiveMystery:   "没有待选择的神秘牌",
	ErrCodeInvalidValue:      "只能选择掷出的点数",
	ErrCodeServerMaintenance: "服务器维护中",
}
