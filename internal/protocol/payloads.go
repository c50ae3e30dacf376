package protocol

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// RoomPayload 仅携带房间号的请求（start_game / stand / next_round / play_again / remake_room）
type RoomPayload struct {
	RoomID string `json:"roomId"`
}

// CreateRoomPayload 创建房间请求，join_room 复用
type CreateRoomPayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
	Chips  int    `json:"chips"`
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload = CreateRoomPayload

// DrawCardPayload 摸牌请求
type DrawCardPayload struct {
	RoomID string `json:"roomId"`
	Color  string `json:"color"`  // red / yellow
	Source string `json:"source"` // deck / discard
}

// DiscardCardPayload 弃牌请求
type DiscardCardPayload struct {
	RoomID       string `json:"roomId"`
	DiscardIndex int    `json:"discardIndex"`
}

// ResolveMysteryPayload 神秘牌取值请求
type ResolveMysteryPayload struct {
	RoomID      string `json:"roomId"`
	CardID      string `json:"cardId"`
	ChosenValue int    `json:"chosenValue"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	PlayerID string `json:"playerId"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"clientTimestamp"`
	ServerTimestamp int64 `json:"serverTimestamp"`
}

// AckPayload 请求确认，成功时 ok=true，失败时带 error
type AckPayload struct {
	Request MessageType `json:"request"`
	OK      bool        `json:"ok,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    int         `json:"code,omitempty"`
}

// RoomUpdatePayload 房间快照广播，Room 为完整房间状态
type RoomUpdatePayload struct {
	Room any `json:"room"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RoomListItem 房间列表项
type RoomListItem struct {
	RoomID      string `json:"roomId"`
	Phase       string `json:"phase"`
	PlayerCount int    `json:"playerCount"`
	RoundNumber int    `json:"roundNumber"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	PlayerName string  `json:"playerName"`
	Wins       int     `json:"wins"`
	Matches    int     `json:"matches"`
	WinRate    float64 `json:"winRate"`
}
