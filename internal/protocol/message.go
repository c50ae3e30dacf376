package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	ID      string          `json:"id,omitempty"` // 客户端请求 ID，用于 ack 关联
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	MsgPing MessageType = "ping" // 心跳 ping

	// 房间操作
	MsgCreateRoom MessageType = "create_room" // 创建房间
	MsgJoinRoom   MessageType = "join_room"   // 加入房间
	MsgLeaveRoom  MessageType = "leave_room"  // 离开房间
	MsgStartGame  MessageType = "start_game"  // 开始游戏
	MsgNextRound  MessageType = "next_round"  // 下一局
	MsgPlayAgain  MessageType = "play_again"  // 原房间重开
	MsgRemakeRoom MessageType = "remake_room" // 重建房间

	// 游戏操作
	MsgDrawCard       MessageType = "draw_card"       // 摸牌
	MsgDiscardCard    MessageType = "discard_card"    // 弃牌
	MsgStand          MessageType = "stand"           // 停牌
	MsgResolveMystery MessageType = "resolve_mystery" // 选择骰子点数
)

// 服务端 → 客户端 消息类型
const (
	MsgConnected  MessageType = "connected"   // 连接成功
	MsgPong       MessageType = "pong"        // 心跳 pong
	MsgAck        MessageType = "ack"         // 请求确认
	MsgRoomUpdate MessageType = "room_update" // 房间完整快照

	// 错误
	MsgError MessageType = "error" // 错误消息
)
