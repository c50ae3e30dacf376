package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/palemoky/mystery-pairs/internal/logger"
	"github.com/palemoky/mystery-pairs/internal/protocol"
	"github.com/palemoky/mystery-pairs/internal/protocol/codec"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 4096

	// 超速警告次数超过该值时断开
	maxRateWarnings = 5
)

// outbound 待发送的帧
type outbound struct {
	kind int
	data []byte
}

// Client 代表一个 WebSocket 连接，ID 即玩家 ID
type Client struct {
	ID string
	IP string

	server *Server
	conn   *websocket.Conn
	send   chan outbound
	binary atomic.Bool // 客户端最近一次使用二进制帧

	mu     sync.RWMutex
	roomID string
	closed bool
}

// NewClient 创建新客户端
func NewClient(s *Server, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.New().String(),
		server: s,
		conn:   conn,
		send:   make(chan outbound, 256),
	}
}

// ReadPump 从 WebSocket 读取消息，每条消息串行交给处理器
func (c *Client) ReadPump() {
	defer func() {
		if r := recover(); r != nil {
			logger.Panic(r)
		}
		c.handleDisconnect()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.L().Warn("读取错误", zap.String("client", c.ID), zap.Error(err))
			}
			return
		}
		c.binary.Store(kind == websocket.BinaryMessage)

		// 消息速率限制检查
		allowed, warning := c.server.messageLimiter.AllowMessage(c.ID)
		if !allowed {
			logger.L().Warn("⚠️ 客户端消息过于频繁", zap.String("client", c.ID), zap.String("ip", c.IP))
			c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "消息发送过于频繁"))
			if c.server.messageLimiter.GetWarningCount(c.ID) > maxRateWarnings {
				logger.L().Warn("🚫 客户端因多次超速被断开连接", zap.String("client", c.ID))
				return
			}
			continue
		}
		if warning {
			c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "请求过于频繁，请放慢速度"))
		}

		c.dispatch(kind, data)
	}
}

// dispatch 解码并处理一帧，处理后归还消息对象
func (c *Client) dispatch(kind int, data []byte) {
	var (
		msg *protocol.Message
		err error
	)
	if kind == websocket.BinaryMessage {
		msg, err = codec.DecodeBinary(data)
	} else {
		msg, err = codec.Decode(data)
	}
	if err != nil {
		logger.L().Debug("消息解析错误", zap.String("client", c.ID), zap.Error(err))
		c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	defer codec.PutMessage(msg)

	c.server.handler.Handle(c, msg)
}

// WritePump 向 WebSocket 写入消息并定期发送 ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(frame.kind, frame.data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 按客户端使用的帧类型编码并发送
func (c *Client) SendMessage(msg *protocol.Message) {
	frame := outbound{kind: websocket.TextMessage}
	if c.binary.Load() {
		frame.kind = websocket.BinaryMessage
		frame.data = codec.EncodeBinary(msg)
	} else {
		data, err := codec.Encode(msg)
		if err != nil {
			logger.L().Error("消息编码错误", zap.String("type", string(msg.Type)), zap.Error(err))
			return
		}
		frame.data = data
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- frame:
	default:
		// 发送缓冲区已满，异步关闭避免在读锁内升级为写锁
		logger.L().Warn("客户端发送缓冲区已满", zap.String("client", c.ID))
		go c.Close()
	}
}

// handleDisconnect 断线等同于离开房间
func (c *Client) handleDisconnect() {
	c.server.handler.HandleDisconnect(c)
	c.server.messageLimiter.RemoveClient(c.ID)
	c.server.unregisterClient(c)
	c.Close()
}

// Close 关闭发送通道，WritePump 随后发送关闭帧
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// GetID 获取玩家 ID
func (c *Client) GetID() string { return c.ID }

// SetRoom 设置客户端所在房间
func (c *Client) SetRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

// GetRoom 获取客户端所在房间
func (c *Client) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}
