//go:build !production

package testutil

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/mystery-pairs/internal/protocol"
)

// MockClient 实现 types.ClientInterface 的 mock
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) GetRoom() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) SetRoom(roomID string) {
	m.Called(roomID)
}

func (m *MockClient) SendMessage(msg *protocol.Message) {
	m.Called(msg)
}

func (m *MockClient) Close() {
	m.Called()
}

// SimpleClient 简单的 mock 客户端，不使用 testify（用于不需要断言调用的测试）
type SimpleClient struct {
	ID     string
	RoomID string

	mu       sync.Mutex
	Messages []*protocol.Message
	Closed   bool
}

func (m *SimpleClient) GetID() string { return m.ID }

func (m *SimpleClient) GetRoom() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RoomID
}

func (m *SimpleClient) SetRoom(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RoomID = roomID
}

func (m *SimpleClient) SendMessage(msg *protocol.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, msg)
}

func (m *SimpleClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
}

// Last 返回最后一条指定类型的消息
func (m *SimpleClient) Last(t protocol.MessageType) *protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Messages) - 1; i >= 0; i-- {
		if m.Messages[i].Type == t {
			return m.Messages[i]
		}
	}
	return nil
}

// Count 返回指定类型消息的数量
func (m *SimpleClient) Count(t protocol.MessageType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.Messages {
		if msg.Type == t {
			n++
		}
	}
	return n
}

// Reset 清空已收到的消息
func (m *SimpleClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = nil
}
