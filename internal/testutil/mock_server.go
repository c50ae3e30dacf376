//go:build !production

package testutil

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/mystery-pairs/internal/types"
)

// MockServer 实现 types.ServerInterface 的 mock
type MockServer struct {
	mock.Mock
}

func (m *MockServer) IsMaintenanceMode() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockServer) GetOnlineCount() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockServer) GetClientByID(id string) types.ClientInterface {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(types.ClientInterface)
}

// ClientRegistry 按 ID 保存 SimpleClient 的内存服务器
type ClientRegistry struct {
	mu          sync.RWMutex
	clients     map[string]*SimpleClient
	Maintenance bool
}

// NewClientRegistry 创建内存服务器并注册给定客户端
func NewClientRegistry(ids ...string) *ClientRegistry {
	r := &ClientRegistry{clients: make(map[string]*SimpleClient)}
	for _, id := range ids {
		r.Add(id)
	}
	return r
}

// Add 注册客户端
func (r *ClientRegistry) Add(id string) *SimpleClient {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &SimpleClient{ID: id}
	r.clients[id] = c
	return c
}

// Client 返回已注册的客户端
func (r *ClientRegistry) Client(id string) *SimpleClient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[id]
}

func (r *ClientRegistry) IsMaintenanceMode() bool { return r.Maintenance }

func (r *ClientRegistry) GetOnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *ClientRegistry) GetClientByID(id string) types.ClientInterface {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.clients[id]; ok {
		return c
	}
	return nil
}
