//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/mystery-pairs/internal/server/storage"
)

// MockLeaderboard 排行榜 mock
type MockLeaderboard struct {
	mock.Mock
}

func (m *MockLeaderboard) RecordMatch(ctx context.Context, players []storage.MatchPlayer) error {
	args := m.Called(ctx, players)
	return args.Error(0)
}

// MockRoomStore 房间快照存储 mock
type MockRoomStore struct {
	mock.Mock
}

func (m *MockRoomStore) SaveRoom(ctx context.Context, roomID string, snapshot any) error {
	args := m.Called(ctx, roomID, snapshot)
	return args.Error(0)
}

func (m *MockRoomStore) DeleteRoom(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}
