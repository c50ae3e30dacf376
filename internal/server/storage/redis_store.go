package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	roomKeyPrefix = "room:"

	// 房间快照默认过期时间
	defaultRoomExpiration = 2 * time.Hour
)

// RedisStore 房间快照存储
// 快照只做镜像，服务重启后不会从这里恢复房间
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore 创建 Redis 存储；client 为 nil 时所有操作为空操作
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultRoomExpiration
	}
	return &RedisStore{client: client, ttl: ttl}
}

// --- 房间快照 ---

// SaveRoom 保存房间快照
func (rs *RedisStore) SaveRoom(ctx context.Context, roomID string, snapshot any) error {
	if rs.client == nil || snapshot == nil {
		return nil
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}
	return rs.client.Set(ctx, roomKeyPrefix+roomID, data, rs.ttl).Err()
}

// LoadRoom 加载房间快照到 out，快照不存在时返回 false
func (rs *RedisStore) LoadRoom(ctx context.Context, roomID string, out any) (bool, error) {
	if rs.client == nil {
		return false, nil
	}

	data, err := rs.client.Get(ctx, roomKeyPrefix+roomID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("反序列化房间数据失败: %w", err)
	}
	return true, nil
}

// DeleteRoom 删除房间快照
func (rs *RedisStore) DeleteRoom(ctx context.Context, roomID string) error {
	if rs.client == nil {
		return nil
	}
	return rs.client.Del(ctx, roomKeyPrefix+roomID).Err()
}

// GetAllRoomIDs 获取所有快照的房间 ID
func (rs *RedisStore) GetAllRoomIDs(ctx context.Context) ([]string, error) {
	if rs.client == nil {
		return nil, nil
	}

	var ids []string
	iter := rs.client.Scan(ctx, 0, roomKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(roomKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetRoomExpiration 设置房间快照过期时间
func (rs *RedisStore) SetRoomExpiration(ctx context.Context, roomID string, expiration time.Duration) error {
	if rs.client == nil {
		return nil
	}
	return rs.client.Expire(ctx, roomKeyPrefix+roomID, expiration).Err()
}
