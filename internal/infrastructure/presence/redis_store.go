package presence

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"sohbet/pkg/logger"
)

// Status is a user's presence record as stored in Redis.
type Status struct {
	UserID   string    `json:"user_id"`
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
}

const (
	presenceKeyPrefix    = "presence:user:"
	presenceOnlineSet    = "presence:online"
	presenceHeartbeatSet = "presence:heartbeats"

	offlineRetention = 24 * time.Hour
)

// RedisStore tracks who is connected. Online records carry a TTL so a
// crashed client goes offline automatically when its heartbeats stop;
// the reaper clears the derived sets for the same case.
type RedisStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedisStore(client *goredis.Client, ttl time.Duration) *RedisStore {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Connect marks a user online. The heartbeat registration and the
// offline fallback record are written and acknowledged first; only then
// is the online flag raised. A session that raised the flag without a
// registered fallback could stay online forever after a crash.
func (s *RedisStore) Connect(ctx context.Context, userID string) error {
	now := time.Now()

	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, presenceHeartbeatSet, goredis.Z{
		Score:  float64(now.Unix()),
		Member: userID,
	})
	fallback, _ := json.Marshal(Status{UserID: userID, IsOnline: false, LastSeen: now})
	pipe.Set(ctx, presenceKeyPrefix+userID, fallback, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	online, _ := json.Marshal(Status{UserID: userID, IsOnline: true, LastSeen: now})
	pipe = s.client.Pipeline()
	pipe.Set(ctx, presenceKeyPrefix+userID, online, s.ttl)
	pipe.SAdd(ctx, presenceOnlineSet, userID)
	_, err := pipe.Exec(ctx)
	return err
}

// Disconnect marks a user offline. The record is kept for a while so
// last-seen queries still work.
func (s *RedisStore) Disconnect(ctx context.Context, userID string) error {
	now := time.Now()

	record, _ := json.Marshal(Status{UserID: userID, IsOnline: false, LastSeen: now})

	pipe := s.client.Pipeline()
	pipe.Set(ctx, presenceKeyPrefix+userID, record, offlineRetention)
	pipe.SRem(ctx, presenceOnlineSet, userID)
	pipe.ZRem(ctx, presenceHeartbeatSet, userID)
	_, err := pipe.Exec(ctx)
	return err
}

// Heartbeat refreshes the online record's TTL and heartbeat timestamp.
func (s *RedisStore) Heartbeat(ctx context.Context, userID string) error {
	now := time.Now()

	pipe := s.client.Pipeline()
	pipe.Expire(ctx, presenceKeyPrefix+userID, s.ttl)
	pipe.ZAdd(ctx, presenceHeartbeatSet, goredis.Z{
		Score:  float64(now.Unix()),
		Member: userID,
	})
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) IsOnline(ctx context.Context, userID string) (bool, error) {
	return s.client.SIsMember(ctx, presenceOnlineSet, userID).Result()
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*Status, error) {
	data, err := s.client.Get(ctx, presenceKeyPrefix+userID).Result()
	if err == goredis.Nil {
		return &Status{UserID: userID, IsOnline: false}, nil
	}
	if err != nil {
		return nil, err
	}

	var status Status
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *RedisStore) GetMultiple(ctx context.Context, userIDs []string) (map[string]*Status, error) {
	result := make(map[string]*Status)
	if len(userIDs) == 0 {
		return result, nil
	}

	pipe := s.client.Pipeline()
	cmds := make(map[string]*goredis.StringCmd, len(userIDs))
	for _, userID := range userIDs {
		cmds[userID] = pipe.Get(ctx, presenceKeyPrefix+userID)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != goredis.Nil {
		return nil, err
	}

	for userID, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			result[userID] = &Status{UserID: userID, IsOnline: false}
			continue
		}
		var status Status
		if err := json.Unmarshal([]byte(data), &status); err != nil {
			result[userID] = &Status{UserID: userID, IsOnline: false}
			continue
		}
		result[userID] = &status
	}
	return result, nil
}

func (s *RedisStore) OnlineUsers(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, presenceOnlineSet).Result()
}

// ReapStale removes users whose last heartbeat is older than the TTL
// from the derived sets. Run periodically.
func (s *RedisStore) ReapStale(ctx context.Context) error {
	cutoff := time.Now().Add(-s.ttl).Unix()

	stale, err := s.client.ZRangeByScore(ctx, presenceHeartbeatSet, &goredis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff, 10),
	}).Result()
	if err != nil {
		return err
	}

	for _, userID := range stale {
		if err := s.Disconnect(ctx, userID); err != nil {
			logger.Warn("Failed to reap stale presence for %s: %v", userID, err)
		} else {
			logger.Info("Reaped stale presence for user %s", userID)
		}
	}
	return nil
}

// RunReaper drives ReapStale on a fixed interval until ctx is done.
func (s *RedisStore) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.ReapStale(ctx); err != nil {
				logger.Error("Presence reaper pass failed: %v", err)
			}
		}
	}
}
