package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/med-schedule-api/pkg/errors"
)

const groupMemberKeyPrefix = "group:members:"

// CacheRepository wraps Redis for caching student-group member sets. Member
// lookups happen on every small-vs-large conflict check, so they are the one
// catalog read worth caching.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger}
}

// GetGroupMembers retrieves a cached member-id set for the group.
func (r *CacheRepository) GetGroupMembers(ctx context.Context, groupID string) ([]string, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, groupMemberKeyPrefix+groupID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get group members %s: %w", groupID, err)
	}

	var members []string
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, fmt.Errorf("unmarshal group members %s: %w", groupID, err)
	}
	return members, nil
}

// SetGroupMembers stores the member-id set with the given TTL.
func (r *CacheRepository) SetGroupMembers(ctx context.Context, groupID string, members []string, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(members)
	if err != nil {
		return fmt.Errorf("marshal group members %s: %w", groupID, err)
	}
	if err := r.client.Set(ctx, groupMemberKeyPrefix+groupID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set group members %s: %w", groupID, err)
	}
	return nil
}

// InvalidateGroup drops the cached member set for one group, or for every
// group when groupID is empty. Called when a roster changes.
func (r *CacheRepository) InvalidateGroup(ctx context.Context, groupID string) error {
	if r.client == nil {
		return nil
	}
	pattern := groupMemberKeyPrefix + "*"
	if groupID != "" {
		pattern = groupMemberKeyPrefix + groupID
	}

	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan pattern %s: %w", pattern, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
