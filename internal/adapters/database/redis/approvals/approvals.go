package approvals

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
)

const queueKey = "approvals:queue"

// Storage is a FIFO queue of approval events.
type Storage struct {
	redis *redis.Client
}

func NewStorage(client *redis.Client) *Storage {
	return &Storage{
		redis: client,
	}
}

func (s *Storage) Push(ctx context.Context, event dto.ContributionApproved) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.redis.LPush(ctx, queueKey, eventBytes).Err()
}

// Pop blocks for up to timeout and returns nil when the queue stayed empty.
func (s *Storage) Pop(ctx context.Context, timeout time.Duration) (*dto.ContributionApproved, error) {
	result, err := s.redis.BRPop(ctx, timeout, queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var event dto.ContributionApproved
	if err = json.Unmarshal([]byte(result[1]), &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *Storage) Len(ctx context.Context) (int64, error) {
	return s.redis.LLen(ctx, queueKey).Result()
}
