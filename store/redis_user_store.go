package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/BatmanBruc/docx-quiz-bot/types"
)

// RedisUserStore keeps per-user session state: chosen language and which
// free-text input the bot is waiting for.
type RedisUserStore struct {
	client *RedisClient
	ttl    time.Duration
}

func NewRedisUserStore(redisClient *RedisClient, ttl time.Duration) *RedisUserStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisUserStore{
		client: redisClient,
		ttl:    ttl,
	}
}

func (s *RedisUserStore) stateKey(userID int64) string {
	return s.client.generateKey("user_state", strconv.FormatInt(userID, 10))
}

func (s *RedisUserStore) GetUserState(ctx context.Context, userID int64) (types.UserState, error) {
	var state types.UserState
	err := s.client.Get(ctx, s.stateKey(userID), &state)
	if errors.Is(err, ErrKeyNotFound) {
		return types.UserState{}, nil
	}
	if err != nil {
		return types.UserState{}, err
	}
	return state, nil
}

func (s *RedisUserStore) SetUserState(ctx context.Context, userID int64, state types.UserState) error {
	return s.client.Set(ctx, s.stateKey(userID), state, s.ttl)
}

func (s *RedisUserStore) ClearAwaiting(ctx context.Context, userID int64) error {
	var state types.UserState
	return s.client.Update(ctx, s.stateKey(userID), &state, s.ttl, func() (bool, error) {
		if state.Awaiting == types.AwaitingNothing {
			return false, nil
		}
		state.Awaiting = types.AwaitingNothing
		return true, nil
	})
}
