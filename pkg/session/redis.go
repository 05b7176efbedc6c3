package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"solinntec-site/pkg/content"

	"github.com/redis/go-redis/v9"
)

const (
	// saveLockTTL bounds how long a crashed save can block its session.
	saveLockTTL      = 2 * time.Minute
	maxUpdateRetries = 32
)

// ErrUpdateContended is returned when an update keeps losing the optimistic lock.
var ErrUpdateContended = errors.New("session update contended")

// Redis is a Registry shared by every instance behind a load balancer.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects to redisURL and verifies the connection.
func NewRedis(redisURL string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisWithClient(client, ttl), nil
}

func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		prefix: "site:",
		ttl:    ttl,
	}
}

func (r *Redis) stateKey(id string) string {
	return r.prefix + "session:" + id
}

func (r *Redis) lockKey(id string) string {
	return r.prefix + "saving:" + id
}

func (r *Redis) Load(ctx context.Context, id string) (content.State, bool, error) {
	state, ok, err := decodeState(r.client.Get(ctx, r.stateKey(id)))
	if err != nil || !ok {
		return state, ok, err
	}
	if r.ttl > 0 {
		if err := r.client.Expire(ctx, r.stateKey(id), r.ttl).Err(); err != nil {
			return content.State{}, false, fmt.Errorf("refresh session ttl: %w", err)
		}
	}
	return state, true, nil
}

func decodeState(cmd *redis.StringCmd) (content.State, bool, error) {
	data, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return content.State{}, false, nil
	}
	if err != nil {
		return content.State{}, false, fmt.Errorf("load session: %w", err)
	}

	var state content.State
	if err := json.Unmarshal(data, &state); err != nil {
		return content.State{}, false, fmt.Errorf("decode session: %w", err)
	}
	return state, true, nil
}

// Update runs fn inside a WATCH on the state and lock keys, retrying when
// another instance changed either of them before the transaction ran.
func (r *Redis) Update(ctx context.Context, id string, fn UpdateFunc) error {
	stateKey, lockKey := r.stateKey(id), r.lockKey(id)

	txf := func(tx *redis.Tx) error {
		locked, err := tx.Exists(ctx, lockKey).Result()
		if err != nil {
			return fmt.Errorf("check save lock: %w", err)
		}
		if locked > 0 {
			return ErrSaveInProgress
		}

		state, ok, err := decodeState(tx.Get(ctx, stateKey))
		if err != nil {
			return err
		}
		next, err := fn(state, ok)
		if err != nil {
			return err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, stateKey, data, r.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.client.Watch(ctx, txf, stateKey, lockKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update session %s: %w", id, ErrUpdateContended)
}

func (r *Redis) Save(ctx context.Context, id string, state content.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.stateKey(id), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.stateKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *Redis) AcquireSave(ctx context.Context, id string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.lockKey(id), 1, saveLockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire save lock: %w", err)
	}
	return ok, nil
}

func (r *Redis) ReleaseSave(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.lockKey(id)).Err(); err != nil {
		return fmt.Errorf("release save lock: %w", err)
	}
	return nil
}

func (r *Redis) Saving(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, r.lockKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("check save lock: %w", err)
	}
	return n > 0, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
