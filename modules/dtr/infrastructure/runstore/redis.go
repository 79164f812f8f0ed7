package runstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iota-uz/campus-sdk/modules/dtr/domain/aggregates/importrun"
)

const (
	redisPrefix    = "dtr:import_runs:v1"
	defaultLockTTL = 2 * time.Minute
)

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Redis stores run snapshots as JSON under one key per run, expiring ttl
// after the last save.
type Redis struct {
	redis   *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{redis: client, ttl: ttl, lockTTL: defaultLockTTL}
}

func (r *Redis) key(id uuid.UUID) string {
	return fmt.Sprintf("%s:{%s}", redisPrefix, id.String())
}

func (r *Redis) Save(ctx context.Context, run importrun.Run) error {
	data, err := encodeRun(run)
	if err != nil {
		return err
	}
	return r.redis.Set(ctx, r.key(run.ID()), data, r.ttl).Err()
}

func (r *Redis) Get(ctx context.Context, id uuid.UUID) (importrun.Run, error) {
	data, err := r.redis.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return importrun.Run{}, importrun.ErrNotFound
		}
		return importrun.Run{}, err
	}
	return decodeRun(data)
}

// Lock takes a lease with SET NX. The lease expires on its own if the holder
// dies; unlock only releases a lease it still owns.
func (r *Redis) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	key := r.key(id) + ":lock"
	token := uuid.NewString()
	ok, err := r.redis.SetNX(ctx, key, token, r.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("lock run: %w", err)
	}
	if !ok {
		return nil, importrun.ErrRunBusy
	}
	return func() {
		_ = unlockScript.Run(context.Background(), r.redis, []string{key}, token).Err()
	}, nil
}

func encodeRun(run importrun.Run) ([]byte, error) {
	data, err := json.Marshal(run.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("encode run: %w", err)
	}
	return data, nil
}

func decodeRun(data []byte) (importrun.Run, error) {
	var snap importrun.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return importrun.Run{}, fmt.Errorf("decode run: %w", err)
	}
	return importrun.Hydrate(snap), nil
}
