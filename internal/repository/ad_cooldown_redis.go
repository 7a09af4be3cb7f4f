package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	redis "github.com/redis/go-redis/v9"
)

// RedisAdCooldownStore keeps lastAdWatchTime per user in Redis.
// key format: ad:lastAdWatchTime:<user_id>, value: epoch milliseconds
type RedisAdCooldownStore struct {
	client *redis.Client
}

func NewRedisAdCooldownStore(client *redis.Client) *RedisAdCooldownStore {
	return &RedisAdCooldownStore{client: client}
}

// only delete the stamp we wrote
var releaseWatchScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func adWatchKey(userID int64) string {
	return "ad:lastAdWatchTime:" + strconv.FormatInt(userID, 10)
}

func parseWatchStamp(v string) (time.Time, error) {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "parse lastAdWatchTime")
	}
	return time.UnixMilli(ms), nil
}

func (s *RedisAdCooldownStore) LastWatch(ctx context.Context, userID int64) (time.Time, error) {
	v, err := s.client.Get(ctx, adWatchKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, errors.Wrap(err, "get lastAdWatchTime")
	}
	return parseWatchStamp(v)
}

// TryRecordWatch uses SET NX PX so two concurrent watches cannot both pass.
// The key expires together with the cooldown.
func (s *RedisAdCooldownStore) TryRecordWatch(ctx context.Context, userID int64, now time.Time, cooldown time.Duration) (bool, time.Time, error) {
	key := adWatchKey(userID)
	stamp := strconv.FormatInt(now.UnixMilli(), 10)

	ok, err := s.client.SetNX(ctx, key, stamp, cooldown).Result()
	if err != nil {
		return false, time.Time{}, errors.Wrap(err, "set lastAdWatchTime")
	}
	if ok {
		return true, time.UnixMilli(now.UnixMilli()), nil
	}

	last, err := s.LastWatch(ctx, userID)
	if err != nil {
		return false, time.Time{}, err
	}
	return false, last, nil
}

func (s *RedisAdCooldownStore) ReleaseWatch(ctx context.Context, userID int64, at time.Time) error {
	err := releaseWatchScript.Run(ctx, s.client, []string{adWatchKey(userID)}, strconv.FormatInt(at.UnixMilli(), 10)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return errors.Wrap(err, "release lastAdWatchTime")
	}
	return nil
}
