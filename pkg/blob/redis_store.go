package blob

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// putScript performs the version-conditional write atomically on the server,
// so two instances racing from the same base version cannot both win.
// Returns 1 when the write landed, 0 when the stored version was not older.
var putScript = redis.NewScript(`
local current = tonumber(redis.call('HGET', KEYS[1], 'version') or '0')
local proposed = tonumber(ARGV[1])
if proposed > current then
	redis.call('HSET', KEYS[1], 'version', ARGV[1], 'data', ARGV[2])
	return 1
end
return 0
`)

// RedisStore keeps versioned blobs in Redis hashes, one hash per key with
// 'data' and 'version' fields.
type RedisStore struct {
	rdb       *redis.Client
	keyPrefix string
}

func NewRedisStore(rdb *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "snapshot:"
	}
	return &RedisStore{rdb: rdb, keyPrefix: keyPrefix}
}

func (s *RedisStore) key(key string) string {
	return s.keyPrefix + key
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Object, error) {
	vals, err := s.rdb.HMGet(ctx, s.key(key), "data", "version").Result()
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	if vals[0] == nil {
		return nil, ErrNotFound
	}

	data, ok := vals[0].(string)
	if !ok {
		return nil, fmt.Errorf("unexpected data type %T for blob %s", vals[0], key)
	}

	var version int64
	if vals[1] != nil {
		if verStr, ok := vals[1].(string); ok {
			fmt.Sscanf(verStr, "%d", &version)
		}
	}

	return &Object{Data: []byte(data), Version: version}, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, data []byte, version int64) error {
	ok, err := putScript.Run(ctx, s.rdb, []string{s.key(key)}, version, data).Int()
	if err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	if ok != 1 {
		return fmt.Errorf("%w: version %d not newer than stored", ErrPreconditionFailed, version)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}
