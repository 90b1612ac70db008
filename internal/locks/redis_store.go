package locks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cinebook/internal/shared/constants"

	"github.com/redis/go-redis/v9"
)

// Lua script for atomic lock acquisition. Checks every seat before
// touching any of them, so a conflicting request fails without leaving
// partial holds.
const luaAcquireLock = `
-- KEYS[1] = lock meta key
-- KEYS[2] = lock seats key
-- KEYS[3] = show locks key
-- KEYS[4..N] = per-seat lock keys
-- ARGV[1] = lock_id
-- ARGV[2] = user_id
-- ARGV[3] = show_id
-- ARGV[4] = ttl_seconds
-- ARGV[5] = expires_at (unix)
-- ARGV[6..N] = seat labels, parallel to KEYS[4..N]

local lock_id = ARGV[1]
local user_id = ARGV[2]
local show_id = ARGV[3]
local ttl = tonumber(ARGV[4])
local expires_at = ARGV[5]

local conflicts = {}
for i = 4, #KEYS do
    if redis.call("EXISTS", KEYS[i]) == 1 then
        table.insert(conflicts, ARGV[i + 2])
    end
end

if #conflicts > 0 then
    return {0, unpack(conflicts)}
end

local created_at = redis.call("TIME")[1]
redis.call("HMSET", KEYS[1],
    "user_id", user_id,
    "show_id", show_id,
    "expires_at", expires_at,
    "created_at", created_at
)
redis.call("EXPIRE", KEYS[1], ttl)

for i = 4, #KEYS do
    redis.call("SETEX", KEYS[i], ttl, lock_id)
    redis.call("SADD", KEYS[2], ARGV[i + 2])
end
redis.call("EXPIRE", KEYS[2], ttl)

redis.call("SADD", KEYS[3], lock_id)
redis.call("EXPIRE", KEYS[3], ttl)

return {1, "success"}
`

// Lua script for atomic lock release. Per-seat keys are deleted only
// when they still belong to this lock, so a release racing a re-grant
// of the same seat never frees the new holder.
const luaReleaseLock = `
-- KEYS[1] = lock meta key
-- KEYS[2] = lock seats key
-- KEYS[3] = show locks key
-- ARGV[1] = lock_id
-- ARGV[2] = seat key prefix ("<cache>:lock:seat:<show>:")

local lock_id = ARGV[1]
local prefix = ARGV[2]

if redis.call("EXISTS", KEYS[1]) == 0 then
    return {0, "lock_not_found"}
end

local seats = redis.call("SMEMBERS", KEYS[2])
for i = 1, #seats do
    local seat_key = prefix .. seats[i]
    if redis.call("GET", seat_key) == lock_id then
        redis.call("DEL", seat_key)
    end
end

redis.call("DEL", KEYS[1])
redis.call("DEL", KEYS[2])
redis.call("SREM", KEYS[3], lock_id)

return {1, #seats}
`

// RedisStore implements Store on Redis with Lua scripts.
type RedisStore struct {
	client     *redis.Client
	acquireSHA string
	releaseSHA string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// PreloadScripts loads the Lua scripts so later calls can use EVALSHA.
func (s *RedisStore) PreloadScripts(ctx context.Context) error {
	sha, err := s.client.ScriptLoad(ctx, luaAcquireLock).Result()
	if err != nil {
		return fmt.Errorf("failed to load acquire script: %w", err)
	}
	s.acquireSHA = sha

	sha, err = s.client.ScriptLoad(ctx, luaReleaseLock).Result()
	if err != nil {
		return fmt.Errorf("failed to load release script: %w", err)
	}
	s.releaseSHA = sha

	return nil
}

func (s *RedisStore) eval(ctx context.Context, sha, script string, keys []string, args ...interface{}) (interface{}, error) {
	if sha != "" {
		result, err := s.client.EvalSha(ctx, sha, keys, args...).Result()
		if err == nil {
			return result, nil
		}
		// NOSCRIPT after a Redis restart; fall through to EVAL.
	}
	return s.client.Eval(ctx, script, keys, args...).Result()
}

func (s *RedisStore) Acquire(ctx context.Context, lock *SeatLock) error {
	ttl := int(time.Until(lock.ExpiresAt).Seconds())
	if ttl <= 0 {
		return ErrLockExpired
	}

	keys := []string{
		constants.BuildLockKey(lock.ID),
		constants.BuildLockSeatsKey(lock.ID),
		constants.BuildShowLocksKey(lock.ShowID),
	}
	args := []interface{}{
		lock.ID,
		lock.UserID,
		lock.ShowID,
		strconv.Itoa(ttl),
		strconv.FormatInt(lock.ExpiresAt.Unix(), 10),
	}
	for _, seat := range lock.Seats {
		keys = append(keys, constants.BuildSeatLockKey(lock.ShowID, seat))
		args = append(args, seat)
	}

	result, err := s.eval(ctx, s.acquireSHA, luaAcquireLock, keys, args...)
	if err != nil {
		return fmt.Errorf("failed to execute atomic lock acquire: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) < 1 {
		return fmt.Errorf("unexpected result format from acquire script")
	}
	success, ok := values[0].(int64)
	if !ok {
		return fmt.Errorf("invalid success flag in acquire script result")
	}

	if success == 0 {
		conflicts := make([]string, 0, len(values)-1)
		for _, v := range values[1:] {
			if seat, ok := v.(string); ok {
				conflicts = append(conflicts, seat)
			}
		}
		return &ConflictError{Seats: conflicts}
	}

	return nil
}

func (s *RedisStore) Release(ctx context.Context, lockID string) error {
	lock, err := s.Get(ctx, lockID)
	if err != nil {
		return err
	}

	keys := []string{
		constants.BuildLockKey(lockID),
		constants.BuildLockSeatsKey(lockID),
		constants.BuildShowLocksKey(lock.ShowID),
	}
	args := []interface{}{
		lockID,
		constants.BuildSeatLockKey(lock.ShowID, ""),
	}

	result, err := s.eval(ctx, s.releaseSHA, luaReleaseLock, keys, args...)
	if err != nil {
		return fmt.Errorf("failed to execute atomic lock release: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return fmt.Errorf("unexpected result format from release script")
	}
	if success, _ := values[0].(int64); success == 0 {
		return ErrLockNotFound
	}

	return nil
}

func (s *RedisStore) Get(ctx context.Context, lockID string) (*SeatLock, error) {
	meta, err := s.client.HGetAll(ctx, constants.BuildLockKey(lockID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read lock meta: %w", err)
	}
	if len(meta) == 0 {
		return nil, ErrLockNotFound
	}

	seats, err := s.client.SMembers(ctx, constants.BuildLockSeatsKey(lockID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read lock seats: %w", err)
	}

	lock := &SeatLock{
		ID:     lockID,
		ShowID: meta["show_id"],
		UserID: meta["user_id"],
		Seats:  seats,
	}
	if v, err := strconv.ParseInt(meta["expires_at"], 10, 64); err == nil {
		lock.ExpiresAt = time.Unix(v, 0)
	}
	if v, err := strconv.ParseInt(meta["created_at"], 10, 64); err == nil {
		lock.CreatedAt = time.Unix(v, 0)
	}

	// Redis TTL usually handles expiry, but expires_at is authoritative.
	if lock.Expired(time.Now()) {
		return nil, ErrLockExpired
	}

	return lock, nil
}

func (s *RedisStore) ActiveForShow(ctx context.Context, showID string) ([]SeatLock, error) {
	showKey := constants.BuildShowLocksKey(showID)
	lockIDs, err := s.client.SMembers(ctx, showKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read show locks: %w", err)
	}

	active := make([]SeatLock, 0, len(lockIDs))
	for _, lockID := range lockIDs {
		lock, err := s.Get(ctx, lockID)
		if err != nil {
			if errors.Is(err, ErrLockNotFound) || errors.Is(err, ErrLockExpired) {
				// Lazy cleanup of dead membership entries.
				s.client.SRem(ctx, showKey, lockID)
				continue
			}
			return nil, err
		}
		active = append(active, *lock)
	}

	return active, nil
}
