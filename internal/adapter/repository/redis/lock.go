package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLockNotHeld is returned when releasing a lock owned by someone else.
var ErrLockNotHeld = errors.New("redis: lock not held")

// releaseScript deletes the key only if it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out expiring locks shared by every replica.
type Locker struct {
	client *redis.Client
	prefix string
}

// NewLocker creates a new Locker.
func NewLocker(client *redis.Client) *Locker {
	return &Locker{
		client: client,
		prefix: "wallet:lock:",
	}
}

// TryAcquire takes the named lock if it is free. acquired is false when another
// holder has it. release frees the lock only while this caller still owns it.
func (l *Locker) TryAcquire(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error) {
	token, err := newToken()
	if err != nil {
		return nil, false, err
	}

	key := l.prefix + name
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}

	release = func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrLockNotHeld
		}

		return nil
	}

	return release, true, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
