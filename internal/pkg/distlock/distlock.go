// Package distlock provides short-lived mutual exclusion across server
// instances, backed by Redis when available and Postgres advisory locks
// otherwise.
package distlock

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock is a single acquired-or-not lock on one key.
type Lock interface {
	// Acquire tries once to take the lock. It does not wait.
	Acquire(ctx context.Context) (bool, error)
	// Release drops the lock if this instance still owns it.
	Release(ctx context.Context) error
}

// Factory hands out locks by key.
type Factory interface {
	New(key string) Lock
}

// RedisFactory creates Redis-backed locks with a fixed TTL.
type RedisFactory struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisFactory returns a factory whose keys are stored as "<prefix>:<key>".
func NewRedisFactory(client *redis.Client, prefix string, ttl time.Duration) *RedisFactory {
	return &RedisFactory{client: client, prefix: prefix, ttl: ttl}
}

// New returns a lock for key.
func (f *RedisFactory) New(key string) Lock {
	return NewRedisLock(f.client, fmt.Sprintf("%s:%s", f.prefix, key), f.ttl)
}

// PGFactory creates session-scoped Postgres advisory locks.
//
// Each held lock pins a pool connection. maxHeld caps how many are pinned at
// once so lock holders always leave connections for their own queries; a
// caller over the cap waits in Acquire until a slot frees or ctx ends.
type PGFactory struct {
	db     *sql.DB
	prefix string
	slots  chan struct{}
}

// NewPGFactory returns a factory deriving advisory lock ids from "<prefix>:<key>".
// maxHeld <= 0 leaves the number of held locks unbounded.
func NewPGFactory(db *sql.DB, prefix string, maxHeld int) *PGFactory {
	f := &PGFactory{db: db, prefix: prefix}
	if maxHeld > 0 {
		f.slots = make(chan struct{}, maxHeld)
	}
	return f
}

// New returns a lock for key.
func (f *PGFactory) New(key string) Lock {
	l := NewPGAdvisoryLock(f.db, fmt.Sprintf("%s:%s", f.prefix, key))
	l.slots = f.slots
	return l
}

// NewFactory prefers Redis and falls back to Postgres. It returns nil when
// neither backend is available. maxHeld bounds the Postgres fallback.
func NewFactory(client *redis.Client, db *sql.DB, prefix string, ttl time.Duration, maxHeld int) Factory {
	if client != nil {
		return NewRedisFactory(client, prefix, ttl)
	}
	if db != nil {
		return NewPGFactory(db, prefix, maxHeld)
	}
	return nil
}

// AdvisorySlots returns how many advisory locks a pool of maxOpen
// connections can pin while leaving half of it for queries. Zero means the
// pool is unbounded.
func AdvisorySlots(maxOpen int) int {
	if maxOpen <= 0 {
		return 0
	}
	if n := maxOpen / 2; n > 0 {
		return n
	}
	return 1
}

// PGAdvisoryLock holds a dedicated connection for the lifetime of the lock,
// since advisory locks belong to the session that took them.
type PGAdvisoryLock struct {
	db     *sql.DB
	lockID int64
	conn   *sql.Conn
	slots  chan struct{}
}

// NewPGAdvisoryLock derives a stable 64-bit lock id from key.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{db: db, lockID: int64(h.Sum64())}
}

// Acquire calls pg_try_advisory_lock on a pinned connection. With a bounded
// factory it first waits for a free slot.
func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	if l.slots != nil {
		select {
		case l.slots <- struct{}{}:
		case <-ctx.Done():
			return false, fmt.Errorf("advisory lock slot: %w", ctx.Err())
		}
	}
	conn, err := l.db.Conn(ctx)
	if err != nil {
		l.freeSlot()
		return false, fmt.Errorf("advisory lock conn: %w", err)
	}
	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired); err != nil {
		conn.Close()
		l.freeSlot()
		return false, fmt.Errorf("advisory lock: %w", err)
	}
	if !acquired {
		conn.Close()
		l.freeSlot()
		return false, nil
	}
	l.conn = conn
	return true, nil
}

func (l *PGAdvisoryLock) freeSlot() {
	if l.slots != nil {
		<-l.slots
	}
}

// Release unlocks and returns the pinned connection to the pool.
func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	defer func() {
		l.conn.Close()
		l.conn = nil
		l.freeSlot()
	}()
	_, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID)
	return err
}
