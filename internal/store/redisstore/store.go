package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *Store) Close() error { return s.rdb.Close() }

// --- email captcha ---

func (s *Store) SetCaptcha(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.rdb.Set(ctx, "captcha:"+email, code, ttl).Err()
}

func (s *Store) GetCaptcha(ctx context.Context, email string) (string, error) {
	return s.rdb.Get(ctx, "captcha:"+email).Result()
}

func (s *Store) DeleteCaptcha(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, "captcha:"+email).Err()
}

// --- password reset tokens ---

func (s *Store) SetResetToken(ctx context.Context, token string, userID uint64, ttl time.Duration) error {
	return s.rdb.Set(ctx, "pwreset:"+token, userID, ttl).Err()
}

func (s *Store) GetResetToken(ctx context.Context, token string) (uint64, error) {
	return s.rdb.Get(ctx, "pwreset:"+token).Uint64()
}

func (s *Store) DeleteResetToken(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, "pwreset:"+token).Err()
}

// --- ingestion locks ---

// AcquireIngestLock takes the per-chat-room ingestion gate (SET NX with TTL).
// Returns false when another ingestion run holds the lock.
func (s *Store) AcquireIngestLock(ctx context.Context, chatRoomID string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, "ingest:"+chatRoomID, 1, ttl).Result()
}

func (s *Store) ReleaseIngestLock(ctx context.Context, chatRoomID string) error {
	return s.rdb.Del(ctx, "ingest:"+chatRoomID).Err()
}
