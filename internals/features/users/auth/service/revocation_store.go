package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authRepo "lurnex_backend/internals/features/users/auth/repository"
)

// RevocationStore remembers logged-out tokens until they expire. Only the
// SHA-256 of a token is ever stored.
type RevocationStore interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

/* ====================== Postgres ====================== */

type DBRevocationStore struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewDBRevocationStore(db *gorm.DB) *DBRevocationStore {
	return &DBRevocationStore{DB: db, Now: time.Now}
}

func (s *DBRevocationStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	return authRepo.InsertRevokedToken(ctx, s.DB, HashToken(token), expiresAt)
}

func (s *DBRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	return authRepo.IsTokenRevoked(ctx, s.DB, HashToken(token), s.Now())
}

/* ====================== Redis ====================== */

const redisRevokedPrefix = "lurnex:auth:revoked:"

type RedisRevocationStore struct {
	client *redis.Client
}

func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

// ConnectRedis accepts a redis:// URL or a bare host:port.
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if opt, err := redis.ParseURL(redisURL); err == nil {
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, redisRevokedPrefix+HashToken(token), "1", ttl).Err()
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, redisRevokedPrefix+HashToken(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
