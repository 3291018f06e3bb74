package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"authshield/internal/models"

	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Client record caching
	GetClient(ctx context.Context, clientID string) (*models.Client, error)
	SetClient(ctx context.Context, client *models.Client, ttl time.Duration) error
	DeleteClient(ctx context.Context, clientID string) error

	// Access-token revocation blacklist
	BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Generic string operations
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	// Ping reports Redis connectivity for health probes.
	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

// cachedClient is the redis wire form of a client record. The model's
// SecretHash is json:"-" so the hash never leaves the API surface, but
// the cached copy must keep it or authentication breaks on a cache hit.
type cachedClient struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	RedirectURI  string    `json:"redirect_uri"`
	SecretHash   string    `json:"secret_hash"`
	Confidential bool      `json:"confidential"`
	TenantID     string    `json:"tenant_id"`
	TenantName   string    `json:"tenant_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func encodeClient(client *models.Client) ([]byte, error) {
	return json.Marshal(cachedClient{
		ID:           client.ID,
		Name:         client.Name,
		RedirectURI:  client.RedirectURI,
		SecretHash:   client.SecretHash,
		Confidential: client.Confidential,
		TenantID:     client.Tenant.ID,
		TenantName:   client.Tenant.Name,
		CreatedAt:    client.CreatedAt,
		UpdatedAt:    client.UpdatedAt,
	})
}

func decodeClient(data []byte) (*models.Client, error) {
	var cc cachedClient
	if err := json.Unmarshal(data, &cc); err != nil {
		return nil, err
	}
	return &models.Client{
		ID:           cc.ID,
		Name:         cc.Name,
		RedirectURI:  cc.RedirectURI,
		SecretHash:   cc.SecretHash,
		Confidential: cc.Confidential,
		Tenant:       models.TenantRef{ID: cc.TenantID, Name: cc.TenantName},
		CreatedAt:    cc.CreatedAt,
		UpdatedAt:    cc.UpdatedAt,
	}, nil
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port as well as bare host:port
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetClient(ctx context.Context, clientID string) (*models.Client, error) {
	key := fmt.Sprintf("authshield:client:%s", clientID)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	return decodeClient(data)
}

func (r *redisCacheService) SetClient(ctx context.Context, client *models.Client, ttl time.Duration) error {
	key := fmt.Sprintf("authshield:client:%s", client.ID)
	data, err := encodeClient(client)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteClient(ctx context.Context, clientID string) error {
	key := fmt.Sprintf("authshield:client:%s", clientID)
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired, nothing to blacklist
	}
	key := fmt.Sprintf("authshield:token_blacklist:%s", tokenID)
	return r.client.Set(ctx, key, "revoked", ttl).Err()
}

func (r *redisCacheService) IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	key := fmt.Sprintf("authshield:token_blacklist:%s", tokenID)
	_, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := fmt.Sprintf("authshield:ratelimit:%s", key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return true, err
	}

	// Set expiry on first request
	if count == 1 {
		r.client.Expire(ctx, cacheKey, window)
	}

	return count > int64(limit), nil
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // cache miss
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
