package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"xup/internal/identity/models"
	id "xup/pkg/domain"
	"xup/pkg/platform/sentinel"
)

const (
	identifierKeyPrefix = "xup:cred:id:"
	codeKeyPrefix       = "xup:cred:code:"
)

// createScript sets both keys only when neither is held. Return values:
// 0 stored, 1 identifier taken, 2 code taken.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then return 1 end
if redis.call('EXISTS', KEYS[2]) == 1 then return 2 end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[2])
return 0
`)

// RedisStore keeps credentials as two keys, one per identifier and one per
// code, both expiring with the credential. Expired records vanish on their own.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type redisRecord struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	Value     string    `json:"value"`
	BUID      string    `json:"buid"`
	Token     string    `json:"token"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *RedisStore) CreateIfAbsent(ctx context.Context, c *models.Credential, now time.Time) error {
	ttl := c.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return fmt.Errorf("credential already expired: %w", sentinel.ErrExpired)
	}
	payload, err := json.Marshal(redisRecord{
		ID:        c.ID.String(),
		Channel:   string(c.Identifier.Channel),
		Value:     c.Identifier.Value,
		BUID:      c.BUID.String(),
		Token:     c.Token,
		Code:      c.Code,
		CreatedAt: c.CreatedAt,
		ExpiresAt: c.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	keys := []string{identifierKey(c.Identifier), codeKeyPrefix + c.Code}
	result, err := createScript.Run(ctx, s.client, keys, payload, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	switch result {
	case 1:
		return ErrIdentifierTaken
	case 2:
		return ErrCodeTaken
	}
	return nil
}

func (s *RedisStore) FindByCode(ctx context.Context, code string, now time.Time) (*models.Credential, error) {
	return s.get(ctx, codeKeyPrefix+code, now)
}

func (s *RedisStore) FindByIdentifier(ctx context.Context, identifier models.Identifier, now time.Time) (*models.Credential, error) {
	return s.get(ctx, identifierKey(identifier), now)
}

// DeleteExpired is a no-op; Redis expires keys natively.
func (s *RedisStore) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) get(ctx context.Context, key string, now time.Time) (*models.Credential, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}

	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}
	credentialID, err := id.ParseCredentialID(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("decode credential id: %w", err)
	}
	buid, err := id.ParseBUID(rec.BUID)
	if err != nil {
		return nil, fmt.Errorf("decode credential buid: %w", err)
	}
	c := &models.Credential{
		ID:         credentialID,
		Identifier: models.Identifier{Channel: models.Channel(rec.Channel), Value: rec.Value},
		BUID:       buid,
		Token:      rec.Token,
		Code:       rec.Code,
		CreatedAt:  rec.CreatedAt,
		ExpiresAt:  rec.ExpiresAt,
	}
	if c.IsExpired(now) {
		return nil, sentinel.ErrNotFound
	}
	return c, nil
}

func identifierKey(identifier models.Identifier) string {
	return identifierKeyPrefix + string(identifier.Channel) + ":" + identifier.Value
}
