package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Token is an issued bearer credential.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// TokenStore keeps opaque bearer tokens in Redis.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl, now: time.Now}
}

func tokenKey(token string) string {
	return "auth:token:" + token
}

func userTokensKey(userID int64) string {
	return "auth:user:" + strconv.FormatInt(userID, 10) + ":tokens"
}

// Issue creates a token for id.
func (s *TokenStore) Issue(ctx context.Context, id shared.Identity) (Token, error) {
	payload, err := json.Marshal(id)
	if err != nil {
		return Token{}, err
	}
	token := Token{Value: uuid.NewString(), ExpiresAt: s.now().Add(s.ttl).UTC()}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tokenKey(token.Value), payload, s.ttl)
		pipe.SAdd(ctx, userTokensKey(id.UserID), token.Value)
		pipe.Expire(ctx, userTokensKey(id.UserID), s.ttl)
		return nil
	})
	if err != nil {
		return Token{}, fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// Resolve returns the identity behind token. Unknown or expired tokens yield ErrUnauthorized.
func (s *TokenStore) Resolve(ctx context.Context, token string) (shared.Identity, error) {
	if _, err := uuid.Parse(token); err != nil {
		return shared.Identity{}, shared.ErrUnauthorized
	}
	payload, err := s.client.Get(ctx, tokenKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return shared.Identity{}, shared.ErrUnauthorized
	}
	if err != nil {
		return shared.Identity{}, fmt.Errorf("resolve token: %w", err)
	}
	var id shared.Identity
	if err := json.Unmarshal(payload, &id); err != nil {
		return shared.Identity{}, fmt.Errorf("decode token: %w", err)
	}
	return id, nil
}

// Revoke deletes a single token.
func (s *TokenStore) Revoke(ctx context.Context, token string, userID int64) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, tokenKey(token))
		pipe.SRem(ctx, userTokensKey(userID), token)
		return nil
	})
	return err
}

// RevokeUser deletes every token issued to userID and reports how many were live.
func (s *TokenStore) RevokeUser(ctx context.Context, userID int64) (int, error) {
	setKey := userTokensKey(userID)
	tokens, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return 0, fmt.Errorf("list user tokens: %w", err)
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, tokenKey(t))
	}
	keys = append(keys, setKey)
	deleted, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("revoke user tokens: %w", err)
	}
	live := int(deleted)
	if len(tokens) > 0 {
		live--
	}
	return max(live, 0), nil
}
