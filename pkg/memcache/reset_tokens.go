package mem

import (
	"context"
	"errors"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// ResetTokenStore keeps single-use password reset tokens mapped to the email they were
// issued for.
type ResetTokenStore interface {
	Set(ctx context.Context, token, email string, ttl time.Duration) error

	// Consume returns the email for token and removes it. It returns "" when the token is
	// missing or expired.
	Consume(ctx context.Context, token string) (string, error)

	// Peek reads without consuming.
	Peek(ctx context.Context, token string) (string, bool, error)
}

type tokenEntry struct {
	email     string
	expiresAt time.Time
}

// ResetTokens is the in-process ResetTokenStore. Expired entries are dropped when touched.
type ResetTokens struct {
	mu   sync.Mutex
	data map[string]tokenEntry
	now  func() time.Time
}

func NewResetTokens(now func() time.Time) *ResetTokens {
	if now == nil {
		now = time.Now
	}
	return &ResetTokens{data: make(map[string]tokenEntry), now: now}
}

func (s *ResetTokens) Set(_ context.Context, token, email string, ttl time.Duration) error {
	if token == "" || ttl <= 0 {
		return errors.New("reset token and ttl are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[token] = tokenEntry{email: email, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *ResetTokens) Consume(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[token]
	if !ok {
		return "", nil
	}
	delete(s.data, token)
	if !s.now().Before(e.expiresAt) {
		return "", nil
	}
	return e.email, nil
}

func (s *ResetTokens) Peek(_ context.Context, token string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[token]
	if !ok {
		return "", false, nil
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.data, token)
		return "", false, nil
	}
	return e.email, true, nil
}

// RedisResetTokens shares reset tokens between instances; redis expires them.
type RedisResetTokens struct {
	client *redis.Client
	prefix string
}

func NewRedisResetTokens(client *redis.Client) *RedisResetTokens {
	return &RedisResetTokens{client: client, prefix: "khaja:reset:"}
}

func (s *RedisResetTokens) Set(ctx context.Context, token, email string, ttl time.Duration) error {
	if token == "" || ttl <= 0 {
		return errors.New("reset token and ttl are required")
	}
	return s.client.Set(ctx, s.prefix+token, email, ttl).Err()
}

func (s *RedisResetTokens) Consume(ctx context.Context, token string) (string, error) {
	email, err := s.client.GetDel(ctx, s.prefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return email, err
}

func (s *RedisResetTokens) Peek(ctx context.Context, token string) (string, bool, error) {
	email, err := s.client.Get(ctx, s.prefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return email, true, nil
}
