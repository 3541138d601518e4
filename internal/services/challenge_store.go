package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/agencia-digital/app-leads/internal/models"
	"github.com/agencia-digital/app-leads/internal/redisclient"
	"github.com/redis/go-redis/v9"
)

// ChallengeStore keeps at most one pending verification challenge per
// address. Check is atomic: a challenge can be verified only once.
type ChallengeStore interface {
	// Put stores the challenge, replacing any pending one for the address
	Put(ctx context.Context, challenge *models.VerificationChallenge) error
	// Check compares code against the pending challenge. Verified, expired
	// and too-many-attempts outcomes remove the challenge; a mismatch keeps
	// it and counts the attempt. The returned challenge is a snapshot taken
	// before removal and is nil when nothing was found.
	Check(ctx context.Context, address, code string, now time.Time, maxAttempts int) (models.VerificationResult, *models.VerificationChallenge, error)
	// Sweep removes every challenge expired at now and reports how many
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// MemoryChallengeStore is a process-local store guarded by one mutex
type MemoryChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]models.VerificationChallenge
}

func NewMemoryChallengeStore() *MemoryChallengeStore {
	return &MemoryChallengeStore{challenges: make(map[string]models.VerificationChallenge)}
}

func (s *MemoryChallengeStore) Put(_ context.Context, challenge *models.VerificationChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[challenge.Address] = *challenge
	return nil
}

func (s *MemoryChallengeStore) Check(_ context.Context, address, code string, now time.Time, maxAttempts int) (models.VerificationResult, *models.VerificationChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.challenges[address]
	if !ok {
		return models.VerificationNotFound, nil, nil
	}

	if challenge.IsExpired(now) {
		delete(s.challenges, address)
		return models.VerificationExpired, &challenge, nil
	}

	if challenge.Code == code {
		delete(s.challenges, address)
		return models.VerificationVerified, &challenge, nil
	}

	challenge.Attempts++
	if maxAttempts > 0 && challenge.Attempts >= maxAttempts {
		delete(s.challenges, address)
		return models.VerificationTooManyAttempts, &challenge, nil
	}
	s.challenges[address] = challenge
	return models.VerificationMismatch, &challenge, nil
}

func (s *MemoryChallengeStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for address, challenge := range s.challenges {
		if challenge.IsExpired(now) {
			delete(s.challenges, address)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of pending challenges
func (s *MemoryChallengeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.challenges)
}

const challengeKeyPrefix = "verification:challenge:"

// putChallengeScript replaces the hash and sets its TTL in one step.
// ARGV: code, name, asset, created_ms, expires_ms, ttl_ms
var putChallengeScript = redis.NewScript(`
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1],
	'code', ARGV[1],
	'name', ARGV[2],
	'asset', ARGV[3],
	'attempts', 0,
	'created_at', ARGV[4],
	'expires_at', ARGV[5])
redis.call('PEXPIRE', KEYS[1], ARGV[6])
return 1
`)

// checkChallengeScript returns {result, name, asset, attempts, created_ms, expires_ms}.
// ARGV: code, now_ms, max_attempts
var checkChallengeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return {'not_found'}
end
local fields = redis.call('HMGET', KEYS[1], 'code', 'name', 'asset', 'attempts', 'created_at', 'expires_at')
local attempts = tonumber(fields[4]) or 0
if tonumber(ARGV[2]) >= tonumber(fields[6]) then
	redis.call('DEL', KEYS[1])
	return {'expired', fields[2], fields[3], tostring(attempts), fields[5], fields[6]}
end
if fields[1] == ARGV[1] then
	redis.call('DEL', KEYS[1])
	return {'verified', fields[2], fields[3], tostring(attempts), fields[5], fields[6]}
end
attempts = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
local max = tonumber(ARGV[3])
if max > 0 and attempts >= max then
	redis.call('DEL', KEYS[1])
	return {'too_many_attempts', fields[2], fields[3], tostring(attempts), fields[5], fields[6]}
end
return {'mismatch', fields[2], fields[3], tostring(attempts), fields[5], fields[6]}
`)

// RedisChallengeStore shares challenges between instances. Expiry is
// enforced by the stored deadline and cleaned up by native key TTLs.
type RedisChallengeStore struct {
	client *redisclient.Client
}

func NewRedisChallengeStore(client *redisclient.Client) *RedisChallengeStore {
	return &RedisChallengeStore{client: client}
}

func challengeKey(address string) string {
	return challengeKeyPrefix + address
}

func (s *RedisChallengeStore) Put(ctx context.Context, challenge *models.VerificationChallenge) error {
	ttl := challenge.ExpiresAt.Sub(challenge.CreatedAt)
	if ttl <= 0 {
		return fmt.Errorf("%w: challenge already expired", models.ErrValidation)
	}

	err := s.client.RunScript(ctx, putChallengeScript, []string{challengeKey(challenge.Address)},
		challenge.Code,
		challenge.DisplayName,
		challenge.Asset,
		challenge.CreatedAt.UnixMilli(),
		challenge.ExpiresAt.UnixMilli(),
		ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("%w: failed to store challenge: %v", models.ErrStorage, err)
	}
	return nil
}

func (s *RedisChallengeStore) Check(ctx context.Context, address, code string, now time.Time, maxAttempts int) (models.VerificationResult, *models.VerificationChallenge, error) {
	values, err := s.client.RunScript(ctx, checkChallengeScript, []string{challengeKey(address)},
		code,
		now.UnixMilli(),
		maxAttempts,
	).StringSlice()
	if err != nil {
		return "", nil, fmt.Errorf("%w: failed to check challenge: %v", models.ErrStorage, err)
	}

	return parseCheckReply(address, values)
}

func parseCheckReply(address string, values []string) (models.VerificationResult, *models.VerificationChallenge, error) {
	if len(values) == 0 {
		return "", nil, fmt.Errorf("%w: empty check reply", models.ErrStorage)
	}

	result := models.VerificationResult(values[0])
	if result == models.VerificationNotFound {
		return result, nil, nil
	}
	if len(values) != 6 {
		return "", nil, fmt.Errorf("%w: malformed check reply", models.ErrStorage)
	}

	attempts, _ := strconv.Atoi(values[3])
	createdMs, _ := strconv.ParseInt(values[4], 10, 64)
	expiresMs, _ := strconv.ParseInt(values[5], 10, 64)

	return result, &models.VerificationChallenge{
		Address:     address,
		DisplayName: values[1],
		Asset:       values[2],
		Attempts:    attempts,
		CreatedAt:   time.UnixMilli(createdMs),
		ExpiresAt:   time.UnixMilli(expiresMs),
	}, nil
}

// Sweep is a no-op; Redis expires keys on its own
func (s *RedisChallengeStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}
