package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// rotateSession swaps the stored refresh hash only if it still holds the
// hash being presented, so a refresh token can be used at most once.
var rotateSession = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	return 1
end
return 0
`)

// SessionRepository stores the hash of the current refresh token of each
// customer. A customer has at most one live session.
type SessionRepository struct {
	client redis.Cmdable
}

func NewSessionRepository(client redis.Cmdable) *SessionRepository {
	return &SessionRepository{client: client}
}

func sessionKey(userID uuid.UUID) string {
	return "refresh:" + userID.String()
}

func (r *SessionRepository) SaveSession(ctx context.Context, userID uuid.UUID, tokenHash string, ttl time.Duration) error {
	if err := r.client.Set(ctx, sessionKey(userID), tokenHash, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// RotateSession replaces oldHash with newHash and reports whether oldHash
// was the live session.
func (r *SessionRepository) RotateSession(ctx context.Context, userID uuid.UUID, oldHash, newHash string, ttl time.Duration) (bool, error) {
	n, err := rotateSession.Run(ctx, r.client, []string{sessionKey(userID)}, oldHash, newHash, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to rotate session: %w", err)
	}
	return n == 1, nil
}

func (r *SessionRepository) DeleteSession(ctx context.Context, userID uuid.UUID) error {
	if err := r.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
