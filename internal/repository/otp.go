package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeOTP deletes the code only when it matches, so a wrong guess does
// not burn the outstanding code.
var consumeOTP = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// OTPRepository keeps one outstanding one-time code per email.
type OTPRepository struct {
	client redis.Cmdable
}

func NewOTPRepository(client redis.Cmdable) *OTPRepository {
	return &OTPRepository{client: client}
}

func otpKey(email string) string {
	return "otp:" + email
}

// SaveOTP replaces any outstanding code for email.
func (r *OTPRepository) SaveOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := r.client.Set(ctx, otpKey(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

// ConsumeOTP reports whether code is the outstanding code for email and, if
// so, removes it.
func (r *OTPRepository) ConsumeOTP(ctx context.Context, email, code string) (bool, error) {
	n, err := consumeOTP.Run(ctx, r.client, []string{otpKey(email)}, code).Int()
	if err != nil {
		return false, fmt.Errorf("failed to consume otp: %w", err)
	}
	return n == 1, nil
}
