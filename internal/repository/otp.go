package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"chatwave/internal/model"
	"chatwave/internal/redis"
)

const otpKeyPrefix = "otp:"

// otpRepository stores one live verification code per email. Expiry is
// delegated to Redis key TTLs, matching the 5 minute lifetime of the codes.
type otpRepository struct {
	client *redis.Client
}

func NewOTPRepository(client *redis.Client) OTPRepository {
	return &otpRepository{client: client}
}

// Set stores the code, replacing any previous one for the same email.
func (r *otpRepository) Set(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := r.client.Set(ctx, otpKeyPrefix+email, code, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

func (r *otpRepository) Get(ctx context.Context, email string) (string, error) {
	code, err := r.client.Get(ctx, otpKeyPrefix+email).Result()
	if errors.Is(err, goredis.Nil) {
		return "", model.ErrOTPNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read otp: %w", err)
	}
	return code, nil
}

func (r *otpRepository) Delete(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, otpKeyPrefix+email).Err(); err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}
	return nil
}
