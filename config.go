package fxvfs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate use a single instance of validate, it caches struct info
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
}

// RetryConfig defines how a failed copy is retried.
type RetryConfig struct {
	// MaxRetryAttempts is the maximum number of attempts, default = 5.
	MaxRetryAttempts uint `json:"maxRetryAttempts" yaml:"maxRetryAttempts" validate:"gte=1"`
	// InitialDelay is the delay before the first retry, default = 1 second.
	InitialDelay time.Duration `json:"initialDelay" yaml:"initialDelay" validate:"gte=0"`
	// MaxDelay caps the delay between retries, default = 30 seconds.
	MaxDelay time.Duration `json:"maxDelay" yaml:"maxDelay" validate:"gtefield=InitialDelay"`
}

func (c RetryConfig) Validate(ctx context.Context) (err error) {
	if err = validate.StructCtx(ctx, c); err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return
}

// reaperConfig is the validated input of Registry.RunIdleReaper.
type reaperConfig struct {
	Interval time.Duration `validate:"gt=0"`
}

func (c reaperConfig) Validate(ctx context.Context) (err error) {
	if err = validate.StructCtx(ctx, c); err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return
}
