package connmgr

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	defaultIdleTimeout         = 60 * time.Second
	defaultOpenRetryAttempts   = 3
	defaultOpenRetryDelay      = 500 * time.Millisecond
	defaultOpenRetryMaxDelay   = 5 * time.Second
	defaultMaxConcurrentCloses = 8
)

// validate use a single instance of validate, it caches struct info
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
}

// Config tunes the connection manager.
type Config struct {
	// IdleTimeout is how long a released connection may stay open before
	// CloseExpiredConnections closes it
	IdleTimeout time.Duration `json:"idleTimeout" yaml:"idleTimeout" validate:"gt=0"`
	// OpenRetryAttempts is the number of attempts to open a session, 1
	// disables retrying
	OpenRetryAttempts uint `json:"openRetryAttempts" yaml:"openRetryAttempts" validate:"gte=1"`
	// OpenRetryDelay is the initial delay between two attempts
	OpenRetryDelay time.Duration `json:"openRetryDelay" yaml:"openRetryDelay" validate:"gte=0"`
	// OpenRetryMaxDelay caps the delay between two attempts
	OpenRetryMaxDelay time.Duration `json:"openRetryMaxDelay" yaml:"openRetryMaxDelay" validate:"gtefield=OpenRetryDelay"`
	// MaxConcurrentCloses bounds the sessions closed in parallel by the
	// idle reaper
	MaxConcurrentCloses int `json:"maxConcurrentCloses" yaml:"maxConcurrentCloses" validate:"gte=1"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:         defaultIdleTimeout,
		OpenRetryAttempts:   defaultOpenRetryAttempts,
		OpenRetryDelay:      defaultOpenRetryDelay,
		OpenRetryMaxDelay:   defaultOpenRetryMaxDelay,
		MaxConcurrentCloses: defaultMaxConcurrentCloses,
	}
}

func (c Config) Validate(ctx context.Context) (err error) {
	if err = validate.StructCtx(ctx, c); err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return
}
