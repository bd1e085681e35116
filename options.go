package fxvfs

import (
	"regexp"
	"time"

	"github.com/derektruong/fxvfs/protoc"
)

const (
	defaultRefreshInterval  = 1 * time.Second
	defaultMaxRetryAttempts = 5
	defaultInitialDelay     = 1 * time.Second
	defaultMaxDelay         = 30 * time.Second
)

// Options is the configuration bag used to resolve a URI: credentials,
// proxy and protocol settings not carried by the URI itself.
type Options = protoc.Options

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithIdleTimeout sets how long a released connection may stay idle
// before the idle reaper closes it. Default is 60 seconds.
func WithIdleTimeout(timeout time.Duration) RegistryOption {
	return func(r *Registry) {
		r.config.IdleTimeout = timeout
	}
}

// WithOpenRetry sets how many times opening a connection is attempted and
// the initial delay between attempts.
func WithOpenRetry(attempts uint, delay time.Duration) RegistryOption {
	return func(r *Registry) {
		r.config.OpenRetryAttempts = attempts
		r.config.OpenRetryDelay = delay
		if r.config.OpenRetryMaxDelay < delay {
			r.config.OpenRetryMaxDelay = delay
		}
	}
}

// WithDisabledOpenRetry makes a failing connection open fail at once.
func WithDisabledOpenRetry() RegistryOption {
	return func(r *Registry) {
		r.config.OpenRetryAttempts = 1
	}
}

// WithMaxConcurrentCloses bounds how many connections the idle reaper
// closes at once. Default is 8.
func WithMaxConcurrentCloses(n int) RegistryOption {
	return func(r *Registry) {
		r.config.MaxConcurrentCloses = n
	}
}

// WithProvider registers p along with the registry's providers.
func WithProvider(p protoc.Provider) RegistryOption {
	return func(r *Registry) {
		r.initialProviders = append(r.initialProviders, p)
	}
}

// CopyOption configures a single Copy.
type CopyOption func(*copier)

// WithMaxFileSize rejects source files larger than size.
// Default is 0 (no limit).
func WithMaxFileSize(size int64) CopyOption {
	return func(c *copier) {
		c.fileRule.MaxFileSize = max(size, 0)
	}
}

// WithMinFileSize rejects source files smaller than size.
// Default is 0 (no limit).
func WithMinFileSize(size int64) CopyOption {
	return func(c *copier) {
		c.fileRule.MinFileSize = max(size, 0)
	}
}

// WithExtensionWhitelist sets the list of allowed file extensions.
// Default is empty (no restriction).
func WithExtensionWhitelist(extensions ...string) CopyOption {
	return func(c *copier) {
		c.fileRule.ExtensionWhitelist = extensions
	}
}

// WithExtensionBlacklist sets the list of blocked file extensions.
// Default is empty (no restriction).
func WithExtensionBlacklist(extensions ...string) CopyOption {
	return func(c *copier) {
		c.fileRule.ExtensionBlacklist = extensions
	}
}

// WithModifiedAfter rejects source files modified before modTime.
func WithModifiedAfter(modTime time.Time) CopyOption {
	return func(c *copier) {
		c.fileRule.ModifiedAfter = modTime
	}
}

// WithModifiedBefore rejects source files modified after modTime.
func WithModifiedBefore(modTime time.Time) CopyOption {
	return func(c *copier) {
		c.fileRule.ModifiedBefore = modTime
	}
}

// WithFileNamePattern sets the regular expression the source file name
// must match.
func WithFileNamePattern(pattern *regexp.Regexp) CopyOption {
	return func(c *copier) {
		c.fileRule.FileNamePattern = pattern
	}
}

// WithProgress sets the callback receiving progress updates.
func WithProgress(cb ProgressUpdatedCallback) CopyOption {
	return func(c *copier) {
		c.progressCallback = cb
	}
}

// WithProgressRefreshInterval sets the interval between progress updates.
// Default is 1 second.
func WithProgressRefreshInterval(interval time.Duration) CopyOption {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	return func(c *copier) {
		c.refreshProgressInterval = interval
	}
}

// WithRateLimit throttles the copy to bytesPerSec. Default is unlimited.
func WithRateLimit(bytesPerSec float64) CopyOption {
	return func(c *copier) {
		c.rateLimit = max(bytesPerSec, 0)
	}
}

// WithOverwrite restarts the copy from scratch instead of resuming a
// partial destination file.
func WithOverwrite() CopyOption {
	return func(c *copier) {
		c.overwrite = true
	}
}

// WithDisabledRetry disables retrying a failed copy, regardless of
// WithRetryConfig.
func WithDisabledRetry() CopyOption {
	return func(c *copier) {
		c.disabledRetry = true
	}
}

// WithRetryConfig sets the retry configuration of the copy. Zero fields
// keep their default value.
func WithRetryConfig(config RetryConfig) CopyOption {
	if config.MaxRetryAttempts == 0 {
		config.MaxRetryAttempts = defaultMaxRetryAttempts
	}
	if config.InitialDelay == 0 {
		config.InitialDelay = defaultInitialDelay
	}
	if config.MaxDelay == 0 {
		config.MaxDelay = max(defaultMaxDelay, config.InitialDelay)
	}
	return func(c *copier) {
		c.retryConfig = config
	}
}
