package fxvfs

import (
	"errors"
	"fmt"
	"time"

	"github.com/derektruong/fxvfs/protoc"
)

var ErrSchemeAlreadyRegistered = errors.New("fxvfs: scheme already registered")
var ErrUnknownScheme = errors.New("fxvfs: no provider for scheme")
var ErrInvalidURI = errors.New("fxvfs: invalid URI")
var ErrInvalidOptions = errors.New("fxvfs: invalid options")
var ErrSameFile = errors.New("fxvfs: source and destination are the same file")
var ErrIsDirectory = errors.New("fxvfs: path is a directory")

// ErrCapabilityNotSupported reports a file system lacking the capability an
// operation needs.
var ErrCapabilityNotSupported = fmt.Errorf("fxvfs: %w", protoc.ErrUnsupportedOperation)

var (
	ErrMaxFileSizeExceeded = func(required, got int64) error {
		return fmt.Errorf("file size exceeds the maximum allowed size: %d > %d bytes", got, required)
	}
	ErrMinFileSizeNotMet = func(required, got int64) error {
		return fmt.Errorf("file size does not meet the minimum required size: %d < %d bytes", got, required)
	}
	ErrExtensionNotAllowed = func(ext string) error {
		return fmt.Errorf("file extension is not allowed: %s", ext)
	}
	ErrExtensionBlocked = func(ext string) error {
		return fmt.Errorf("file extension is blocked: %s", ext)
	}
	ErrModifiedBefore = func(t time.Time) error {
		return fmt.Errorf("file was modified before the required time: %s", t.Format(time.RFC3339))
	}
	ErrModifiedAfter = func(t time.Time) error {
		return fmt.Errorf("file was modified after the required time: %s", t.Format(time.RFC3339))
	}
	ErrFileNamePatternMismatch = func(pattern string) error {
		return fmt.Errorf("file name does not match the required pattern: %s", pattern)
	}
)
