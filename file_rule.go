package fxvfs

import (
	"path"
	"regexp"
	"time"

	"github.com/derektruong/fxvfs/internal/sliceutils"
	"github.com/derektruong/fxvfs/internal/vfsfile"
)

// fileRule filters the files a copy accepts
type fileRule struct {
	// MaxFileSize allows setting a maximum file size, 0 means no limit.
	MaxFileSize int64
	// MinFileSize allows setting a minimum file size, 0 means no limit.
	MinFileSize int64
	// ExtensionWhitelist allows setting a list of allowed file extensions.
	ExtensionWhitelist []string
	// ExtensionBlacklist allows setting a list of blocked file extensions.
	ExtensionBlacklist []string
	// ModifiedAfter rejects files modified before it.
	ModifiedAfter time.Time
	// ModifiedBefore rejects files modified after it.
	ModifiedBefore time.Time
	// FileNamePattern must match the base name of the file.
	FileNamePattern *regexp.Regexp
}

func (r *fileRule) Check(info vfsfile.Info) (err error) {
	if r.MaxFileSize > 0 && info.Size > r.MaxFileSize {
		return ErrMaxFileSizeExceeded(r.MaxFileSize, info.Size)
	}
	if r.MinFileSize > 0 && info.Size < r.MinFileSize {
		return ErrMinFileSizeNotMet(r.MinFileSize, info.Size)
	}

	if len(r.ExtensionWhitelist) > 0 && !sliceutils.Contains(r.ExtensionWhitelist, info.Extension) {
		return ErrExtensionNotAllowed(info.Extension)
	}
	if len(r.ExtensionBlacklist) > 0 && sliceutils.Contains(r.ExtensionBlacklist, info.Extension) {
		return ErrExtensionBlocked(info.Extension)
	}

	// protocols unable to report a modification time pass the time rules
	if !info.ModTime.IsZero() {
		if !r.ModifiedAfter.IsZero() && info.ModTime.Before(r.ModifiedAfter) {
			return ErrModifiedBefore(r.ModifiedAfter)
		}
		if !r.ModifiedBefore.IsZero() && info.ModTime.After(r.ModifiedBefore) {
			return ErrModifiedAfter(r.ModifiedBefore)
		}
	}

	if r.FileNamePattern != nil && !r.FileNamePattern.MatchString(path.Base(info.Path)) {
		return ErrFileNamePatternMismatch(r.FileNamePattern.String())
	}
	return
}
