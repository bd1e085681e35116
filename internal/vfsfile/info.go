package vfsfile

import (
	"errors"
	"path"
	"time"

	"github.com/derektruong/fxvfs/internal/fileutils"
)

var ErrFileNotExists = errors.New("file path does not exist")

// Info represents protocol-agnostic information about a remote file
type Info struct {
	// Path is the path of the file inside its file system
	Path string `json:"path"`

	// Name contains the name of the file (without extension)
	Name string `json:"name"`

	// Extension contains the file extension of the file, empty if there is none.
	Extension string `json:"extension"`

	// Size is the size of the file in bytes
	Size int64 `json:"size"`

	// ModTime is the modification time reported by the remote side,
	// zero when the protocol cannot report it
	ModTime time.Time `json:"modTime"`

	// IsDir reports whether the path names a directory
	IsDir bool `json:"isDir"`
}

// NewInfo builds the Info of the file at filePath.
func NewInfo(filePath string, size int64, modTime time.Time, isDir bool) (info Info) {
	info = Info{
		Path:    filePath,
		Size:    size,
		ModTime: modTime,
		IsDir:   isDir,
	}
	if isDir {
		info.Name = path.Base(filePath)
		return
	}
	if _, name, ext, err := fileutils.ExtractFileParts(filePath); err == nil {
		info.Name, info.Extension = name, ext
	}
	return
}
