package fileutils

import (
	"errors"
	"path"
	"strings"
)

// ExtractFileParts extracts the prefix, file name, and extension from the
// slash-separated path in the format <prefix_path>/<file_name>[.<ext>]
func ExtractFileParts(filePath string) (prefix, fileName, fileExt string, err error) {
	if filePath == "" {
		err = errors.New("file path is required")
		return
	}
	base := path.Base(filePath)
	if base == "/" || base == "." {
		err = errors.New("file name is required")
		return
	}
	fileExt = strings.TrimPrefix(path.Ext(base), ".")
	fileName = strings.TrimSuffix(base, path.Ext(base))
	if dir := path.Dir(filePath); dir != "." {
		prefix = dir
	}
	return
}

// SplitRoot splits a slash-separated path into its first segment and the
// remainder, e.g. "/share/dir/file.txt" gives "share" and "dir/file.txt".
func SplitRoot(filePath string) (root, rest string) {
	filePath = strings.TrimPrefix(path.Clean("/"+filePath), "/")
	root, rest, _ = strings.Cut(filePath, "/")
	return
}
