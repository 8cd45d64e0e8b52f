package go_nativeload_pure

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

const copyBufferSize = 32 * 1024

// ExtractResource copies the packaged file at path (absolute, slash
// separated, e.g. /lib/linux/x86_64/libfoo.so) out of fsys into a new
// temporary file in dir and returns the file's path. An empty dir means
// os.TempDir(). The caller owns the returned file.
func ExtractResource(fsys fs.FS, path, dir string) (string, error) {
	prefix, suffix, err := splitResourceName(path)
	if err != nil {
		return "", err
	}

	if fsys == nil {
		return "", fmt.Errorf("%w: no package to read %s from", ErrResourceNotFound, path)
	}

	src, err := fsys.Open(strings.TrimPrefix(path, "/"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return "", fmt.Errorf("%w: %s was not found inside the package", ErrResourceNotFound, path)
		}
		return "", fmt.Errorf("failed to open resource %s: %w", path, err)
	}
	defer src.Close()

	if info, err := src.Stat(); err == nil && info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrResourceNotFound, path)
	}

	dst, err := os.CreateTemp(dir, prefix+"*"+suffix)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempPath := dst.Name()

	buf := make([]byte, copyBufferSize)
	if _, err := io.CopyBuffer(dst, src, buf); err != nil {
		dst.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to copy %s to %s: %w", path, tempPath, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to finalize %s: %w", tempPath, err)
	}
	if err := os.Chmod(tempPath, 0o755); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to mark %s executable: %w", tempPath, err)
	}

	return tempPath, nil
}

// splitResourceName validates path and splits its base name at the first
// dot into the temp-file prefix and suffix.
func splitResourceName(path string) (prefix, suffix string, err error) {
	if !strings.HasPrefix(path, "/") {
		return "", "", fmt.Errorf("%w: %q has to be absolute (start with '/')", ErrInvalidResourcePath, path)
	}

	filename := path[strings.LastIndex(path, "/")+1:]
	prefix, suffix = filename, ""
	if i := strings.Index(filename, "."); i >= 0 {
		prefix, suffix = filename[:i], filename[i:]
	}

	if len(prefix) < 3 {
		return "", "", fmt.Errorf("%w: file name of %q has to be at least 3 characters long", ErrInvalidResourcePath, path)
	}
	if !fs.ValidPath(strings.TrimPrefix(path, "/")) {
		return "", "", fmt.Errorf("%w: %q is not a clean slash-separated path", ErrInvalidResourcePath, path)
	}
	return prefix, suffix, nil
}
