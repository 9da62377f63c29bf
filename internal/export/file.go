package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gitlab.com/yelinaung/finadm/internal/apiclient"
	"gitlab.com/yelinaung/finadm/internal/logger"
)

// WriteBlob saves a download. When path names an existing directory the
// blob's own filename, or fallback, is used inside it. Returns the path written.
func WriteBlob(path, fallback string, blob *apiclient.Blob) (string, error) {
	if blob == nil {
		return "", errors.New("nothing to write")
	}

	target, err := resolvePath(path, blob.Filename, fallback)
	if err != nil {
		return "", err
	}
	if err := WriteFile(target, blob.Data); err != nil {
		return "", err
	}

	logger.Log.Info().
		Str("path", target).
		Int("bytes", len(blob.Data)).
		Str("content_type", blob.ContentType).
		Msg("Export written")
	return target, nil
}

// WriteFile writes data through a temp file and rename.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move export into place: %w", err)
	}
	return nil
}

func resolvePath(path, blobName, fallback string) (string, error) {
	name := filepath.Base(blobName)
	if blobName == "" || name == "." || name == string(filepath.Separator) {
		name = fallback
	}

	if path == "" {
		if name == "" {
			return "", errors.New("no output path given")
		}
		return name, nil
	}

	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		if name == "" {
			return "", fmt.Errorf("%s is a directory and the download has no name", path)
		}
		return filepath.Join(path, name), nil
	}
	return path, nil
}
