// Package receipts stores uploaded payment receipts on the local disk.
package receipts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brail/marketplace/internal/marketplace/core/ports"
)

var _ ports.ReceiptStorage = (*LocalStorage)(nil)

type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{dir: dir}
}

// Put writes body under the storage directory. Only the base of name is
// used, so callers cannot escape the directory.
func (s *LocalStorage) Put(ctx context.Context, name string, body []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." {
		return "", fmt.Errorf("receipts: invalid file name %q", name)
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("receipts: create dir: %w", err)
	}

	path := filepath.Join(s.dir, base)
	if err := os.WriteFile(path, body, 0o640); err != nil {
		return "", fmt.Errorf("receipts: write %q: %w", base, err)
	}
	return path, nil
}
