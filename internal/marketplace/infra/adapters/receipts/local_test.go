package receipts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_Put(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "receipts")
	s := NewLocalStorage(dir)

	path, err := s.Put(context.Background(), "../../etc/ORD-1.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ORD-1.pdf"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(b))

	_, err = s.Put(context.Background(), "", nil)
	assert.Error(t, err)
}
