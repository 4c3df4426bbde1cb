package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/storage"
)

func TestLocalDiskRoundTrip(t *testing.T) {
	ctx := context.Background()
	disk := storage.NewLocalDisk(t.TempDir(), "http://localhost:5000/api/products/images/")

	require.NoError(t, disk.PutStream(ctx, "abc.png", strings.NewReader("png-bytes"), "image/png"))
	assert.True(t, disk.Exists(ctx, "abc.png"))
	assert.Equal(t, "http://localhost:5000/api/products/images/abc.png", disk.URL("abc.png"))

	rc, err := disk.GetStream(ctx, "abc.png")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "png-bytes", string(body))

	require.NoError(t, disk.Delete(ctx, "abc.png"))
	require.NoError(t, disk.Delete(ctx, "abc.png"))
	_, err = disk.GetStream(ctx, "abc.png")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLocalDiskStaysInsideRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	disk := storage.NewLocalDisk(root, "http://x")

	require.NoError(t, disk.PutStream(ctx, "../../escape.txt", strings.NewReader("x"), ""))
	assert.True(t, disk.Exists(ctx, "escape.txt"))

	_, err := disk.GetStream(ctx, "/")
	assert.ErrorIs(t, err, storage.ErrInvalidPath)
}
