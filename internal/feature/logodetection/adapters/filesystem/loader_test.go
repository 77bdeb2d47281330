package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logoscan/internal/feature/logodetection/domain"
	"logoscan/internal/feature/logodetection/usecase"
)

// writeFile はテスト用の一時ファイルを作成します。
func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600), "failed to write fixture")
	return path
}

func TestNewLocalImageLoader_Defaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, usecase.MaxImageSize, NewLocalImageLoader(0).maxSize)
	assert.Equal(t, usecase.MaxImageSize, NewLocalImageLoader(-1).maxSize)
	assert.Equal(t, 42, NewLocalImageLoader(42).maxSize)
}

func TestLocalImageLoader_Load(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	loader := NewLocalImageLoader(16)

	t.Run("reads local file", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "logo.jpg", []byte("jpeg-bytes"))

		img, err := loader.Load(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, []byte("jpeg-bytes"), img.Content)
		assert.False(t, img.IsRemote())
	})

	t.Run("missing file is not found", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "not-a-file.jpg")

		_, err := loader.Load(ctx, path)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrImageNotFound)
		assert.Contains(t, err.Error(), "not-a-file.jpg")
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "empty.jpg", nil)

		_, err := loader.Load(ctx, path)
		assert.ErrorIs(t, err, domain.ErrEmptyImage)
	})

	t.Run("file too large", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "big.jpg", make([]byte, 17))

		_, err := loader.Load(ctx, path)
		assert.ErrorIs(t, err, domain.ErrImageTooLarge)
	})

	t.Run("directory is a generic error", func(t *testing.T) {
		t.Parallel()

		_, err := loader.Load(ctx, t.TempDir())
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrImageNotFound)
	})

	t.Run("remote uri is passed through", func(t *testing.T) {
		t.Parallel()

		img, err := loader.Load(ctx, "gs://bucket/logo.png")
		require.NoError(t, err)
		assert.True(t, img.IsRemote())
		assert.Equal(t, "gs://bucket/logo.png", img.URI)
		assert.Nil(t, img.Content)
	})
}

func TestIsRemote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bool
	}{
		{"gs://bucket/a.png", true},
		{"https://example.com/a.png", true},
		{"http://example.com/a.png", true},
		{"./images/cmu.jpg", false},
		{"/abs/path.jpg", false},
		{"gs:/typo.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, IsRemote(tt.input))
		})
	}
}
