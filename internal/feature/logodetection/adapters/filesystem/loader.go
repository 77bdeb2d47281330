// Package filesystem はロゴ検出対象の画像をパスから読み込むローダーを提供します。
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"logoscan/internal/feature/logodetection/domain"
	"logoscan/internal/feature/logodetection/domain/entity"
	"logoscan/internal/feature/logodetection/usecase"
)

// remotePrefixes はVision APIへURIのまま渡すスキームです。
var remotePrefixes = []string{"gs://", "http://", "https://"}

// LocalImageLoader はローカルファイルを読み込み、リモートURIはそのまま参照として返します。
type LocalImageLoader struct {
	maxSize int
}

// LocalImageLoaderがImageLoaderを実装していることをコンパイル時に検証します。
var _ usecase.ImageLoader = (*LocalImageLoader)(nil)

// NewLocalImageLoader はLocalImageLoaderの新しいインスタンスを生成します。
// maxSizeが0以下の場合は usecase.MaxImageSize を使用します。
func NewLocalImageLoader(maxSize int) *LocalImageLoader {
	if maxSize <= 0 {
		maxSize = usecase.MaxImageSize
	}
	return &LocalImageLoader{maxSize: maxSize}
}

// Load はpathの画像を読み込みます。
// 事前の存在確認は行わず、読み込み失敗時に domain.ErrImageNotFound を返します。
func (l *LocalImageLoader) Load(ctx context.Context, path string) (entity.Image, error) {
	if IsRemote(path) {
		return entity.Image{URI: path}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entity.Image{}, fmt.Errorf("%w: %s", domain.ErrImageNotFound, path)
		}
		return entity.Image{}, fmt.Errorf("failed to read image %q: %w", path, err)
	}
	if len(data) == 0 {
		return entity.Image{}, fmt.Errorf("%w: %s", domain.ErrEmptyImage, path)
	}
	if len(data) > l.maxSize {
		return entity.Image{}, fmt.Errorf("%w of %d bytes: %s", domain.ErrImageTooLarge, l.maxSize, path)
	}
	return entity.Image{Content: data}, nil
}

// IsRemote はpathがVision APIへURI参照で渡すべきものかを返します。
func IsRemote(path string) bool {
	for _, p := range remotePrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
