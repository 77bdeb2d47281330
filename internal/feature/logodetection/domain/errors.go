// Package domain はlogodetectionフィーチャーのドメインエラーを定義します。
package domain

import "errors"

var (
	// ErrImageNotFound は入力画像が存在しない、またはリモート側で参照できないことを示します。
	// バッチ処理ではファイル単位で回復され、専用の通知として出力されます。
	ErrImageNotFound = errors.New("image not found")

	// ErrEmptyImage は画像データが空であることを示します。
	ErrEmptyImage = errors.New("image data is empty")

	// ErrImageTooLarge は画像サイズが上限を超えていることを示します。
	ErrImageTooLarge = errors.New("image size exceeds maximum")
)
