// Package entity はlogodetectionフィーチャーのドメインモデルを定義します。
package entity

// LogoAnnotation は画像から検出されたロゴ1件を表します。
// Description・Score はどちらも省略され得ます。
type LogoAnnotation struct {
	Description string   // 検出されたロゴの名称（空なら未設定）
	Score       *float64 // 信頼度スコア（0.0 ~ 1.0、nilなら未設定）
}

// HasDescription は名称が設定されているかを返します。
func (l LogoAnnotation) HasDescription() bool {
	return l.Description != ""
}

// Float64 はスコアリテラルをポインタに変換するヘルパーです。
func Float64(v float64) *float64 {
	return &v
}
