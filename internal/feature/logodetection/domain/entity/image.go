package entity

// Image はロゴ検出に渡す画像です。
// Content と URI のどちらか一方のみが設定されます。
type Image struct {
	Content []byte // ローカルファイルやアップロードから読み込んだ画像データ
	URI     string // gs:// または http(s):// で参照する画像
}

// IsRemote はURI参照の画像かを返します。
func (i Image) IsRemote() bool {
	return i.URI != ""
}
