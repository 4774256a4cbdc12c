// Package entity はdetectionフィーチャーのドメインモデルを定義します。
package entity

// Vertex は検出結果のバウンディングポリゴンの頂点を表します。
type Vertex struct {
	X int32
	Y int32
}

// DetectedLogo は画像から検出されたロゴを表します。
type DetectedLogo struct {
	Name       string   // 検出されたブランド名
	Confidence float32  // 信頼度スコア（0.0 ~ 1.0）
	Bounds     []Vertex // バウンディングポリゴン（APIが返した場合のみ）
}

// BrandAnalysis はブランドの分析結果を表します。
type BrandAnalysis struct {
	BrandName string // 分析対象のブランド名
	Summary   string // AI生成の分析サマリー
}
