package entity

import (
	"strings"
	"time"
	"unicode"
)

// Vertex はロゴ検出時のバウンディングポリゴンの頂点を表します。
type Vertex struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// PhotoLogo は1枚の写真と1つの検出済みロゴを関連付けるマッピングレコードです。
type PhotoLogo struct {
	LogoSlug   string    // ロゴの識別子（表示名から導出したスラッグ）
	PhotoID    string    // 写真の識別子
	Confidence float64   // 検出の信頼度スコア（0.0 ~ 1.0）
	Bounds     []Vertex  // バウンディングポリゴン（検出APIが返した場合のみ）
	DetectedAt time.Time // 検出日時
}

// LogoSummary は全写真を横断したロゴごとの集計レコードです。
type LogoSummary struct {
	Slug          string    // ロゴの識別子
	DisplayName   string    // 検出APIが返した表示名
	PhotoCount    int64     // 検出された写真の累計件数
	MaxConfidence float64   // これまでに観測された最大信頼度
	UpdatedAt     time.Time // 最終更新日時
}

// Slugify はロゴの表示名をURLや永続化キーに使えるスラッグへ変換します。
// 英数字以外はハイフンに置き換え、連続するハイフンは1つにまとめます。
func Slugify(name string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevHyphen = false
		case !prevHyphen && b.Len() > 0:
			b.WriteRune('-')
			prevHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
