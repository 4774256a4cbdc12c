// Package api はHTTP APIのリクエスト・レスポンス型を定義します。
package api

import "time"

// ErrorResponse はエラー時の共通レスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}

// PhotoResponse は写真1件のレスポンスです。
type PhotoResponse struct {
	ID         string    `json:"id"`
	StorageKey string    `json:"storage_key"`
	PublicURL  string    `json:"public_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// LogoSummaryResponse はロゴ集計1件のレスポンスです。
type LogoSummaryResponse struct {
	Slug          string  `json:"slug"`
	DisplayName   string  `json:"display_name"`
	PhotoCount    int64   `json:"photo_count"`
	MaxConfidence float64 `json:"max_confidence"`
}

// VertexResponse はバウンディングポリゴンの頂点です。
type VertexResponse struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// DetectedLogoResponse はアドホック検出結果1件のレスポンスです。
type DetectedLogoResponse struct {
	Name       string           `json:"name"`
	Confidence float32          `json:"confidence"`
	Bounds     []VertexResponse `json:"bounds,omitempty"`
}

// BrandAnalysisRequest はブランド分析のリクエストです。
type BrandAnalysisRequest struct {
	BrandName string `json:"brand_name" binding:"required"`
}

// BrandAnalysisResponse はブランド分析のレスポンスです。
type BrandAnalysisResponse struct {
	BrandName string `json:"brand_name"`
	Summary   string `json:"summary"`
}

// SignupRequest は新規ユーザー登録のリクエストです。
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest はログインのリクエストです。
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse はログイン成功時のレスポンスです。
type TokenResponse struct {
	Token string `json:"token"`
}

// MessageResponse は汎用の成功レスポンスです。
type MessageResponse struct {
	Message string `json:"message"`
}
