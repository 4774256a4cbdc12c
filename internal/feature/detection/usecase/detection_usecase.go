// Package usecase はdetectionフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"gallery_backend/internal/feature/detection/domain/entity"
)

const (
	// MaxImageSize は画像アップロードの最大サイズ（10MB）です。
	MaxImageSize = 10 * 1024 * 1024
	// AnalysisPromptTemplate はブランド分析のプロンプトテンプレートです。
	AnalysisPromptTemplate = "日本語で、ブランド認知の観点から%sというブランドの特徴を3つ挙げて。"
	// MaxBrandNameLength はブランド名の最大文字数（rune数）です。
	MaxBrandNameLength = 100
)

// validBrandName はブランド名に許可される文字パターンです（英数字・日本語・スペース・中黒）。
var validBrandName = regexp.MustCompile(`^[\p{L}\p{N}\s・\-\.&,]+$`)

// LogoDetector は画像からロゴを検出するリポジトリインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type LogoDetector interface {
	// DetectLogos は画像バイト列からロゴを検出し、検出結果を返します。
	DetectLogos(ctx context.Context, imageData []byte) ([]entity.DetectedLogo, error)
}

// BrandAnalyzer はブランド分析を生成するリポジトリインターフェースです。
type BrandAnalyzer interface {
	// Analyze はプロンプトから分析サマリーを生成します。
	Analyze(ctx context.Context, prompt string) (string, error)
}

// detectionUsecase はロゴ検出・ブランド分析のビジネスロジックを提供します。
type detectionUsecase struct {
	logoDetector  LogoDetector
	brandAnalyzer BrandAnalyzer
}

// NewDetectionUsecase はdetectionUsecaseの新しいインスタンスを生成します。
func NewDetectionUsecase(ld LogoDetector, ba BrandAnalyzer) *detectionUsecase {
	return &detectionUsecase{logoDetector: ld, brandAnalyzer: ba}
}

// DetectLogos は画像データからロゴを検出します。
func (u *detectionUsecase) DetectLogos(ctx context.Context, imageData []byte) ([]entity.DetectedLogo, error) {
	if len(imageData) == 0 {
		return nil, fmt.Errorf("image data is empty")
	}
	if len(imageData) > MaxImageSize {
		return nil, fmt.Errorf("image size exceeds maximum of %d bytes", MaxImageSize)
	}
	return u.logoDetector.DetectLogos(ctx, imageData)
}

// AnalyzeBrand はブランド名から分析サマリーを生成します。
func (u *detectionUsecase) AnalyzeBrand(ctx context.Context, brandName string) (*entity.BrandAnalysis, error) {
	if brandName == "" {
		return nil, fmt.Errorf("brand name is required")
	}
	if utf8.RuneCountInString(brandName) > MaxBrandNameLength {
		return nil, fmt.Errorf("brand name exceeds maximum length of %d characters", MaxBrandNameLength)
	}
	if !validBrandName.MatchString(brandName) {
		return nil, fmt.Errorf("brand name contains invalid characters")
	}
	prompt := fmt.Sprintf(AnalysisPromptTemplate, brandName)
	summary, err := u.brandAnalyzer.Analyze(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("brand analyzer failed for %q: %w", brandName, err)
	}
	return &entity.BrandAnalysis{
		BrandName: brandName,
		Summary:   summary,
	}, nil
}
