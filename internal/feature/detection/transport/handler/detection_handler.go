// Package handler はdetectionフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"gallery_backend/internal/api"
	"gallery_backend/internal/feature/detection/domain/entity"
)

// DetectionUsecase はロゴ検出・ブランド分析のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type DetectionUsecase interface {
	DetectLogos(ctx context.Context, imageData []byte) ([]entity.DetectedLogo, error)
	AnalyzeBrand(ctx context.Context, brandName string) (*entity.BrandAnalysis, error)
}

// DetectionHandler はロゴ検出・ブランド分析のHTTPリクエストを処理します。
type DetectionHandler struct {
	uc DetectionUsecase
}

// NewDetectionHandler はDetectionHandlerの新しいインスタンスを生成します。
func NewDetectionHandler(uc DetectionUsecase) *DetectionHandler {
	return &DetectionHandler{uc: uc}
}

// DetectLogos は画像をアップロードしてロゴを検出します。検出結果は永続化されません。
//
// エンドポイント: POST /v1/detect
// Content-Type: multipart/form-data
// フィールド: image（画像ファイル、最大10MB）
func (h *DetectionHandler) DetectLogos(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		slog.Warn("画像ファイルの取得に失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "画像ファイルが必要です"})
		return
	}

	f, err := file.Open()
	if err != nil {
		slog.Error("画像ファイルのオープンに失敗", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "画像の読み込みに失敗しました"})
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("画像ファイルのクローズに失敗", "error", err)
		}
	}()

	imageData, err := io.ReadAll(f)
	if err != nil {
		slog.Error("画像データの読み取りに失敗", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "画像の読み込みに失敗しました"})
		return
	}

	logos, err := h.uc.DetectLogos(c.Request.Context(), imageData)
	if err != nil {
		slog.Error("ロゴ検出に失敗", "error", err)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "ロゴ検出に失敗しました"})
		return
	}

	out := make([]api.DetectedLogoResponse, 0, len(logos))
	for _, l := range logos {
		bounds := make([]api.VertexResponse, 0, len(l.Bounds))
		for _, v := range l.Bounds {
			bounds = append(bounds, api.VertexResponse{X: v.X, Y: v.Y})
		}
		out = append(out, api.DetectedLogoResponse{
			Name:       l.Name,
			Confidence: l.Confidence,
			Bounds:     bounds,
		})
	}
	c.JSON(http.StatusOK, out)
}

// AnalyzeBrand はブランド分析サマリーを生成します。
//
// エンドポイント: POST /v1/brands/analyze
// Content-Type: application/json
func (h *DetectionHandler) AnalyzeBrand(c *gin.Context) {
	var req api.BrandAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("ブランド分析リクエストのバリデーションに失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "ブランド名が必要です"})
		return
	}

	analysis, err := h.uc.AnalyzeBrand(c.Request.Context(), req.BrandName)
	if err != nil {
		slog.Error("ブランド分析に失敗", "error", err, "brand", req.BrandName)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "ブランド分析に失敗しました"})
		return
	}

	c.JSON(http.StatusOK, api.BrandAnalysisResponse{
		BrandName: analysis.BrandName,
		Summary:   analysis.Summary,
	})
}
