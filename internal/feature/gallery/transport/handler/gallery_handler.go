// Package handler はgalleryフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"gallery_backend/internal/api"
	"gallery_backend/internal/feature/gallery/domain/entity"
	"gallery_backend/internal/feature/gallery/usecase"
)

// GalleryUsecase は写真ギャラリー閲覧のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type GalleryUsecase interface {
	ListPhotos(ctx context.Context, logoSlug string) ([]entity.Photo, error)
	GetPhoto(ctx context.Context, id string) (*entity.Photo, error)
	ListLogos(ctx context.Context) ([]entity.LogoSummary, error)
}

// GalleryHandler は写真・ロゴ閲覧のHTTPリクエストを処理します。
type GalleryHandler struct {
	uc GalleryUsecase
}

// NewGalleryHandler は指定されたusecaseでGalleryHandlerの新しいインスタンスを生成します。
func NewGalleryHandler(uc GalleryUsecase) *GalleryHandler {
	return &GalleryHandler{uc: uc}
}

func toPhotoResponse(p entity.Photo) api.PhotoResponse {
	return api.PhotoResponse{
		ID:         p.ID,
		StorageKey: p.StorageKey,
		PublicURL:  p.PublicURL,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// ListPhotos は写真一覧を作成日時の降順でJSONで返します。
//
// エンドポイント例:
// GET /v1/photos?logo=apple
func (h *GalleryHandler) ListPhotos(c *gin.Context) {
	logoSlug := c.Query("logo")

	photos, err := h.uc.ListPhotos(c.Request.Context(), logoSlug)
	if err != nil {
		slog.Error("写真一覧の取得に失敗", "logo", logoSlug, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "写真一覧の取得に失敗しました"})
		return
	}

	out := make([]api.PhotoResponse, 0, len(photos))
	for _, p := range photos {
		out = append(out, toPhotoResponse(p))
	}
	c.JSON(http.StatusOK, out)
}

// GetPhoto はIDで写真を1件取得してJSONで返します。
//
// エンドポイント: GET /v1/photos/:id
func (h *GalleryHandler) GetPhoto(c *gin.Context) {
	id := c.Param("id")

	photo, err := h.uc.GetPhoto(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, usecase.ErrPhotoNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "写真が見つかりません"})
			return
		}
		slog.Error("写真の取得に失敗", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "写真の取得に失敗しました"})
		return
	}

	c.JSON(http.StatusOK, toPhotoResponse(*photo))
}

// ListLogos は検出済みロゴの集計一覧をJSONで返します。
//
// エンドポイント: GET /v1/logos
func (h *GalleryHandler) ListLogos(c *gin.Context) {
	logos, err := h.uc.ListLogos(c.Request.Context())
	if err != nil {
		slog.Error("ロゴ一覧の取得に失敗", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "ロゴ一覧の取得に失敗しました"})
		return
	}

	out := make([]api.LogoSummaryResponse, 0, len(logos))
	for _, l := range logos {
		out = append(out, api.LogoSummaryResponse{
			Slug:          l.Slug,
			DisplayName:   l.DisplayName,
			PhotoCount:    l.PhotoCount,
			MaxConfidence: l.MaxConfidence,
		})
	}
	c.JSON(http.StatusOK, out)
}

// ListPhotosByLogo は指定されたロゴが検出された写真のみをJSONで返します。
//
// エンドポイント: GET /v1/logos/:slug/photos
func (h *GalleryHandler) ListPhotosByLogo(c *gin.Context) {
	slug := c.Param("slug")

	photos, err := h.uc.ListPhotos(c.Request.Context(), slug)
	if err != nil {
		slog.Error("ロゴ別写真一覧の取得に失敗", "slug", slug, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "写真一覧の取得に失敗しました"})
		return
	}

	out := make([]api.PhotoResponse, 0, len(photos))
	for _, p := range photos {
		out = append(out, toPhotoResponse(p))
	}
	c.JSON(http.StatusOK, out)
}

// GalleryPage はギャラリーページをサーバーサイドレンダリングで返します。
// logoクエリパラメータが指定されている場合、そのロゴが検出された写真のみを表示します。
//
// エンドポイント: GET /
func (h *GalleryHandler) GalleryPage(c *gin.Context) {
	logoSlug := c.Query("logo")

	photos, err := h.uc.ListPhotos(c.Request.Context(), logoSlug)
	if err != nil {
		slog.Error("ギャラリーページの写真取得に失敗", "logo", logoSlug, "error", err)
		c.HTML(http.StatusInternalServerError, "gallery.html", gin.H{
			"Error": "写真の読み込みに失敗しました",
		})
		return
	}

	logos, err := h.uc.ListLogos(c.Request.Context())
	if err != nil {
		slog.Error("ギャラリーページのロゴ取得に失敗", "error", err)
		logos = nil // ロゴフィルタなしで写真のみ表示する
	}

	c.HTML(http.StatusOK, "gallery.html", gin.H{
		"Photos":       photos,
		"Logos":        logos,
		"SelectedLogo": logoSlug,
	})
}
