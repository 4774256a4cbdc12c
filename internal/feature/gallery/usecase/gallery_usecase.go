package usecase

import (
	"context"
	"fmt"

	"gallery_backend/internal/feature/gallery/domain/entity"
)

// GalleryRepository は写真・ロゴレコードの読み取りレイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type GalleryRepository interface {
	// ListPhotos は全写真を作成日時の降順で返します。
	ListPhotos(ctx context.Context) ([]entity.Photo, error)

	// GetPhoto はIDで写真を1件取得します。
	// 写真が存在しない場合、ErrPhotoNotFoundを返します。
	GetPhoto(ctx context.Context, id string) (*entity.Photo, error)

	// ListPhotosByLogo は指定されたロゴスラッグのマッピングを持つ写真のみを返します。
	ListPhotosByLogo(ctx context.Context, slug string) ([]entity.Photo, error)

	// ListLogos は全ロゴの集計レコードを検出写真数の降順で返します。
	ListLogos(ctx context.Context) ([]entity.LogoSummary, error)
}

// galleryUsecase は写真ギャラリー閲覧のユースケースを定義します。
type galleryUsecase struct {
	repo GalleryRepository
}

// NewGalleryUsecase はgalleryUsecaseの新しいインスタンスを生成します。
func NewGalleryUsecase(repo GalleryRepository) *galleryUsecase {
	return &galleryUsecase{repo: repo}
}

// ListPhotos は写真一覧を取得します。logoSlugが空でない場合、
// そのロゴが検出された写真のみに絞り込みます。
func (gu *galleryUsecase) ListPhotos(ctx context.Context, logoSlug string) ([]entity.Photo, error) {
	if logoSlug != "" {
		return gu.repo.ListPhotosByLogo(ctx, logoSlug)
	}
	return gu.repo.ListPhotos(ctx)
}

// GetPhoto はIDで写真を1件取得します。
func (gu *galleryUsecase) GetPhoto(ctx context.Context, id string) (*entity.Photo, error) {
	if id == "" {
		return nil, fmt.Errorf("photo id is required")
	}
	return gu.repo.GetPhoto(ctx, id)
}

// ListLogos は検出済みロゴの集計一覧を取得します。
func (gu *galleryUsecase) ListLogos(ctx context.Context) ([]entity.LogoSummary, error) {
	return gu.repo.ListLogos(ctx)
}
