package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	detectionentity "gallery_backend/internal/feature/detection/domain/entity"
	detectionusecase "gallery_backend/internal/feature/detection/usecase"
	"gallery_backend/internal/feature/gallery/domain/entity"
	"gallery_backend/internal/shared/ratelimiter"
)

// PhotoStorage はオブジェクトストレージ上の写真の読み取りを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type PhotoStorage interface {
	// ListImageKeys はバケット内の画像オブジェクトのキー一覧を返します。
	ListImageKeys(ctx context.Context) ([]string, error)

	// GetImage は指定されたキーのオブジェクト本体を取得します。
	GetImage(ctx context.Context, key string) ([]byte, error)

	// PublicURL は指定されたキーの公開URLを返します。
	// バケットが公開されていない場合、空文字列を返します。
	PublicURL(key string) string
}

// LogoDetector は画像からロゴを検出する外部APIを抽象化します。
type LogoDetector interface {
	DetectLogos(ctx context.Context, imageData []byte) ([]detectionentity.DetectedLogo, error)
}

// GalleryWriter は取り込み結果の永続化レイヤーを抽象化します。
type GalleryWriter interface {
	// PutPhoto は写真レコードを保存（または上書き）します。
	PutPhoto(ctx context.Context, photo entity.Photo) error

	// GetPhoto はIDで写真を1件取得します。存在しない場合、ErrPhotoNotFoundを返します。
	GetPhoto(ctx context.Context, id string) (*entity.Photo, error)

	// PutMappingsBatch は写真とロゴのマッピングレコードを一括保存します。
	PutMappingsBatch(ctx context.Context, mappings []entity.PhotoLogo) error

	// UpsertLogoSummary はロゴの集計レコードを更新します。
	// 検出件数を加算し、信頼度がこれまでの最大値を上回る場合のみ更新します。
	UpsertLogoSummary(ctx context.Context, displayName string, confidence float64) error
}

// CacheInvalidator は一覧キャッシュの破棄を抽象化します。
type CacheInvalidator interface {
	// InvalidateAll は名前空間内の全キャッシュエントリを削除します。
	InvalidateAll(ctx context.Context) error
}

// IngestResult は取り込みバッチの実行結果を表します。
type IngestResult struct {
	Photos   int // 永続化した写真の件数
	Logos    int // 保存したマッピングの件数
	Failures int // スキップした写真の件数
}

// IngestUsecase はオブジェクトストレージ上の写真に対してロゴ検出を実行し、
// 結果をデータベースに永続化するユースケースを定義します。
type IngestUsecase struct {
	storage     PhotoStorage
	detector    LogoDetector
	writer      GalleryWriter
	rateLimiter ratelimiter.RateLimiterInterface
	invalidator CacheInvalidator // nilの場合はキャッシュ破棄をスキップ
	now         func() time.Time
}

// NewIngestUsecase は新しい IngestUsecase を作成します。
func NewIngestUsecase(storage PhotoStorage, detector LogoDetector, writer GalleryWriter,
	rateLimiter ratelimiter.RateLimiterInterface, invalidator CacheInvalidator) *IngestUsecase {
	return &IngestUsecase{
		storage:     storage,
		detector:    detector,
		writer:      writer,
		rateLimiter: rateLimiter,
		invalidator: invalidator,
		now:         time.Now,
	}
}

// PhotoIDFromStorageKey はストレージキーから決定的な写真IDを導出します。
// 同じキーは常に同じIDになるため、再実行時は既存レコードが上書きされます。
func PhotoIDFromStorageKey(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

// ingestOne は1枚の写真をダウンロードし、ロゴ検出を実行して結果を永続化します。
// 保存したマッピングの件数を返します。
func (iu *IngestUsecase) ingestOne(ctx context.Context, key string) (int, error) {
	data, err := iu.storage.GetImage(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to download %q: %w", key, err)
	}
	if len(data) > detectionusecase.MaxImageSize {
		return 0, fmt.Errorf("image %q size %d exceeds maximum of %d bytes", key, len(data), detectionusecase.MaxImageSize)
	}

	iu.rateLimiter.WaitIfNeeded()
	logos, err := iu.detector.DetectLogos(ctx, data)
	if err != nil {
		return 0, fmt.Errorf("logo detection failed for %q: %w", key, err)
	}

	now := iu.now().UTC()
	photo := entity.Photo{
		ID:         PhotoIDFromStorageKey(key),
		StorageKey: key,
		PublicURL:  iu.storage.PublicURL(key),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// 再取り込みの場合は初回の作成日時を維持する
	if existing, err := iu.writer.GetPhoto(ctx, photo.ID); err == nil {
		photo.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, ErrPhotoNotFound) {
		return 0, fmt.Errorf("failed to look up photo %q: %w", photo.ID, err)
	}

	if err := iu.writer.PutPhoto(ctx, photo); err != nil {
		return 0, fmt.Errorf("failed to persist photo %q: %w", photo.ID, err)
	}

	mappings := make([]entity.PhotoLogo, 0, len(logos))
	for _, l := range logos {
		confidence := float64(l.Confidence)
		if l.Name == "" || math.IsNaN(confidence) || math.IsInf(confidence, 0) {
			slog.Warn("skipping invalid detection", "key", key, "name", l.Name, "confidence", confidence)
			continue
		}
		bounds := make([]entity.Vertex, 0, len(l.Bounds))
		for _, v := range l.Bounds {
			bounds = append(bounds, entity.Vertex{X: v.X, Y: v.Y})
		}
		mappings = append(mappings, entity.PhotoLogo{
			LogoSlug:   entity.Slugify(l.Name),
			PhotoID:    photo.ID,
			Confidence: confidence,
			Bounds:     bounds,
			DetectedAt: now,
		})
		if err := iu.writer.UpsertLogoSummary(ctx, l.Name, confidence); err != nil {
			return 0, fmt.Errorf("failed to update summary for %q: %w", l.Name, err)
		}
	}

	if err := iu.writer.PutMappingsBatch(ctx, mappings); err != nil {
		return 0, fmt.Errorf("failed to persist mappings for %q: %w", photo.ID, err)
	}
	return len(mappings), nil
}

// IngestAll はバケット内の全画像に対してロゴ検出を実行し、結果を永続化します。
// 1枚の写真でエラーが発生しても処理を止めずにログに出力し、次の写真を続けます。
func (iu *IngestUsecase) IngestAll(ctx context.Context) (IngestResult, error) {
	keys, err := iu.storage.ListImageKeys(ctx)
	if err != nil {
		return IngestResult{}, fmt.Errorf("failed to list photos: %w", err)
	}

	var result IngestResult
	for _, key := range keys {
		n, err := iu.ingestOne(ctx, key)
		if err != nil {
			slog.Error("failed to ingest photo", "key", key, "error", err)
			result.Failures++
			continue // 次の写真へ
		}
		result.Photos++
		result.Logos += n
	}

	// 書き込み後は古い一覧キャッシュを破棄する（ベストエフォート）
	if iu.invalidator != nil && result.Photos > 0 {
		if err := iu.invalidator.InvalidateAll(ctx); err != nil {
			slog.Warn("failed to invalidate gallery cache after ingest", "error", err)
		}
	}
	return result, nil
}
