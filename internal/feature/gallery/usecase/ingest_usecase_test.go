package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	detectionentity "gallery_backend/internal/feature/detection/domain/entity"
	detectionusecase "gallery_backend/internal/feature/detection/usecase"
	"gallery_backend/internal/feature/gallery/domain/entity"
	"gallery_backend/internal/feature/gallery/usecase"
)

// mockPhotoStorage はPhotoStorageインターフェースのモック実装です。
type mockPhotoStorage struct {
	ListImageKeysFunc func(ctx context.Context) ([]string, error)
	GetImageFunc      func(ctx context.Context, key string) ([]byte, error)
	PublicURLFunc     func(key string) string
}

func (m *mockPhotoStorage) ListImageKeys(ctx context.Context) ([]string, error) {
	return m.ListImageKeysFunc(ctx)
}

func (m *mockPhotoStorage) GetImage(ctx context.Context, key string) ([]byte, error) {
	return m.GetImageFunc(ctx, key)
}

func (m *mockPhotoStorage) PublicURL(key string) string {
	if m.PublicURLFunc != nil {
		return m.PublicURLFunc(key)
	}
	return "https://cdn.example.com/" + key
}

// mockIngestDetector はLogoDetectorインターフェースのモック実装です。
type mockIngestDetector struct {
	DetectLogosFunc  func(ctx context.Context, imageData []byte) ([]detectionentity.DetectedLogo, error)
	DetectLogosCalls int
}

func (m *mockIngestDetector) DetectLogos(ctx context.Context, imageData []byte) ([]detectionentity.DetectedLogo, error) {
	m.DetectLogosCalls++
	return m.DetectLogosFunc(ctx, imageData)
}

// mockGalleryWriter はGalleryWriterインターフェースのモック実装です。
// 保存された内容をメモリ上に記録し、テストから検証できるようにします。
type mockGalleryWriter struct {
	PutPhotoFunc          func(ctx context.Context, photo entity.Photo) error
	GetPhotoFunc          func(ctx context.Context, id string) (*entity.Photo, error)
	PutMappingsBatchFunc  func(ctx context.Context, mappings []entity.PhotoLogo) error
	UpsertLogoSummaryFunc func(ctx context.Context, displayName string, confidence float64) error

	photos    []entity.Photo
	mappings  []entity.PhotoLogo
	summaries []string
}

func (m *mockGalleryWriter) PutPhoto(ctx context.Context, photo entity.Photo) error {
	if m.PutPhotoFunc != nil {
		return m.PutPhotoFunc(ctx, photo)
	}
	m.photos = append(m.photos, photo)
	return nil
}

func (m *mockGalleryWriter) GetPhoto(ctx context.Context, id string) (*entity.Photo, error) {
	if m.GetPhotoFunc != nil {
		return m.GetPhotoFunc(ctx, id)
	}
	return nil, usecase.ErrPhotoNotFound
}

func (m *mockGalleryWriter) PutMappingsBatch(ctx context.Context, mappings []entity.PhotoLogo) error {
	if m.PutMappingsBatchFunc != nil {
		return m.PutMappingsBatchFunc(ctx, mappings)
	}
	m.mappings = append(m.mappings, mappings...)
	return nil
}

func (m *mockGalleryWriter) UpsertLogoSummary(ctx context.Context, displayName string, confidence float64) error {
	if m.UpsertLogoSummaryFunc != nil {
		return m.UpsertLogoSummaryFunc(ctx, displayName, confidence)
	}
	m.summaries = append(m.summaries, displayName)
	return nil
}

// noopRateLimiter はテスト用に待機しないレートリミッターです。
type noopRateLimiter struct {
	calls int
}

func (n *noopRateLimiter) WaitIfNeeded() { n.calls++ }

// mockCacheInvalidator はCacheInvalidatorインターフェースのモック実装です。
type mockCacheInvalidator struct {
	InvalidateAllFunc func(ctx context.Context) error
	Calls             int
}

func (m *mockCacheInvalidator) InvalidateAll(ctx context.Context) error {
	m.Calls++
	if m.InvalidateAllFunc != nil {
		return m.InvalidateAllFunc(ctx)
	}
	return nil
}

func TestPhotoIDFromStorageKey(t *testing.T) {
	id1 := usecase.PhotoIDFromStorageKey("photos/cat.jpg")
	id2 := usecase.PhotoIDFromStorageKey("photos/cat.jpg")
	id3 := usecase.PhotoIDFromStorageKey("photos/dog.jpg")

	if id1 != id2 {
		t.Errorf("same key should yield the same ID: %q vs %q", id1, id2)
	}
	if id1 == id3 {
		t.Errorf("different keys should yield different IDs, both got %q", id1)
	}
	if len(id1) != 36 {
		t.Errorf("expected UUID format, got %q", id1)
	}
}

func TestIngestUsecase_IngestAll(t *testing.T) {
	ctx := context.Background()

	t.Run("success: photos ingested and mappings persisted", func(t *testing.T) {
		storage := &mockPhotoStorage{
			ListImageKeysFunc: func(ctx context.Context) ([]string, error) {
				return []string{"photos/a.jpg", "photos/b.png"}, nil
			},
			GetImageFunc: func(ctx context.Context, key string) ([]byte, error) {
				return []byte("image-bytes"), nil
			},
		}
		detector := &mockIngestDetector{
			DetectLogosFunc: func(ctx context.Context, imageData []byte) ([]detectionentity.DetectedLogo, error) {
				return []detectionentity.DetectedLogo{
					{Name: "Acme Corp", Confidence: 0.92, Bounds: []detectionentity.Vertex{{X: 1, Y: 2}, {X: 3, Y: 4}}},
				}, nil
			},
		}
		writer := &mockGalleryWriter{}
		limiter := &noopRateLimiter{}

		uc := usecase.NewIngestUsecase(storage, detector, writer, limiter, nil)
		result, err := uc.IngestAll(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Photos != 2 || result.Logos != 2 || result.Failures != 0 {
			t.Errorf("unexpected result: %+v", result)
		}
		if len(writer.photos) != 2 {
			t.Fatalf("expected 2 photos persisted, got %d", len(writer.photos))
		}
		if len(writer.mappings) != 2 {
			t.Fatalf("expected 2 mappings persisted, got %d", len(writer.mappings))
		}
		if writer.mappings[0].LogoSlug != "acme-corp" {
			t.Errorf("expected slugified logo name, got %q", writer.mappings[0].LogoSlug)
		}
		if writer.mappings[0].PhotoID != usecase.PhotoIDFromStorageKey("photos/a.jpg") {
			t.Errorf("mapping photo ID mismatch: %q", writer.mappings[0].PhotoID)
		}
		if len(writer.mappings[0].Bounds) != 2 {
			t.Errorf("expected bounds to be carried over, got %v", writer.mappings[0].Bounds)
		}
		if len(writer.summaries) != 2 || writer.summaries[0] != "Acme Corp" {
			t.Errorf("expected summary upserts with display name, got %v", writer.summaries)
		}
		if limiter.calls != 2 {
			t.Errorf("expected rate limiter to be consulted per photo, got %d calls", limiter.calls)
		}
	})

	t.Run("success: re-ingest keeps original created_at", func(t *testing.T) {
		created := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
		storage := &mockPhotoStorage{
			ListImageKeysFunc: func(ctx context.Context) ([]string, error) {
				return []string{"photos/a.jpg"}, nil
			},
			GetImageFunc: func(ctx context.Context, key string) ([]byte, error) {
				return []byte("image-bytes"), nil
			},
		}
		detector := &mockIngestDetector{
			DetectLogosFunc: func(ctx context.Context, imageData []byte) ([]detectionentity.DetectedLogo, error) {
				return nil, nil
			},
		}
		writer := &mockGalleryWriter{
			GetPhotoFunc: func(ctx context.Context, id string) (*entity.Photo, error) {
				return &entity.Photo{ID: id, CreatedAt: created}, nil
			},
		}

		uc := usecase.NewIngestUsecase(storage, detector, writer, &noopRateLimiter{}, nil)
		if _, err := uc.IngestAll(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(writer.photos) != 1 {
			t.Fatalf("expected 1 photo persisted, got %d", len(writer.photos))
		}
		if !writer.photos[0].CreatedAt.Equal(created) {
			t.Errorf("expected created_at to be preserved, got %v", writer.photos[0].CreatedAt)
		}
		if writer.photos[0].UpdatedAt.Equal(created) {
			t.Errorf("expected updated_at to be refreshed")
		}
	})

	t.Run("success: invalid detections are skipped", func(t *testing.T) {
		storage := &mockPhotoStorage{
			ListImageKeysFunc: func(ctx context.Context) ([]string, error) {
				return []string{"photos/a.jpg"}, nil
			},
			GetImageFunc: func(ctx context.Context, key string) ([]byte, error) {
				return []byte("image-bytes"), nil
			},
		}
		detector := &mockIngestDetector{
			DetectLogosFunc: func(ctx context.Context, imageData []byte) ([]detectionentity.DetectedLogo, error) {
				return []detectionentity.DetectedLogo{
					{Name: "", Confidence: 0.9},
					{Name: "Valid", Confidence: 0.8},
				}, nil
			},
		}
		writer := &mockGalleryWriter{}

		uc := usecase.NewIngestUsecase(storage, detector, writer, &noopRateLimiter{}, nil)
		result, err := uc.IngestAll(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Logos != 1 {
			t.Errorf("expected only the valid detection to be counted, got %d", result.Logos)
		}
		if len(writer.mappings) != 1 || writer.mappings[0].LogoSlug != "valid" {
			t.Errorf("unexpected mappings: %v", writer.mappings)
		}
		if len(writer.summaries) != 1 {
			t.Errorf("expected 1 summary upsert, got %d", len(writer.summaries))
		}
	})

	t.Run("failure: one photo fails but the batch continues", func(t *testing.T) {
		storage := &mockPhotoStorage{
			ListImageKeysFunc: func(ctx context.Context) ([]string, error) {
				return []string{"photos/bad.jpg", "photos/good.jpg"}, nil
			},
			GetImageFunc: func(ctx context.Context, key string) ([]byte, error) {
				if key == "photos/bad.jpg" {
					return nil, errors.New("object not found")
				}
				return []byte("image-bytes"), nil
			},
		}
		detector := &mockIngestDetector{
			DetectLogosFunc: func(ctx context.Context, imageData []byte) ([]detectionentity.DetectedLogo, error) {
				return nil, nil
			},
		}
		writer := &mockGalleryWriter{}

		uc := usecase.NewIngestUsecase(storage, detector, writer, &noopRateLimiter{}, nil)
		result, err := uc.IngestAll(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Photos != 1 || result.Failures != 1 {
			t.Errorf("unexpected result: %+v", result)
		}
		if len(writer.photos) != 1 || writer.photos[0].StorageKey != "photos/good.jpg" {
			t.Errorf("expected only the good photo to be persisted, got %v", writer.photos)
		}
	})

	t.Run("failure: oversized images are skipped without calling the detector", func(t *testing.T) {
		storage := &mockPhotoStorage{
			ListImageKeysFunc: func(ctx context.Context) ([]string, error) {
				return []string{"photos/huge.jpg"}, nil
			},
			GetImageFunc: func(ctx context.Context, key string) ([]byte, error) {
				return make([]byte, detectionusecase.MaxImageSize+1), nil
			},
		}
		detector := &mockIngestDetector{
			DetectLogosFunc: func(ctx context.Context, imageData []byte) ([]detectionentity.DetectedLogo, error) {
				return nil, nil
			},
		}
		writer := &mockGalleryWriter{}

		uc := usecase.NewIngestUsecase(storage, detector, writer, &noopRateLimiter{}, nil)
		result, err := uc.IngestAll(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Photos != 0 || result.Failures != 1 {
			t.Errorf("unexpected result: %+v", result)
		}
		if detector.DetectLogosCalls != 0 {
			t.Errorf("expected detector not to be called, got %d calls", detector.DetectLogosCalls)
		}
		if len(writer.photos) != 0 {
			t.Errorf("expected no photo persisted, got %v", writer.photos)
		}
	})

	t.Run("success: cache is invalidated after ingesting photos", func(t *testing.T) {
		storage := &mockPhotoStorage{
			ListImageKeysFunc: func(ctx context.Context) ([]string, error) {
				return []string{"photos/a.jpg", "photos/b.jpg"}, nil
			},
			GetImageFunc: func(ctx context.Context, key string) ([]byte, error) {
				return []byte("image-bytes"), nil
			},
		}
		detector := &mockIngestDetector{
			DetectLogosFunc: func(ctx context.Context, imageData []byte) ([]detectionentity.DetectedLogo, error) {
				return nil, nil
			},
		}
		invalidator := &mockCacheInvalidator{}

		uc := usecase.NewIngestUsecase(storage, detector, &mockGalleryWriter{}, &noopRateLimiter{}, invalidator)
		if _, err := uc.IngestAll(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if invalidator.Calls != 1 {
			t.Errorf("expected cache to be invalidated once after the run, got %d calls", invalidator.Calls)
		}
	})

	t.Run("success: cache is left alone when nothing was ingested", func(t *testing.T) {
		storage := &mockPhotoStorage{
			ListImageKeysFunc: func(ctx context.Context) ([]string, error) {
				return nil, nil
			},
		}
		invalidator := &mockCacheInvalidator{}

		uc := usecase.NewIngestUsecase(storage, &mockIngestDetector{}, &mockGalleryWriter{}, &noopRateLimiter{}, invalidator)
		if _, err := uc.IngestAll(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if invalidator.Calls != 0 {
			t.Errorf("expected no invalidation for an empty run, got %d calls", invalidator.Calls)
		}
	})

	t.Run("success: invalidation failure does not fail the run", func(t *testing.T) {
		storage := &mockPhotoStorage{
			ListImageKeysFunc: func(ctx context.Context) ([]string, error) {
				return []string{"photos/a.jpg"}, nil
			},
			GetImageFunc: func(ctx context.Context, key string) ([]byte, error) {
				return []byte("image-bytes"), nil
			},
		}
		detector := &mockIngestDetector{
			DetectLogosFunc: func(ctx context.Context, imageData []byte) ([]detectionentity.DetectedLogo, error) {
				return nil, nil
			},
		}
		invalidator := &mockCacheInvalidator{
			InvalidateAllFunc: func(ctx context.Context) error {
				return errors.New("redis down")
			},
		}

		uc := usecase.NewIngestUsecase(storage, detector, &mockGalleryWriter{}, &noopRateLimiter{}, invalidator)
		result, err := uc.IngestAll(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Photos != 1 {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("failure: listing photos fails", func(t *testing.T) {
		storage := &mockPhotoStorage{
			ListImageKeysFunc: func(ctx context.Context) ([]string, error) {
				return nil, errors.New("bucket unreachable")
			},
		}

		uc := usecase.NewIngestUsecase(storage, &mockIngestDetector{}, &mockGalleryWriter{}, &noopRateLimiter{}, nil)
		_, err := uc.IngestAll(ctx)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "failed to list photos") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
