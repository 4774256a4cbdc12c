package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"gallery_backend/internal/feature/detection/adapters/vision"
	gallerydynamo "gallery_backend/internal/feature/gallery/adapters/dynamo"
	gallerys3 "gallery_backend/internal/feature/gallery/adapters/s3"
	"gallery_backend/internal/feature/gallery/usecase"
	"gallery_backend/internal/platform/cache"
	platformdynamo "gallery_backend/internal/platform/dynamo"
	"gallery_backend/internal/platform/objectstorage"
	infraredis "gallery_backend/internal/platform/redis"
	"gallery_backend/internal/shared/ratelimiter"
)

func main() {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		log.Println("[INFO] .env not found; using system environment variables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	// S3
	storageCfg, err := objectstorage.LoadConfig()
	if err != nil {
		log.Fatal("invalid storage config:", err)
	}
	s3Client, err := objectstorage.NewClient(ctx, storageCfg)
	if err != nil {
		log.Fatal("failed to create S3 client:", err)
	}
	storage := gallerys3.NewPhotoStorage(s3Client, storageCfg.Bucket, storageCfg.Prefix, storageCfg.PublicBaseURL)

	// DynamoDB
	dynamoCfg := platformdynamo.LoadConfig()
	ddb, err := platformdynamo.NewClient(ctx, dynamoCfg)
	if err != nil {
		log.Fatal("failed to create DynamoDB client:", err)
	}
	galleryRepo := gallerydynamo.NewGalleryRepository(ddb, dynamoCfg.TableName)

	// Redis（取り込み後のキャッシュ破棄用。未接続でも取り込みは続行する）
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(); err != nil {
		log.Println("[WARN] Redis unavailable. Skipping cache invalidation.")
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	}
	cachedGalleryRepo := cache.NewCachingGalleryRepository(rdb, 0, galleryRepo, "gallery")

	// Vision
	detector, err := vision.NewVisionLogoDetector(ctx)
	if err != nil {
		log.Fatal("failed to create vision client:", err)
	}
	defer func() {
		if err := detector.Close(); err != nil {
			log.Println("[ERROR] Failed to close vision client:", err)
		}
	}()

	// Vision APIのクォータに合わせたレートリミット
	rl := ratelimiter.NewRateLimiter(30, time.Minute)
	uc := usecase.NewIngestUsecase(storage, detector, galleryRepo, rl, cachedGalleryRepo)

	result, err := uc.IngestAll(ctx)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("ingest ok: %d photos, %d logo mappings, %d failures", result.Photos, result.Logos, result.Failures)
}
