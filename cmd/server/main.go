package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"gallery_backend/internal/app/router"
	authdynamo "gallery_backend/internal/feature/auth/adapters/dynamo"
	authhandler "gallery_backend/internal/feature/auth/transport/handler"
	authusecase "gallery_backend/internal/feature/auth/usecase"
	"gallery_backend/internal/feature/detection/adapters/gemini"
	"gallery_backend/internal/feature/detection/adapters/vision"
	detectionhandler "gallery_backend/internal/feature/detection/transport/handler"
	detectionusecase "gallery_backend/internal/feature/detection/usecase"
	gallerydynamo "gallery_backend/internal/feature/gallery/adapters/dynamo"
	galleryhandler "gallery_backend/internal/feature/gallery/transport/handler"
	galleryusecase "gallery_backend/internal/feature/gallery/usecase"
	"gallery_backend/internal/platform/cache"
	platformdynamo "gallery_backend/internal/platform/dynamo"
	infraredis "gallery_backend/internal/platform/redis"
	jwtmw "gallery_backend/internal/platform/jwt"
)

func main() {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		log.Println("[INFO] .env not found; using system environment variables")
	}

	ctx := context.Background()

	// DynamoDB
	dynamoCfg := platformdynamo.LoadConfig()
	ddb, err := platformdynamo.NewClient(ctx, dynamoCfg)
	if err != nil {
		log.Fatal("failed to create DynamoDB client:", err)
	}

	// Redis
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(); err != nil {
		log.Println("[WARN] Redis unavailable. Running without cache.")
		rdb = nil
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	}

	// Vision / Gemini クライアント
	detector, err := vision.NewVisionLogoDetector(ctx)
	if err != nil {
		log.Fatal("failed to create vision client:", err)
	}
	defer func() {
		if err := detector.Close(); err != nil {
			log.Println("[ERROR] Failed to close vision client:", err)
		}
	}()

	analyzer, err := gemini.NewGeminiAnalyzer(ctx)
	if err != nil {
		log.Fatal("failed to create gemini client:", err)
	}

	// Repository
	galleryRepo := gallerydynamo.NewGalleryRepository(ddb, dynamoCfg.TableName)
	userRepo := authdynamo.NewUserRepository(ddb, dynamoCfg.TableName)

	// Redisキャッシュでラップ
	ttl := cache.TimeUntilNextIngest()
	cachedGalleryRepo := cache.NewCachingGalleryRepository(rdb, ttl, galleryRepo, "gallery")

	// Usecase
	jwtGen := jwtmw.NewGenerator(os.Getenv(jwtmw.EnvKeyJWTSecret), jwtmw.DefaultTokenTTL)
	authUC := authusecase.NewAuthUsecase(userRepo, jwtGen)
	galleryUC := galleryusecase.NewGalleryUsecase(cachedGalleryRepo)
	detectionUC := detectionusecase.NewDetectionUsecase(detector, analyzer)

	// Handler
	authH := authhandler.NewAuthHandler(authUC)
	galleryH := galleryhandler.NewGalleryHandler(galleryUC)
	detectionH := detectionhandler.NewDetectionHandler(detectionUC)

	// ルータ生成
	r := router.NewRouter(galleryH, detectionH, authH)
	r.LoadHTMLGlob("templates/*.html")

	// JWT_SECRETチェック（開発中の注意喚起）
	if os.Getenv(jwtmw.EnvKeyJWTSecret) == "" {
		log.Println("[WARN] JWT_SECRET is not set. Set a strong secret in production.")
	}

	if err := r.Run(":8080"); err != nil {
		log.Fatal(err)
	}
}
