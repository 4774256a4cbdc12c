// Package router はアプリケーションのHTTPルーティングを定義します。
package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	authhandler "gallery_backend/internal/feature/auth/transport/handler"
	detectionhandler "gallery_backend/internal/feature/detection/transport/handler"
	galleryhandler "gallery_backend/internal/feature/gallery/transport/handler"
	jwtmw "gallery_backend/internal/platform/jwt"
	platformhandler "gallery_backend/internal/platform/http/handler"
)

func NewRouter(gallery *galleryhandler.GalleryHandler, detection *detectionhandler.DetectionHandler,
	auth *authhandler.AuthHandler) *gin.Engine {
	r := gin.Default()

	// ブラウザのギャラリーページから直接APIを叩けるようにする
	r.Use(cors.Default())

	// 認証不要
	// 導通確認用
	r.GET("/healthz", platformhandler.Health)
	// サーバーサイドレンダリングのギャラリーページ
	r.GET("/", gallery.GalleryPage)
	// 新規ユーザー登録
	r.POST("/signup", auth.Signup)
	// ログイン（JWT 発行）
	r.POST("/login", auth.Login)

	// 公開API（閲覧系）
	v1 := r.Group("/v1")
	{
		v1.GET("/photos", gallery.ListPhotos)
		v1.GET("/photos/:id", gallery.GetPhoto)
		v1.GET("/logos", gallery.ListLogos)
		v1.GET("/logos/:slug/photos", gallery.ListPhotosByLogo)
	}

	// 認証必須のルート（外部APIを呼び出すため）
	protected := v1.Group("")
	protected.Use(jwtmw.AuthRequired())
	{
		protected.POST("/detect", detection.DetectLogos)
		protected.POST("/brands/analyze", detection.AnalyzeBrand)
	}

	return r
}
