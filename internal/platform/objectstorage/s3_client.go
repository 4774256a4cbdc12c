// Package objectstorage はS3クライアントの生成と設定を提供します。
package objectstorage

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds configuration for the photo bucket.
type Config struct {
	Bucket        string // 写真が保存されているバケット名
	Prefix        string // 取り込み対象のキープレフィックス（任意）
	PublicBaseURL string // 公開URLのベース（任意、CloudFront等）
	Endpoint      string // ローカル開発用のエンドポイント上書き（任意）
}

// LoadConfig loads object storage configuration from environment variables.
func LoadConfig() (Config, error) {
	cfg := Config{
		Bucket:        os.Getenv("PHOTO_BUCKET"),
		Prefix:        os.Getenv("PHOTO_PREFIX"),
		PublicBaseURL: os.Getenv("PHOTO_PUBLIC_BASE_URL"),
		Endpoint:      os.Getenv("S3_ENDPOINT"),
	}
	if cfg.Bucket == "" {
		return Config{}, fmt.Errorf("PHOTO_BUCKET is required")
	}
	return cfg, nil
}

// NewClient はデフォルトのAWS認証情報チェーンで新しいS3クライアントを生成します。
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
