// Package dynamo はDynamoDBクライアントの生成と設定を提供します。
package dynamo

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DefaultTableName はギャラリーテーブルのデフォルト名です。
const DefaultTableName = "gallery"

// Config holds configuration for the DynamoDB table.
type Config struct {
	TableName string // ワイドテーブルの名前
	Endpoint  string // ローカル開発用のエンドポイント上書き（任意）
}

// LoadConfig loads DynamoDB configuration from environment variables.
func LoadConfig() Config {
	cfg := Config{
		TableName: os.Getenv("GALLERY_TABLE"),
		Endpoint:  os.Getenv("DYNAMODB_ENDPOINT"),
	}
	if cfg.TableName == "" {
		cfg.TableName = DefaultTableName
	}
	return cfg
}

// NewClient はデフォルトのAWS認証情報チェーンで新しいDynamoDBクライアントを生成します。
func NewClient(ctx context.Context, cfg Config) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}
