// Package s3 はオブジェクトストレージ上の写真を読み取るPhotoStorage実装を提供します。
package s3

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"gallery_backend/internal/feature/gallery/usecase"
)

// imageExtensions は取り込み対象として扱う画像ファイルの拡張子です。
var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// Client はストレージアダプターが使用するS3操作のインターフェースです。
type Client interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// PhotoStorage はS3バケットから写真を読み取るusecase.PhotoStorage実装です。
type PhotoStorage struct {
	client        Client
	bucket        string
	prefix        string
	publicBaseURL string
}

// PhotoStorageがusecase.PhotoStorageを実装していることをコンパイル時に検証します。
var _ usecase.PhotoStorage = (*PhotoStorage)(nil)

// NewPhotoStorage は指定されたクライアントとバケットでPhotoStorageの新しいインスタンスを生成します。
// prefixが空でない場合、そのプレフィックス配下のオブジェクトのみを対象にします。
// publicBaseURLが空でない場合、各オブジェクトの公開URLの組み立てに使用されます。
func NewPhotoStorage(client Client, bucket, prefix, publicBaseURL string) *PhotoStorage {
	return &PhotoStorage{
		client:        client,
		bucket:        bucket,
		prefix:        prefix,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}
}

// ListImageKeys はバケット内の画像オブジェクトのキー一覧をソート順で返します。
// 画像以外の拡張子のオブジェクトはログに出力してスキップします。
func (s *PhotoStorage) ListImageKeys(ctx context.Context) ([]string, error) {
	var keys []string

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix)
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list bucket %q: %w", s.bucket, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue // ディレクトリマーカー
			}
			if _, ok := imageExtensions[strings.ToLower(path.Ext(key))]; !ok {
				slog.Debug("skipping non-image object", "key", key)
				continue
			}
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)
	return keys, nil
}

// GetImage は指定されたキーのオブジェクト本体を取得します。
func (s *PhotoStorage) GetImage(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %q: %w", key, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close object body", "key", key, "error", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %q: %w", key, err)
	}
	return data, nil
}

// PublicURL は指定されたキーの公開URLを返します。
// 公開ベースURLが設定されていない場合、空文字列を返します。
func (s *PhotoStorage) PublicURL(key string) string {
	if s.publicBaseURL == "" {
		return ""
	}
	return s.publicBaseURL + "/" + key
}
