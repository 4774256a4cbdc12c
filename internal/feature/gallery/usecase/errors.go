// Package usecase はgalleryフィーチャーのビジネスロジックを実装します。
package usecase

import "errors"

// ErrPhotoNotFound is returned when a photo cannot be found by ID.
var ErrPhotoNotFound = errors.New("photo not found")
