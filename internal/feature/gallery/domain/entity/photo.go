// Package entity はgalleryフィーチャーのドメインモデルを定義します。
package entity

import "time"

// Photo はオブジェクトストレージに保存された写真を表します。
type Photo struct {
	ID         string    // 写真の識別子（ストレージキーから決定的に導出）
	StorageKey string    // オブジェクトストレージ上のキー
	PublicURL  string    // 公開URL（バケットが公開されている場合のみ）
	CreatedAt  time.Time // 初回取り込み日時
	UpdatedAt  time.Time // 最終取り込み日時
}
