// Package entity はauthフィーチャーのドメインモデルを定義します。
package entity

import "time"

// User は登録済みユーザーを表します。
type User struct {
	// ID はユーザーの一意な識別子（UUID）です。
	ID string

	// Email は認証に使用するメールアドレスです。全ユーザー間で一意です。
	Email string

	// Password はハッシュ化済みパスワードです。平文は保存しません。
	Password string

	// CreatedAt はユーザーの作成日時です。
	CreatedAt time.Time
}
