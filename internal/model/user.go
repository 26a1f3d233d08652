// Package model はドメインモデルを定義する。
package model

import "time"

// User は登録済みアカウントを表す。
// Emailは正規化済み（小文字化・前後空白除去）の自然キーであり、全アカウントで一意。
// PasswordHashはbcryptダイジェストで、平文パスワードを保持・送信することはない。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// PublicUser はAPIレスポンスに含めるアカウントの公開ビュー。
// パスワードハッシュ等の内部情報は含まない。
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Public はUserから公開ビューを生成する。
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Email: u.Email,
	}
}
