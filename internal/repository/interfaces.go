// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/kodflix/kodflix/internal/model"
)

// ErrDuplicateEmail は正規化済みメールアドレスが既に登録されている場合に返される。
// 重複判定はストレージ層でアトミックに行われる。
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository はアカウントデータの永続化インターフェース。
// アカウントレコードの唯一の書き込み主体であり、
// 正規化済みメール一意性の不変条件をストレージ層で保証する。
type UserRepository interface {
	// FindByEmail は正規化済みメールアドレスでアカウントを取得する。
	// 見つからない場合はnilを返す。呼び出し側が正規化済みの値を渡すこと。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create は新しいアカウントを作成して返す。
	// IDの割り当てとCreatedAtの設定はリポジトリが行う。
	// 同一メールアドレスのアカウントが既に存在する場合はErrDuplicateEmailを返す。
	// 同時実行されたCreateは必ず一方のみが成功する。
	Create(ctx context.Context, email, passwordHash string) (*model.User, error)
}
