package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost はbcryptのデフォルトコストパラメータ。
// オフライン総当たりへの耐性と対話的ログインのレイテンシ
// （コモディティハードウェアで数十〜数百ミリ秒）のバランスを取った値。
const DefaultBcryptCost = 12

// PasswordHasher はソルト付き適応コストのパスワードハッシュ化を提供する。
// 同じ平文でも呼び出しごとに異なるダイジェストを生成するため、
// ダイジェスト同士は等値比較できず、Verifyでのみ照合できる。
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher はPasswordHasherを生成する。
// costがbcryptの有効範囲外の場合はDefaultBcryptCostを使用する。
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash は平文パスワードからソルト付きダイジェストを生成する。
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify は平文パスワードをダイジェストと照合する。
// ダイジェスト内のソルトを使って再計算し、定数時間で比較する。
// 不正な形式のダイジェストに対してはpanicせずfalseを返す。
func (h *PasswordHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
