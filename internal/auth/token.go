package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL はセッショントークンのデフォルト有効期間（7日）。
const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	// ErrInvalidToken は署名不正・構造不正なトークンに対して返される。
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken は署名は正しいが有効期限を過ぎたトークンに対して返される。
	ErrExpiredToken = errors.New("token expired")
)

// sessionClaims はセッショントークンのクレーム構造。
// 標準クレームに加えてアカウントIDを含む。
type sessionClaims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
}

// TokenIssuer は署名付き・期限付きのステートレスなセッショントークンを
// 発行・検証する。署名シークレットは構築時に注入され、以後変更されない。
// トークンはサーバー側に保存されず、失効リストも持たない。
// 有効期限切れがライフサイクルの唯一の終端となる。
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration

	// now は発行時刻の取得に使用する。テストで差し替えられるようにする。
	now func() time.Time
}

// NewTokenIssuer はTokenIssuerを生成する。
// ttlがゼロ以下の場合はDefaultTokenTTLを使用する。
func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

// Issue は指定アカウントIDを埋め込んだ署名付きトークンを発行する。
// 有効期限は発行時刻 + TTLの絶対時刻。
func (i *TokenIssuer) Issue(accountID string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		AccountID: accountID,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証し、埋め込まれたアカウントIDを返す。
// 期限切れはErrExpiredToken、それ以外の検証失敗はErrInvalidTokenを返す。
// 署名アルゴリズムはHS256のみ受け付ける。
func (i *TokenIssuer) Verify(tokenString string) (string, error) {
	claims := &sessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	if !token.Valid || claims.AccountID == "" {
		return "", ErrInvalidToken
	}

	return claims.AccountID, nil
}
