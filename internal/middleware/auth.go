// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kodflix/kodflix/internal/auth"
	"github.com/kodflix/kodflix/internal/model"
	"github.com/kodflix/kodflix/internal/repository"
)

// Identity は認証済みリクエストに付与されるアカウント情報。
type Identity struct {
	ID    string
	Email string
}

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに認証済みIdentityを格納するためのキー。
var identityContextKey = contextKey("identity")

// TokenVerifier はトークン検証に必要なインターフェース。
// auth.TokenIssuerの部分集合として定義する。
type TokenVerifier interface {
	Verify(tokenString string) (string, error)
}

// AccountFinder はトークン内アカウントIDの解決に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type AccountFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 解決したIdentityをリクエストコンテキストに注入するミドルウェアを返す。
// 処理順序: ヘッダー抽出 → トークン検証 → アカウント解決 → 注入。
// いずれかの段階で失敗した場合は後続処理を実行せず、一様に401で拒否する。
func NewAuthMiddleware(verifier TokenVerifier, accounts AccountFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Bearerトークンの抽出
			token, ok := extractBearer(r)
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingTokenError())
				return
			}

			// 2. トークンの検証
			accountID, err := verifier.Verify(token)
			if err != nil {
				if errors.Is(err, auth.ErrExpiredToken) {
					WriteErrorResponse(w, http.StatusUnauthorized, model.NewExpiredTokenError())
					return
				}
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
				return
			}

			// 3. アカウントの解決
			// トークンが有効でもアカウントが消えている可能性があるため防御的に確認する。
			user, err := accounts.FindByID(r.Context(), accountID)
			if err != nil {
				slog.Error("failed to resolve account",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if user == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnknownAccountError())
				return
			}

			// 4. 認証済みIdentityをコンテキストに注入
			ctx := context.WithValue(r.Context(), identityContextKey, Identity{
				ID:    user.ID,
				Email: user.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext はリクエストコンテキストから認証済みIdentityを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (Identity, error) {
	identity, ok := ctx.Value(identityContextKey).(Identity)
	if !ok || identity.ID == "" {
		return Identity{}, fmt.Errorf("identity not found in context")
	}
	return identity, nil
}

// ContextWithIdentity はコンテキストにIdentityを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// extractBearer はAuthorizationヘッダーからBearerトークンを取り出す。
// ヘッダーが存在しないか、`Bearer <token>`の形式でない場合はfalseを返す。
func extractBearer(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

// compile-time interface checks
var _ TokenVerifier = (*auth.TokenIssuer)(nil)
var _ AccountFinder = (repository.UserRepository)(nil)
