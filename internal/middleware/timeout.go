package middleware

import (
	"context"
	"net/http"
	"time"
)

// NewTimeoutMiddleware はリクエスト全体に有効期限付きコンテキストを設定するミドルウェアを返す。
// ストアI/Oとパスワードハッシュを含むリクエスト処理の所要時間を上限で打ち切る。
// 期限超過時はハンドラー内のストア操作がコンテキストエラーで失敗し、
// 一般的なサーバーエラーとして呼び出し元に返る。タイムアウト時に
// 部分的な状態がコミットされることはない。
func NewTimeoutMiddleware(timeout time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
