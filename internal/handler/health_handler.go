package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// Pinger はヘルスチェックに必要なインターフェース。
// *sql.DBがそのまま満たす。ファイルストア構成ではnilを渡す。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler はヘルスチェックのHTTPハンドラー。
type HealthHandler struct {
	pinger Pinger
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(pinger Pinger) *HealthHandler {
	return &HealthHandler{pinger: pinger}
}

// Health はサービスの稼働状態を返す。
// GET /health（および後方互換のため GET /api/health）
// 永続化バックエンドがDBの場合は到達性も確認する。
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.PingContext(r.Context()); err != nil {
			slog.Error("health check failed",
				slog.String("error", err.Error()),
			)
			writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
			})
			return
		}
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "KODFLIX API is running",
	})
}
