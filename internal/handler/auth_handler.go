// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kodflix/kodflix/internal/middleware"
	"github.com/kodflix/kodflix/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, email, password string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	GetCurrentUser(ctx context.Context, accountID string) (*model.User, error)
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// credentialsRequest は登録・ログインのリクエストボディ。
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse は登録・ログイン成功時のレスポンスボディ。
type sessionResponse struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

// meResponse はGET /api/auth/meのレスポンスボディ。
type meResponse struct {
	User model.PublicUser `json:"user"`
}

// Register は新規アカウントを作成しセッショントークンを返す。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError())
		return
	}

	user, token, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, sessionResponse{
		Token: token,
		User:  user.Public(),
	})
}

// Login は認証情報を検証しセッショントークンを返す。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError())
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, sessionResponse{
		Token: token,
		User:  user.Public(),
	})
}

// Me は現在のログインユーザー情報を返す。
// GET /api/auth/me（認証ミドルウェアの内側に配置）
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewMissingTokenError())
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), identity.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, meResponse{User: user.Public()})
}

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// APIError以外のエラー（ストア到達不能・ハッシュ化失敗等）は詳細をログにのみ
// 記録し、一般的な内部エラーとして返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeMissingField, model.ErrCodeWeakPassword:
		return http.StatusBadRequest
	case model.ErrCodeDuplicateAccount:
		return http.StatusConflict
	case model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeMissingToken, model.ErrCodeInvalidToken,
		model.ErrCodeExpiredToken, model.ErrCodeUnknownAccount:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
