package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kodflix/kodflix/internal/middleware"
	"github.com/kodflix/kodflix/internal/model"
)

// mockAuthService はテスト用のAuthServiceInterface実装
type mockAuthService struct {
	registerFn       func(ctx context.Context, email, password string) (*model.User, string, error)
	loginFn          func(ctx context.Context, email, password string) (*model.User, string, error)
	getCurrentUserFn func(ctx context.Context, accountID string) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, email, password string) (*model.User, string, error) {
	return m.registerFn(ctx, email, password)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	return m.loginFn(ctx, email, password)
}

func (m *mockAuthService) GetCurrentUser(ctx context.Context, accountID string) (*model.User, error) {
	return m.getCurrentUserFn(ctx, accountID)
}

var _ AuthServiceInterface = (*mockAuthService)(nil)

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body.Code
}

// 登録成功で201とトークン・公開ユーザー情報が返ることを検証
func TestAuthHandler_Register(t *testing.T) {
	service := &mockAuthService{
		registerFn: func(ctx context.Context, email, password string) (*model.User, string, error) {
			if email != "user@test.com" || password != "secret1" {
				t.Errorf("Register() received (%q, %q)", email, password)
			}
			return &model.User{ID: "user-1", Email: "user@test.com", PasswordHash: "hash"}, "token-1", nil
		},
	}
	h := NewAuthHandler(service)

	body := bytes.NewBufferString(`{"email":"user@test.com","password":"secret1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	raw := rec.Body.String()

	var resp sessionResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Token != "token-1" {
		t.Errorf("token = %q", resp.Token)
	}
	if resp.User.ID != "user-1" || resp.User.Email != "user@test.com" {
		t.Errorf("user = %+v", resp.User)
	}
	// パスワードハッシュがレスポンスに漏れていないこと
	if strings.Contains(raw, "hash") {
		t.Error("response must not contain the password hash")
	}
}

// 不正なJSONボディが400 MISSING_FIELDで拒否されることを検証
func TestAuthHandler_Register_MalformedBody(t *testing.T) {
	service := &mockAuthService{
		registerFn: func(ctx context.Context, email, password string) (*model.User, string, error) {
			t.Error("Register should not be called for a malformed body")
			return nil, "", nil
		},
	}
	h := NewAuthHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if code := decodeErrorCode(t, rec); code != "MISSING_FIELD" {
		t.Errorf("code = %q, want MISSING_FIELD", code)
	}
}

// サービス層のAPIErrorがHTTPステータスコードにマッピングされることを検証
func TestAuthHandler_Register_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "フィールド欠落は400",
			serviceErr: model.NewMissingFieldError(),
			wantStatus: http.StatusBadRequest,
			wantCode:   "MISSING_FIELD",
		},
		{
			name:       "弱いパスワードは400",
			serviceErr: model.NewWeakPasswordError(6),
			wantStatus: http.StatusBadRequest,
			wantCode:   "WEAK_PASSWORD",
		},
		{
			name:       "重複アカウントは409",
			serviceErr: model.NewDuplicateAccountError(),
			wantStatus: http.StatusConflict,
			wantCode:   "DUPLICATE_ACCOUNT",
		},
		{
			name:       "APIError以外は500",
			serviceErr: errors.New("store unavailable"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockAuthService{
				registerFn: func(ctx context.Context, email, password string) (*model.User, string, error) {
					return nil, "", tt.serviceErr
				},
			}
			h := NewAuthHandler(service)

			body := bytes.NewBufferString(`{"email":"user@test.com","password":"secret1"}`)
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
			rec := httptest.NewRecorder()
			h.Register(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if code := decodeErrorCode(t, rec); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

// ログイン成功で200とトークンが返ることを検証
func TestAuthHandler_Login(t *testing.T) {
	service := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*model.User, string, error) {
			return &model.User{ID: "user-1", Email: "user@test.com"}, "token-1", nil
		},
	}
	h := NewAuthHandler(service)

	body := bytes.NewBufferString(`{"email":"user@test.com","password":"secret1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Token != "token-1" || resp.User.ID != "user-1" {
		t.Errorf("response = %+v", resp)
	}
}

// 認証失敗が401 INVALID_CREDENTIALSで返ることを検証
func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	service := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*model.User, string, error) {
			return nil, "", model.NewInvalidCredentialsError()
		},
	}
	h := NewAuthHandler(service)

	body := bytes.NewBufferString(`{"email":"user@test.com","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if code := decodeErrorCode(t, rec); code != "INVALID_CREDENTIALS" {
		t.Errorf("code = %q, want INVALID_CREDENTIALS", code)
	}
}

// 認証済みIdentityからユーザー情報を返すことを検証
func TestAuthHandler_Me(t *testing.T) {
	service := &mockAuthService{
		getCurrentUserFn: func(ctx context.Context, accountID string) (*model.User, error) {
			if accountID != "user-1" {
				t.Errorf("GetCurrentUser() received %q", accountID)
			}
			return &model.User{ID: "user-1", Email: "user@test.com"}, nil
		},
	}
	h := NewAuthHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	ctx := middleware.ContextWithIdentity(req.Context(), middleware.Identity{ID: "user-1", Email: "user@test.com"})
	rec := httptest.NewRecorder()
	h.Me(rec, req.WithContext(ctx))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp meResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.User.ID != "user-1" || resp.User.Email != "user@test.com" {
		t.Errorf("user = %+v", resp.User)
	}
}

// Identity未設定のコンテキストでは401を返すことを検証
func TestAuthHandler_Me_NoIdentity(t *testing.T) {
	service := &mockAuthService{
		getCurrentUserFn: func(ctx context.Context, accountID string) (*model.User, error) {
			t.Error("GetCurrentUser should not be called without an identity")
			return nil, nil
		},
	}
	h := NewAuthHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
