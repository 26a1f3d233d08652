package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kodflix/kodflix/internal/auth"
	"github.com/kodflix/kodflix/internal/middleware"
	"github.com/kodflix/kodflix/internal/repository"
)

// newTestServer は実際のサービス・ファイルストア・トークン発行器を組み合わせた
// テストサーバーを構築する
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo, err := repository.NewFileUserRepo(filepath.Join(t.TempDir(), "users.json"))
	if err != nil {
		t.Fatalf("NewFileUserRepo() error: %v", err)
	}

	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewTokenIssuer([]byte("integration-test-secret"), time.Hour)
	service := auth.NewService(repo, hasher, tokens, nil, auth.ServiceConfig{})

	router := NewRouter(&RouterDeps{
		TokenVerifier:     tokens,
		AccountFinder:     repo,
		CORSAllowedOrigin: "http://localhost:3000",
		RequestTimeout:    5 * time.Second,
		AuthService:       service,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s error: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeSession(t *testing.T, resp *http.Response) sessionResponse {
	t.Helper()
	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("failed to decode session response: %v", err)
	}
	return session
}

// 登録→ログイン→/meの一連のフローを検証
func TestRouter_AuthFlow(t *testing.T) {
	server := newTestServer(t)

	// 1. 登録
	resp := postJSON(t, server.URL+"/api/auth/register", `{"email":"user@test.com","password":"secret1"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	registered := decodeSession(t, resp)
	if registered.Token == "" || registered.User.ID == "" {
		t.Fatalf("register: incomplete session %+v", registered)
	}
	if registered.User.Email != "user@test.com" {
		t.Errorf("register: email = %q", registered.User.Email)
	}

	// 2. メールアドレスは大文字小文字を区別せずログインできる
	resp = postJSON(t, server.URL+"/api/auth/login", `{"email":"USER@test.com","password":"secret1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	loggedIn := decodeSession(t, resp)
	if loggedIn.User.ID != registered.User.ID {
		t.Errorf("login: user ID = %q, want %q", loggedIn.User.ID, registered.User.ID)
	}

	// 3. 発行されたトークンで/meにアクセスできる
	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/auth/me", nil)
	if err != nil {
		t.Fatalf("NewRequest() error: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+loggedIn.Token)

	meResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/auth/me error: %v", err)
	}
	defer meResp.Body.Close()

	if meResp.StatusCode != http.StatusOK {
		t.Fatalf("/me: status = %d, want %d", meResp.StatusCode, http.StatusOK)
	}
	var me meResponse
	if err := json.NewDecoder(meResp.Body).Decode(&me); err != nil {
		t.Fatalf("failed to decode /me response: %v", err)
	}
	if me.User.ID != registered.User.ID || me.User.Email != "user@test.com" {
		t.Errorf("/me: user = %+v", me.User)
	}
}

// 誤ったパスワードでのログインが401で拒否されることを検証
func TestRouter_Login_WrongPassword(t *testing.T) {
	server := newTestServer(t)

	postJSON(t, server.URL+"/api/auth/register", `{"email":"user@test.com","password":"secret1"}`)

	resp := postJSON(t, server.URL+"/api/auth/login", `{"email":"user@test.com","password":"wrong-password"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body.Code != "INVALID_CREDENTIALS" {
		t.Errorf("code = %q, want INVALID_CREDENTIALS", body.Code)
	}
}

// 同一メールアドレスの再登録が409で拒否されることを検証
func TestRouter_Register_Duplicate(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/auth/register", `{"email":"user@test.com","password":"secret1"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first register: status = %d", resp.StatusCode)
	}

	resp = postJSON(t, server.URL+"/api/auth/register", `{"email":"USER@TEST.COM","password":"another1"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second register: status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

// トークンなしの/meアクセスが401で拒否されることを検証
func TestRouter_Me_Unauthenticated(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/auth/me")
	if err != nil {
		t.Fatalf("GET /api/auth/me error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body.Code != "MISSING_TOKEN" {
		t.Errorf("code = %q, want MISSING_TOKEN", body.Code)
	}
}

// ヘルスチェックが200と稼働メッセージを返すことを検証
func TestRouter_Health(t *testing.T) {
	server := newTestServer(t)

	for _, path := range []string{"/health", "/api/health"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("GET %s error: %v", path, err)
		}

		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: status = %d, want %d", path, resp.StatusCode, http.StatusOK)
		}

		var body map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("%s: failed to decode body: %v", path, err)
		}
		resp.Body.Close()

		if body["status"] != "ok" {
			t.Errorf("%s: status field = %q", path, body["status"])
		}
		if body["message"] != "KODFLIX API is running" {
			t.Errorf("%s: message field = %q", path, body["message"])
		}
	}
}

// セキュリティヘッダーが全レスポンスに付与されることを検証
func TestRouter_SecurityHeaders(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health error: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}
