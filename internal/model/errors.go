// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeMissingField       = "MISSING_FIELD"
	ErrCodeWeakPassword       = "WEAK_PASSWORD"
	ErrCodeDuplicateAccount   = "DUPLICATE_ACCOUNT"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeMissingToken       = "MISSING_TOKEN"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeExpiredToken       = "EXPIRED_TOKEN"
	ErrCodeUnknownAccount     = "UNKNOWN_ACCOUNT"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewMissingFieldError は必須フィールド未指定エラーを生成する。
func NewMissingFieldError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingField,
		Message:  "Email and password are required",
		Category: "validation",
		Action:   "Enter both your email address and password.",
	}
}

// NewWeakPasswordError はパスワード最小長未満エラーを生成する。
func NewWeakPasswordError(minLength int) *APIError {
	return &APIError{
		Code:     ErrCodeWeakPassword,
		Message:  fmt.Sprintf("Password must be at least %d characters", minLength),
		Category: "validation",
		Action:   "Choose a longer password and try again.",
	}
}

// NewDuplicateAccountError はメールアドレス重複エラーを生成する。
func NewDuplicateAccountError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateAccount,
		Message:  "An account with this email already exists",
		Category: "validation",
		Action:   "Log in instead, or use a different email address.",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// メールアドレス未登録とパスワード不一致を区別できない同一メッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid email or password",
		Category: "auth",
		Action:   "Check your email address and password, then try again.",
	}
}

// NewMissingTokenError はAuthorizationヘッダー欠落エラーを生成する。
func NewMissingTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingToken,
		Message:  "Not authorized, no token",
		Category: "auth",
		Action:   "Log in and retry with a valid session token.",
	}
}

// NewInvalidTokenError はトークン署名不正・構造不正エラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "Not authorized, invalid token",
		Category: "auth",
		Action:   "Log in again to obtain a new session token.",
	}
}

// NewExpiredTokenError はトークン期限切れエラーを生成する。
func NewExpiredTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeExpiredToken,
		Message:  "Not authorized, token expired",
		Category: "auth",
		Action:   "Log in again to obtain a new session token.",
	}
}

// NewUnknownAccountError はトークン内のアカウントIDが解決できない場合のエラーを生成する。
func NewUnknownAccountError() *APIError {
	return &APIError{
		Code:     ErrCodeUnknownAccount,
		Message:  "Not authorized, user not found",
		Category: "auth",
		Action:   "Log in again or create a new account.",
	}
}

// NewInternalError は内部エラーの汎用レスポンスを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Server error",
		Category: "system",
		Action:   "Please wait a moment and try again.",
	}
}
