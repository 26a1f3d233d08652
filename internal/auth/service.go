// Package auth はアカウント登録・ログイン・セッショントークンの発行と検証を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kodflix/kodflix/internal/model"
	"github.com/kodflix/kodflix/internal/repository"
)

// DefaultMinPasswordLength はパスワードの最小文字数のデフォルト値。
const DefaultMinPasswordLength = 6

// MetricsRecorder は認証処理のメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。
type MetricsRecorder interface {
	RecordRegistration()
	RecordLogin()
	RecordAuthFailure(reason string)
	RecordLoginLatency(duration time.Duration)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	MinPasswordLength int // パスワードの最小文字数
}

// Service は認証に関するビジネスロジックを提供する。
// 登録とログインの2操作のみがトークンを発行する。
// 既存アカウントのパスワードを変更する操作は持たない
// （パスワードリセットはスコープ外）。
type Service struct {
	userRepo repository.UserRepository
	hasher   *PasswordHasher
	tokens   *TokenIssuer
	metrics  MetricsRecorder
	config   ServiceConfig
}

// NewService はServiceを生成する。metricsはnilを許容する。
func NewService(
	userRepo repository.UserRepository,
	hasher *PasswordHasher,
	tokens *TokenIssuer,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	if config.MinPasswordLength <= 0 {
		config.MinPasswordLength = DefaultMinPasswordLength
	}
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		metrics:  metrics,
		config:   config,
	}
}

// Register は新規アカウントを作成し、セッショントークンを発行する。
// 処理順序: 入力検証 → 重複チェック → ハッシュ化 → 永続化 → トークン発行。
// 重複チェックとCreateの間のレースはストレージ層の一意性保証で解決され、
// Createが重複を報告した場合もDuplicateAccountとして返す。
func (s *Service) Register(ctx context.Context, email, password string) (*model.User, string, error) {
	email = normalizeEmail(email)

	if email == "" || password == "" {
		s.recordFailure("missing_field")
		return nil, "", model.NewMissingFieldError()
	}
	// バイト数ではなく文字数で判定する（マルチバイトパスワード対策）
	if utf8.RuneCountInString(password) < s.config.MinPasswordLength {
		s.recordFailure("weak_password")
		return nil, "", model.NewWeakPasswordError(s.config.MinPasswordLength)
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check for existing account: %w", err)
	}
	if existing != nil {
		s.recordFailure("duplicate_account")
		return nil, "", model.NewDuplicateAccountError()
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, email, hash)
	if err != nil {
		// 重複チェック後に他のリクエストが同じメールで登録を完了した場合。
		if err == repository.ErrDuplicateEmail {
			s.recordFailure("duplicate_account")
			return nil, "", model.NewDuplicateAccountError()
		}
		return nil, "", fmt.Errorf("failed to create account: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordRegistration()
	}
	slog.Info("account registered",
		slog.String("user_id", user.ID),
	)

	return user, token, nil
}

// Login は認証情報を検証し、セッショントークンを発行する。
// 処理順序: 入力検証 → アカウント検索 → パスワード照合 → トークン発行。
// アカウント未登録とパスワード不一致は同一のInvalidCredentialsを返し、
// メールアドレスの登録有無を外部から判別できないようにする。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	start := time.Now()

	email = normalizeEmail(email)

	if email == "" || password == "" {
		s.recordFailure("missing_field")
		return nil, "", model.NewMissingFieldError()
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find account: %w", err)
	}
	if user == nil {
		s.recordFailure("invalid_credentials")
		return nil, "", model.NewInvalidCredentialsError()
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.recordFailure("invalid_credentials")
		return nil, "", model.NewInvalidCredentialsError()
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordLogin()
		s.metrics.RecordLoginLatency(time.Since(start))
	}
	slog.Info("user logged in",
		slog.String("user_id", user.ID),
	)

	return user, token, nil
}

// GetCurrentUser は認証済みアカウントIDからアカウントを取得する。
// アカウントが解決できない場合はUnknownAccountを返す。
func (s *Service) GetCurrentUser(ctx context.Context, accountID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by ID: %w", err)
	}
	if user == nil {
		return nil, model.NewUnknownAccountError()
	}
	return user, nil
}

// recordFailure は認証失敗をメトリクスに記録する。
func (s *Service) recordFailure(reason string) {
	if s.metrics != nil {
		s.metrics.RecordAuthFailure(reason)
	}
}

// normalizeEmail はメールアドレスを正規化する（前後空白除去・小文字化）。
// 正規化はサービス層の入口で一度だけ行い、リポジトリには正規化済みの値を渡す。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
