package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kodflix/kodflix/internal/model"
)

// fileUser はJSONファイルに保存するアカウントレコードの形式。
type fileUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// FileUserRepo はJSONファイルを使用したアカウントリポジトリ。
// DBを用意できない開発環境・単一プロセス運用向けの永続化バックエンド。
// 全操作をmutexで直列化するため、重複チェックと挿入は1つのクリティカル
// セクション内で完結し、同時Createでも成功するのは1件のみ。
type FileUserRepo struct {
	path string

	mu      sync.RWMutex
	byEmail map[string]*model.User
	byID    map[string]*model.User
}

// NewFileUserRepo はFileUserRepoを生成する。
// ファイルが存在する場合は既存レコードを読み込む。
func NewFileUserRepo(path string) (*FileUserRepo, error) {
	if path == "" {
		return nil, fmt.Errorf("user store file path is required")
	}

	r := &FileUserRepo{
		path:    path,
		byEmail: make(map[string]*model.User),
		byID:    make(map[string]*model.User),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// FindByEmail は正規化済みメールアドレスでアカウントを取得する。見つからない場合はnilを返す。
func (r *FileUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
func (r *FileUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

// Create は新しいアカウントを作成してファイルに永続化する。
// 同一メールアドレスが既に存在する場合はErrDuplicateEmailを返す。
// 永続化に失敗した場合はメモリ上の状態を巻き戻し、部分的な作成を残さない。
func (r *FileUserRepo) Create(_ context.Context, email, passwordHash string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return nil, ErrDuplicateEmail
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	r.byEmail[email] = user
	r.byID[user.ID] = user

	if err := r.persistLocked(); err != nil {
		delete(r.byEmail, email)
		delete(r.byID, user.ID)
		return nil, err
	}

	copied := *user
	return &copied, nil
}

// load はファイルから既存レコードを読み込む。ファイル未作成は空として扱う。
func (r *FileUserRepo) load() error {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read user store file: %w", err)
	}
	if len(b) == 0 {
		return nil
	}

	var decoded []fileUser
	if err := json.Unmarshal(b, &decoded); err != nil {
		return fmt.Errorf("failed to decode user store file: %w", err)
	}

	for _, fu := range decoded {
		if fu.ID == "" || fu.Email == "" {
			continue
		}
		user := &model.User{
			ID:           fu.ID,
			Email:        fu.Email,
			PasswordHash: fu.PasswordHash,
			CreatedAt:    fu.CreatedAt,
		}
		r.byEmail[user.Email] = user
		r.byID[user.ID] = user
	}
	return nil
}

// persistLocked は全レコードをファイルに書き出す。mu保持中に呼び出すこと。
// 一時ファイルへの書き込みとrenameにより、書き込み途中のファイルが残らないようにする。
func (r *FileUserRepo) persistLocked() error {
	out := make([]fileUser, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, fileUser{
			ID:           u.ID,
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			CreatedAt:    u.CreatedAt,
		})
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode user store file: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create user store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "users-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp user store file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write user store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close user store file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace user store file: %w", err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*FileUserRepo)(nil)
