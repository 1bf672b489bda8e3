package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// Store 用户输入凭证的本地持久化
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

type storedCredential struct {
	APIKey  string    `json:"api_key"`
	SavedAt time.Time `json:"saved_at"`
}

// FileStore 基于 afero 的 JSON 文件存储
type FileStore struct {
	fs   afero.Fs
	path string
}

// NewFileStore 创建文件存储
func NewFileStore(fs afero.Fs, path string) *FileStore {
	return &FileStore{fs: fs, path: path}
}

// Load 读取已保存的凭证，文件不存在时返回空串
func (s *FileStore) Load(_ context.Context) (string, error) {
	b, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read credential file: %w", err)
	}

	var sc storedCredential
	if err := json.Unmarshal(b, &sc); err != nil {
		return "", fmt.Errorf("decode credential file: %w", err)
	}
	return sc.APIKey, nil
}

// Save 覆盖写入凭证
func (s *FileStore) Save(_ context.Context, key string) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create credential dir: %w", err)
		}
	}

	b, err := json.Marshal(storedCredential{APIKey: key, SavedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	// 先写临时文件再改名
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, b, 0o600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename credential file: %w", err)
	}
	return nil
}

// Clear 删除已保存的凭证
func (s *FileStore) Clear(_ context.Context) error {
	if err := s.fs.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}
