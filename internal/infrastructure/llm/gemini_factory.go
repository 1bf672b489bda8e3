// Package llm 提供 Gemini 生成服务适配
package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"

	"google.golang.org/genai"

	"psst-builder-api/internal/config"
	"psst-builder-api/internal/workflow/port"
)

const providerName = "gemini"

// 凭证轮换后旧客户端不再使用，超过上限时整体清空
const maxCachedClients = 8

// GeminiFactory 按凭证管理 genai 客户端实例
type GeminiFactory struct {
	config  *config.GeminiConfig
	clients map[string]*genai.Client
	mu      sync.RWMutex

	// newClient 可在测试中替换
	newClient func(ctx context.Context, cc *genai.ClientConfig) (*genai.Client, error)
}

// NewGeminiFactory 创建 Gemini 客户端工厂
func NewGeminiFactory(cfg *config.Config) *GeminiFactory {
	return &GeminiFactory{
		config:    &cfg.LLM.Gemini,
		clients:   make(map[string]*genai.Client),
		newClient: genai.NewClient,
	}
}

// Client 返回当前周期凭证对应的客户端，凭证从 context 读取
func (f *GeminiFactory) Client(ctx context.Context) (*genai.Client, error) {
	key, ok := port.APIKeyFromContext(ctx)
	if !ok {
		return nil, port.ErrCredentialUnavailable
	}
	id := fingerprint(key)

	f.mu.RLock()
	c, ok := f.clients[id]
	f.mu.RUnlock()
	if ok {
		return c, nil
	}

	// 惰性创建
	f.mu.Lock()
	defer f.mu.Unlock()

	// 再次检查防止竞态
	if c, ok = f.clients[id]; ok {
		return c, nil
	}

	c, err := f.newClient(ctx, &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if len(f.clients) >= maxCachedClients {
		f.clients = make(map[string]*genai.Client)
	}
	f.clients[id] = c
	return c, nil
}

// fingerprint 避免在内存 map 中以明文凭证为键
func fingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}
