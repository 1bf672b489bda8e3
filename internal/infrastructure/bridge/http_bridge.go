// Package bridge 通过 HTTP 访问宿主环境的凭证选择能力
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"psst-builder-api/internal/config"
)

const defaultTimeout = 5 * time.Second

// selectionResponse 宿主返回的选择状态
type selectionResponse struct {
	Selected bool   `json:"selected"`
	APIKey   string `json:"api_key,omitempty"`
}

// HTTPBridge 宿主凭证桥接
//
//	GET  {base}/credential           -> {"selected": bool, "api_key": "..."}
//	POST {base}/credential/selector  -> 2xx，打开宿主的凭证选择界面
type HTTPBridge struct {
	baseURL string
	client  *http.Client
}

// NewHTTPBridge 创建桥接；未配置 BaseURL 时返回 nil
func NewHTTPBridge(cfg *config.Config) *HTTPBridge {
	bc := cfg.Credential.Bridge
	if strings.TrimSpace(bc.BaseURL) == "" {
		return nil
	}
	timeout := bc.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPBridge{
		baseURL: strings.TrimRight(bc.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// HasSelectedCredential 宿主中是否已选择凭证
func (b *HTTPBridge) HasSelectedCredential(ctx context.Context) (bool, error) {
	sel, err := b.selection(ctx)
	if err != nil {
		return false, err
	}
	return sel.Selected, nil
}

// SelectedCredential 返回宿主当前选中的凭证值
func (b *HTTPBridge) SelectedCredential(ctx context.Context) (string, error) {
	sel, err := b.selection(ctx)
	if err != nil {
		return "", err
	}
	if !sel.Selected {
		return "", nil
	}
	return sel.APIKey, nil
}

// OpenCredentialSelector 请求宿主打开凭证选择界面
func (b *HTTPBridge) OpenCredentialSelector(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/credential/selector", nil)
	if err != nil {
		return err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("open credential selector: %w", err)
	}
	defer drain(resp)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("open credential selector: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (b *HTTPBridge) selection(ctx context.Context) (*selectionResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/credential", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query credential selection: %w", err)
	}
	defer drain(resp)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("query credential selection: unexpected status %d", resp.StatusCode)
	}

	var sel selectionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&sel); err != nil {
		return nil, fmt.Errorf("decode credential selection: %w", err)
	}
	return &sel, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
