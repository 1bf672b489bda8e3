package prompt

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptPSSTDocumentV1 PromptID = "psst_document_v1"
	PromptVisualAssetsV1 PromptID = "visual_assets_v1"
)

type Registry struct {
	mu     sync.RWMutex
	cache  map[PromptID]einoprompt.ChatTemplate
	images map[PromptID][]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache:  make(map[PromptID]einoprompt.ChatTemplate),
		images: make(map[PromptID][]einoprompt.ChatTemplate),
	}
}

// ChatTemplate 返回 system + user 两段式模板
func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	systemPath, userPath, err := resolvePromptFiles(id)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(userPath)
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	r.cache[id] = tpl
	return tpl, nil
}

// LineTemplates 返回逐行模板列表（每行一条提示词，# 开头为注释）
func (r *Registry) LineTemplates(id PromptID) ([]einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpls, ok := r.images[id]; ok {
		r.mu.RUnlock()
		return tpls, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpls, ok := r.images[id]; ok {
		return tpls, nil
	}

	path, err := resolveLineFile(id)
	if err != nil {
		return nil, err
	}
	text, err := readEmbeddedText(path)
	if err != nil {
		return nil, err
	}

	var tpls []einoprompt.ChatTemplate
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tpls = append(tpls, einoprompt.FromMessages(schema.FString, schema.UserMessage(line)))
	}
	if len(tpls) == 0 {
		return nil, fmt.Errorf("prompt %s has no lines", id)
	}
	r.images[id] = tpls
	return tpls, nil
}

// RenderLines 渲染逐行模板，返回每行的文本
func (r *Registry) RenderLines(ctx context.Context, id PromptID, vars map[string]any) ([]string, error) {
	tpls, err := r.LineTemplates(id)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(tpls))
	for i, tpl := range tpls {
		msgs, err := tpl.Format(ctx, vars)
		if err != nil {
			return nil, fmt.Errorf("render %s line %d: %w", id, i, err)
		}
		if len(msgs) == 0 {
			return nil, fmt.Errorf("render %s line %d: empty output", id, i)
		}
		out = append(out, msgs[0].Content)
	}
	return out, nil
}

func resolvePromptFiles(id PromptID) (systemFile string, userFile string, err error) {
	switch id {
	case PromptPSSTDocumentV1:
		return "templates/psst_document_v1.system.txt", "templates/psst_document_v1.user.txt", nil
	default:
		return "", "", fmt.Errorf("unknown prompt id: %s", id)
	}
}

func resolveLineFile(id PromptID) (string, error) {
	switch id {
	case PromptVisualAssetsV1:
		return "templates/visual_assets_v1.txt", nil
	default:
		return "", fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
