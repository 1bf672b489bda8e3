package plan

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"psst-builder-api/internal/domain/entity"
	"psst-builder-api/internal/workflow/port"
	workflowprompt "psst-builder-api/internal/workflow/prompt"
	"psst-builder-api/pkg/logger"
)

var defaultPromptRegistry = workflowprompt.NewRegistry()

// PromptPayload 文档生成请求的提示词
type PromptPayload struct {
	SystemInstruction string
	UserText          string
	Attachments       []port.InlineData
}

// BuildDocumentPrompt 渲染文档生成提示词。相同输入得到相同输出，附件原样透传。
func BuildDocumentPrompt(info *entity.CompanyInfo) (PromptPayload, error) {
	if info == nil {
		return PromptPayload{}, fmt.Errorf("company info is nil")
	}

	tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptPSSTDocumentV1)
	if err != nil {
		return PromptPayload{}, err
	}
	msgs, err := tpl.Format(context.Background(), map[string]any{
		"company_name":       info.CompanyName,
		"business_item":      info.BusinessItem,
		"development_status": info.DevelopmentStatus,
		"target_audience":    info.TargetAudience,
		"team_info":          info.TeamInfo,
		"additional_info":    info.AdditionalInfo,
	})
	if err != nil {
		return PromptPayload{}, fmt.Errorf("render document prompt: %w", err)
	}

	payload := PromptPayload{Attachments: toInlineData(info.Attachments)}
	for _, m := range msgs {
		switch m.Role {
		case schema.System:
			payload.SystemInstruction = m.Content
		case schema.User:
			payload.UserText = m.Content
		}
	}
	return payload, nil
}

// BuildImagePrompts 渲染插图提示词：前两条为概念图，后两条为使用场景图
func BuildImagePrompts(info *entity.CompanyInfo) []string {
	if info == nil {
		return nil
	}
	prompts, err := defaultPromptRegistry.RenderLines(context.Background(), workflowprompt.PromptVisualAssetsV1, map[string]any{
		"business_item":   info.BusinessItem,
		"target_audience": info.TargetAudience,
	})
	if err != nil {
		logger.Error(context.Background(), "render image prompts failed", err)
		return nil
	}
	return prompts
}

func toInlineData(atts []entity.Attachment) []port.InlineData {
	if len(atts) == 0 {
		return nil
	}
	out := make([]port.InlineData, len(atts))
	for i, a := range atts {
		out[i] = port.InlineData{Data: a.Data, MIMEType: a.MIMEType}
	}
	return out
}
