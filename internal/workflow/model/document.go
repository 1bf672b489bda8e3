package model

import "psst-builder-api/internal/workflow/port"

// DocumentGenerateInput 结构化文档生成输入（提示词已渲染）
type DocumentGenerateInput struct {
	SystemInstruction string
	UserPrompt        string
	Attachments       []port.InlineData

	Model           string
	ResponseSchema  map[string]any
	MaxOutputTokens int
	ThinkingBudget  int
}

// DocumentGenerateOutput 模型原始输出
type DocumentGenerateOutput struct {
	// Raw 模型返回的原文
	Raw string
	// JSON 从原文中截取的 JSON 文本（可能未闭合）
	JSON string

	Model     string
	Truncated bool
	Usage     port.TokenUsage
}
