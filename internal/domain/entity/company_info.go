// Package entity 定义领域实体
package entity

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// 附件允许的 MIME 类型
var allowedAttachmentMIME = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"image/webp":      true,
	"image/heic":      true,
	"image/heif":      true,
	"application/pdf": true,
}

// Attachment 用户上传的参考文件（图片或 PDF）
type Attachment struct {
	Data     []byte `json:"data" validate:"required"`
	MIMEType string `json:"mime_type" validate:"required,attachment_mime"`
}

// CompanyInfo 用户提交的企业信息
type CompanyInfo struct {
	CompanyName       string       `json:"company_name" validate:"required,nonblank,max=200"`
	BusinessItem      string       `json:"business_item" validate:"required,nonblank,max=2000"`
	DevelopmentStatus string       `json:"development_status" validate:"required,nonblank,max=5000"`
	TargetAudience    string       `json:"target_audience" validate:"required,nonblank,max=2000"`
	TeamInfo          string       `json:"team_info" validate:"required,nonblank,max=5000"`
	AdditionalInfo    string       `json:"additional_info,omitempty" validate:"max=10000"`
	Attachments       []Attachment `json:"attachments,omitempty" validate:"dive"`
}

// AttachmentLimits 附件数量与总大小上限，零值表示不限制
type AttachmentLimits struct {
	MaxCount      int
	MaxTotalBytes int
}

// Validate 校验企业信息
func (c *CompanyInfo) Validate(limits AttachmentLimits) error {
	if err := validateStruct(c); err != nil {
		return err
	}
	if limits.MaxCount > 0 && len(c.Attachments) > limits.MaxCount {
		return &ValidationError{Issues: []string{
			fmt.Sprintf("attachments: at most %d files allowed, got %d", limits.MaxCount, len(c.Attachments)),
		}}
	}
	if limits.MaxTotalBytes > 0 {
		total := 0
		for _, a := range c.Attachments {
			total += len(a.Data)
		}
		if total > limits.MaxTotalBytes {
			return &ValidationError{Issues: []string{
				fmt.Sprintf("attachments: total size %d exceeds limit %d bytes", total, limits.MaxTotalBytes),
			}}
		}
	}
	return nil
}

// DecodeAttachment 解码 base64 附件，兼容 data URL 前缀（data:<mime>;base64,）
func DecodeAttachment(data, mimeType string) (Attachment, error) {
	data = strings.TrimSpace(data)
	if strings.HasPrefix(data, "data:") {
		header, payload, ok := strings.Cut(data, ",")
		if !ok {
			return Attachment{}, fmt.Errorf("malformed data url")
		}
		if mimeType == "" {
			mimeType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		}
		data = payload
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return Attachment{}, fmt.Errorf("invalid base64 attachment: %w", err)
	}
	return Attachment{Data: raw, MIMEType: strings.ToLower(strings.TrimSpace(mimeType))}, nil
}
