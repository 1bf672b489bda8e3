package dto

import (
	"fmt"
	"time"

	"psst-builder-api/internal/domain/entity"
)

// AttachmentRequest base64 附件，可带 data URL 前缀
type AttachmentRequest struct {
	Data     string `json:"data" binding:"required"`
	MIMEType string `json:"mime_type"`
}

// GeneratePlanRequest 计划书生成请求
type GeneratePlanRequest struct {
	CompanyName       string              `json:"company_name"`
	BusinessItem      string              `json:"business_item"`
	DevelopmentStatus string              `json:"development_status"`
	TargetAudience    string              `json:"target_audience"`
	TeamInfo          string              `json:"team_info"`
	AdditionalInfo    string              `json:"additional_info,omitempty"`
	Attachments       []AttachmentRequest `json:"attachments,omitempty" binding:"omitempty,dive"`
}

// ToCompanyInfo 转换为领域对象并解码附件，字段校验由领域层完成
func (r *GeneratePlanRequest) ToCompanyInfo() (*entity.CompanyInfo, error) {
	info := &entity.CompanyInfo{
		CompanyName:       r.CompanyName,
		BusinessItem:      r.BusinessItem,
		DevelopmentStatus: r.DevelopmentStatus,
		TargetAudience:    r.TargetAudience,
		TeamInfo:          r.TeamInfo,
		AdditionalInfo:    r.AdditionalInfo,
	}
	for i, a := range r.Attachments {
		att, err := entity.DecodeAttachment(a.Data, a.MIMEType)
		if err != nil {
			return nil, &entity.ValidationError{Issues: []string{fmt.Sprintf("attachments[%d]: %v", i, err)}}
		}
		info.Attachments = append(info.Attachments, att)
	}
	return info, nil
}

// ImageResponse 图片元数据，数据通过 URL 单独获取
type ImageResponse struct {
	Position    int    `json:"position"`
	PromptIndex int    `json:"index"`
	Kind        string `json:"kind"`
	Label       string `json:"label"`
	MIMEType    string `json:"mime_type"`
	URL         string `json:"url"`
}

// PlanResponse 计划书响应
type PlanResponse struct {
	PlanID    string                       `json:"plan_id"`
	Document  *entity.BusinessPlanDocument `json:"document"`
	Images    []*ImageResponse             `json:"images"`
	FileName  string                       `json:"file_name"`
	CreatedAt time.Time                    `json:"created_at"`
}

// ToPlanResponse 将计划书记录转换为响应 DTO
func ToPlanResponse(p *entity.PlanRecord, basePath string) *PlanResponse {
	if p == nil {
		return nil
	}
	resp := &PlanResponse{
		PlanID:    p.ID,
		Document:  p.Document,
		Images:    make([]*ImageResponse, 0, len(p.Images)),
		FileName:  p.FileName,
		CreatedAt: p.CreatedAt,
	}
	for pos, img := range p.Images {
		resp.Images = append(resp.Images, &ImageResponse{
			Position:    pos,
			PromptIndex: img.Index,
			Kind:        string(img.Kind),
			Label:       img.Kind.Label(),
			MIMEType:    img.MIMEType,
			URL:         PlanImageURL(basePath, p.ID, pos),
		})
	}
	return resp
}

// PlanImageURL 图片下载地址
func PlanImageURL(basePath, planID string, position int) string {
	return fmt.Sprintf("%s/plans/%s/images/%d", basePath, planID, position)
}

// PlanURL 计划书查询地址
func PlanURL(basePath, planID string) string {
	return fmt.Sprintf("%s/plans/%s", basePath, planID)
}
