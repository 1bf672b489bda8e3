package repository

import (
	"context"
	"time"

	"psst-builder-api/internal/domain/entity"
)

// PlanRepository 生成结果存储（带过期时间）
type PlanRepository interface {
	// Save 保存计划书与图片
	Save(ctx context.Context, plan *entity.PlanRecord, ttl time.Duration) error

	// Get 获取计划书（图片仅含元数据），不存在时返回 nil, nil
	Get(ctx context.Context, planID string) (*entity.PlanRecord, error)

	// GetImage 按位置获取图片数据，不存在时返回 nil, nil
	GetImage(ctx context.Context, planID string, position int) (*entity.GeneratedImage, error)
}

// JobInputRepository 异步任务输入暂存
type JobInputRepository interface {
	SaveInput(ctx context.Context, jobID string, info *entity.CompanyInfo, ttl time.Duration) error
	LoadInput(ctx context.Context, jobID string) (*entity.CompanyInfo, error)
	DeleteInput(ctx context.Context, jobID string) error
}
