// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"psst-builder-api/internal/domain/entity"
)

// JobFilter 任务过滤条件
type JobFilter struct {
	Statuses []entity.JobStatus
}

// JobRepository 生成任务仓储接口
type JobRepository interface {
	// Create 创建任务
	Create(ctx context.Context, job *entity.GenerationJob) error

	// GetByID 根据 ID 获取任务，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.GenerationJob, error)

	// Update 更新任务
	Update(ctx context.Context, job *entity.GenerationJob) error

	// UpdateStage 更新任务阶段与进度
	UpdateStage(ctx context.Context, id string, stage entity.JobStage) error

	// List 分页查询任务
	List(ctx context.Context, filter *JobFilter, pagination Pagination) (*PagedResult[*entity.GenerationJob], error)
}
