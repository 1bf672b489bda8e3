// Package job 异步计划书生成：入队与后台执行
package job

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"psst-builder-api/internal/domain/entity"
	"psst-builder-api/internal/domain/repository"
	"psst-builder-api/pkg/logger"
)

// Publisher 任务消息发布
type Publisher interface {
	Publish(ctx context.Context, jobID, requestID string) error
}

// ServiceConfig 入队配置
type ServiceConfig struct {
	Limits   entity.AttachmentLimits
	InputTTL time.Duration
}

// Service 异步任务入队与查询
type Service struct {
	jobs      repository.JobRepository
	inputs    repository.JobInputRepository
	tx        repository.Transactor
	publisher Publisher
	cfg       ServiceConfig
}

// NewService 创建任务服务
func NewService(jobs repository.JobRepository, inputs repository.JobInputRepository, tx repository.Transactor, publisher Publisher, cfg ServiceConfig) *Service {
	return &Service{jobs: jobs, inputs: inputs, tx: tx, publisher: publisher, cfg: cfg}
}

// Enqueue 校验输入并创建任务。输入先暂存，任务行与消息发布在同一事务中，发布失败时任务行回滚。
func (s *Service) Enqueue(ctx context.Context, info *entity.CompanyInfo, requestID string) (*entity.GenerationJob, error) {
	if err := info.Validate(s.cfg.Limits); err != nil {
		return nil, err
	}

	job := entity.NewGenerationJob(uuid.NewString(), info.CompanyName)
	ctx = logger.WithContext(ctx, logger.JobIDKey, job.ID)

	if err := s.inputs.SaveInput(ctx, job.ID, info, s.cfg.InputTTL); err != nil {
		return nil, fmt.Errorf("failed to store job input: %w", err)
	}

	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.jobs.Create(txCtx, job); err != nil {
			return err
		}
		return s.publisher.Publish(txCtx, job.ID, requestID)
	})
	if err != nil {
		if delErr := s.inputs.DeleteInput(ctx, job.ID); delErr != nil {
			logger.Warn(ctx, "failed to clean up job input", "error", delErr.Error())
		}
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	logger.Info(ctx, "plan job enqueued", "company", info.CompanyName, "attachments", len(info.Attachments))
	return job, nil
}

// Get 获取任务，不存在时返回 nil, nil
func (s *Service) Get(ctx context.Context, id string) (*entity.GenerationJob, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	return s.jobs.GetByID(ctx, id)
}

// List 分页查询任务
func (s *Service) List(ctx context.Context, filter *repository.JobFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.GenerationJob], error) {
	return s.jobs.List(ctx, filter, pagination)
}
