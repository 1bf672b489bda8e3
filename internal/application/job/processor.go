package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"psst-builder-api/internal/application/plan"
	"psst-builder-api/internal/domain/entity"
	"psst-builder-api/internal/domain/repository"
	"psst-builder-api/pkg/logger"
)

// ErrJobNotFound 任务行尚未可见或已被删除
var ErrJobNotFound = errors.New("job not found")

// PlanRunner 执行一个生成周期
type PlanRunner interface {
	Run(ctx context.Context, info *entity.CompanyInfo, opts ...plan.RunOption) (*plan.Result, error)
}

// Processor 后台执行计划书生成任务
type Processor struct {
	jobs      repository.JobRepository
	inputs    repository.JobInputRepository
	plans     repository.PlanRepository
	runner    PlanRunner
	resultTTL time.Duration
}

// NewProcessor 创建任务执行器
func NewProcessor(jobs repository.JobRepository, inputs repository.JobInputRepository, plans repository.PlanRepository, runner PlanRunner, resultTTL time.Duration) *Processor {
	return &Processor{jobs: jobs, inputs: inputs, plans: plans, runner: runner, resultTTL: resultTTL}
}

// Process 执行任务。生成失败（凭证、输出格式、服务错误）记录在任务上并返回 nil；
// 返回的错误表示基础设施问题，消息应稍后重试。
func (p *Processor) Process(ctx context.Context, jobID string) error {
	ctx = logger.WithContext(ctx, logger.JobIDKey, jobID)

	job, err := p.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if job.Terminal() {
		logger.Info(ctx, "job already finished, skipping", "status", string(job.Status))
		return nil
	}

	info, err := p.inputs.LoadInput(ctx, jobID)
	if err != nil {
		return err
	}
	if info == nil {
		job.Fail(string(plan.KindService), "job input expired", string(plan.RecoveryRetryLater))
		return p.jobs.Update(ctx, job)
	}

	if job.Status == entity.JobStatusRunning {
		job.Retry()
	}
	job.Start()
	if err := p.jobs.Update(ctx, job); err != nil {
		return err
	}

	res, err := p.runner.Run(ctx, info,
		plan.WithMode("async"),
		plan.WithProgress(p.reportStage(jobID)),
	)
	if err != nil {
		if errors.Is(err, plan.ErrCycleInProgress) {
			return err
		}
		job.Fail(string(plan.Kind(err)), err.Error(), string(plan.Recovery(err)))
		if err := p.jobs.Update(ctx, job); err != nil {
			return err
		}
		p.cleanup(ctx, jobID)
		logger.Warn(ctx, "plan job failed", "kind", job.ErrorKind, "recovery", job.RecoveryAction)
		return nil
	}

	planID := uuid.NewString()
	record := entity.NewPlanRecord(planID, res.Document, res.Images)
	if err := p.plans.Save(ctx, record, p.resultTTL); err != nil {
		return err
	}

	job.Complete(planID, res.Images)
	if err := p.jobs.Update(ctx, job); err != nil {
		return err
	}
	p.cleanup(ctx, jobID)

	logger.Info(ctx, "plan job completed",
		"plan_id", planID,
		"images", len(res.Images),
		"duration_ms", job.DurationMs,
	)
	return nil
}

func (p *Processor) reportStage(jobID string) plan.ProgressFunc {
	return func(ctx context.Context, stage entity.JobStage) {
		if err := p.jobs.UpdateStage(ctx, jobID, stage); err != nil {
			logger.Warn(ctx, "failed to update job stage", "stage", string(stage), "error", err.Error())
		}
	}
}

func (p *Processor) cleanup(ctx context.Context, jobID string) {
	if err := p.inputs.DeleteInput(ctx, jobID); err != nil {
		logger.Warn(ctx, "failed to delete job input", "error", err.Error())
	}
}
