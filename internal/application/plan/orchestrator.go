package plan

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"psst-builder-api/internal/application/credential"
	"psst-builder-api/internal/domain/entity"
	"psst-builder-api/internal/workflow/port"
	"psst-builder-api/pkg/logger"
	"psst-builder-api/pkg/metrics"
	"psst-builder-api/pkg/tracer"
)

// ErrCycleInProgress 已有生成周期在执行
var ErrCycleInProgress = errors.New("a generation cycle is already running")

// CredentialState 编排器依赖的凭证状态
type CredentialState interface {
	Snapshot() credential.Credential
	Refresh(ctx context.Context) (credential.Credential, error)
	Invalidate(reason string)
}

// DocumentProducer 文档生成分支
type DocumentProducer interface {
	Generate(ctx context.Context, payload PromptPayload) (*entity.BusinessPlanDocument, error)
}

// ImageProducer 插图生成分支
type ImageProducer interface {
	GenerateAll(ctx context.Context, prompts []string, attachments []port.InlineData) []entity.GeneratedImage
}

// Phase 生成周期状态
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// Status 当前周期状态；Failed 时 Kind 与 Recovery 有值
type Status struct {
	Phase      Phase          `json:"phase"`
	Kind       ErrorKind      `json:"kind,omitempty"`
	Recovery   RecoveryAction `json:"recovery,omitempty"`
	StartedAt  time.Time      `json:"started_at,omitempty"`
	FinishedAt time.Time      `json:"finished_at,omitempty"`
}

// Result 一次成功的生成结果
type Result struct {
	Document *entity.BusinessPlanDocument
	Images   []entity.GeneratedImage
}

// ProgressFunc 阶段回调，可能在不同 goroutine 中调用
type ProgressFunc func(ctx context.Context, stage entity.JobStage)

type runOptions struct {
	mode     string
	progress ProgressFunc
}

// RunOption 单次运行选项
type RunOption func(*runOptions)

// WithMode 标记调用方式（sync / async），用于指标
func WithMode(mode string) RunOption {
	return func(o *runOptions) { o.mode = mode }
}

// WithProgress 注册阶段回调
func WithProgress(fn ProgressFunc) RunOption {
	return func(o *runOptions) { o.progress = fn }
}

// Orchestrator 协调凭证检查、文档与插图的并行生成
type Orchestrator struct {
	cred   CredentialState
	docs   DocumentProducer
	images ImageProducer

	mu     sync.Mutex
	status Status
}

// NewOrchestrator 创建编排器
func NewOrchestrator(cred CredentialState, docs DocumentProducer, images ImageProducer) *Orchestrator {
	return &Orchestrator{
		cred:   cred,
		docs:   docs,
		images: images,
		status: Status{Phase: PhaseIdle},
	}
}

// Status 返回当前周期状态
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Run 执行一个生成周期。同一时刻只允许一个周期，进行中时返回 ErrCycleInProgress。
func (o *Orchestrator) Run(ctx context.Context, info *entity.CompanyInfo, opts ...RunOption) (*Result, error) {
	ro := runOptions{mode: "sync"}
	for _, opt := range opts {
		opt(&ro)
	}

	if err := o.begin(); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, span := tracer.Start(ctx, "plan.orchestrate")
	defer span.End()
	span.SetAttributes(attribute.String("plan.mode", ro.mode))

	res, err := o.run(ctx, info, ro)

	metrics.PlanGenerationDuration.WithLabelValues(ro.mode).Observe(time.Since(start).Seconds())
	if err != nil {
		kind := Kind(err)
		if kind == "" {
			// 非生成类错误（如提示词渲染失败）按服务错误处理
			err = NewServiceError(err)
			kind = KindService
		}
		metrics.PlanGenerationTotal.WithLabelValues(string(kind)).Inc()
		tracer.RecordError(span, err)
		logger.Warn(ctx, "plan generation failed",
			"kind", string(kind),
			"recovery", string(Recovery(err)),
			"error", err.Error(),
		)
		o.finish(PhaseFailed, kind, Recovery(err))
		return nil, err
	}

	metrics.PlanGenerationTotal.WithLabelValues("succeeded").Inc()
	span.SetAttributes(attribute.Int("plan.images", len(res.Images)))
	o.finish(PhaseSucceeded, "", "")
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, info *entity.CompanyInfo, ro runOptions) (*Result, error) {
	snap, err := o.resolveCredential(ctx)
	if err != nil {
		return nil, err
	}
	ctx = port.WithAPIKey(ctx, snap.Key)

	report(ctx, ro.progress, entity.JobStageAnalyzing)
	payload, err := BuildDocumentPrompt(info)
	if err != nil {
		return nil, err
	}
	prompts := BuildImagePrompts(info)

	report(ctx, ro.progress, entity.JobStageGenerating)

	var (
		doc    *entity.BusinessPlanDocument
		images []entity.GeneratedImage
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		d, err := o.docs.Generate(egCtx, payload)
		if err != nil {
			return err
		}
		doc = d
		report(egCtx, ro.progress, entity.JobStageRendering)
		return nil
	})
	eg.Go(func() error {
		images = o.images.GenerateAll(egCtx, prompts, payload.Attachments)
		return nil
	})

	if err := eg.Wait(); err != nil {
		if IsAuth(err) {
			o.cred.Invalidate(err.Error())
		}
		return nil, err
	}

	report(ctx, ro.progress, entity.JobStageCompleted)
	return &Result{Document: doc, Images: images}, nil
}

// resolveCredential 取本周期使用的凭证。乐观确认后尚无凭证值时先向来源确认一次。
func (o *Orchestrator) resolveCredential(ctx context.Context) (credential.Credential, error) {
	snap := o.cred.Snapshot()
	if snap.Present && snap.Key == "" {
		refreshed, err := o.cred.Refresh(ctx)
		if err != nil {
			logger.Warn(ctx, "credential refresh before cycle failed", "error", err.Error())
		}
		snap = refreshed
	}
	if !snap.Present || snap.Key == "" {
		return credential.Credential{}, NewAuthError(ErrCredentialMissing)
	}
	return snap, nil
}

func (o *Orchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status.Phase == PhaseRunning {
		return ErrCycleInProgress
	}
	o.status = Status{Phase: PhaseRunning, StartedAt: time.Now()}
	return nil
}

func (o *Orchestrator) finish(phase Phase, kind ErrorKind, recovery RecoveryAction) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.Phase = phase
	o.status.Kind = kind
	o.status.Recovery = recovery
	o.status.FinishedAt = time.Now()
}

func report(ctx context.Context, fn ProgressFunc, stage entity.JobStage) {
	if fn != nil {
		fn(ctx, stage)
	}
}
