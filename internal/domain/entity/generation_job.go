package entity

import (
	"time"

	"github.com/lib/pq"
)

// JobStatus 任务状态
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Valid 检查状态值是否合法
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// JobStage 生成阶段
type JobStage string

const (
	JobStageQueued     JobStage = "queued"
	JobStageAnalyzing  JobStage = "analyzing"
	JobStageGenerating JobStage = "generating"
	JobStageRendering  JobStage = "rendering"
	JobStageCompleted  JobStage = "completed"
)

// Progress 阶段对应的进度值
func (s JobStage) Progress() int {
	switch s {
	case JobStageAnalyzing:
		return 10
	case JobStageGenerating:
		return 40
	case JobStageRendering:
		return 80
	case JobStageCompleted:
		return 100
	default:
		return 0
	}
}

// GenerationJob 异步计划书生成任务
type GenerationJob struct {
	ID             string         `json:"id" gorm:"type:uuid;primaryKey"`
	CompanyName    string         `json:"company_name" gorm:"type:varchar(200)"`
	Status         JobStatus      `json:"status" gorm:"type:varchar(16);index;not null"`
	Stage          JobStage       `json:"stage" gorm:"type:varchar(16)"`
	Progress       int            `json:"progress"` // 任务进度 (0-100)
	PlanID         string         `json:"plan_id,omitempty" gorm:"type:varchar(64)"`
	ImageCount     int            `json:"image_count"`
	ImageKinds     pq.StringArray `json:"image_kinds,omitempty" gorm:"type:text[]"`
	ErrorKind      string         `json:"error_kind,omitempty" gorm:"type:varchar(32)"`
	ErrorMessage   string         `json:"error_message,omitempty" gorm:"type:text"`
	RecoveryAction string         `json:"recovery_action,omitempty" gorm:"type:varchar(32)"`
	DurationMs     int            `json:"duration_ms,omitempty"`
	RetryCount     int            `json:"retry_count"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt      *time.Time     `json:"started_at,omitempty"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}

// TableName 指定表名
func (GenerationJob) TableName() string {
	return "plan_generation_jobs"
}

// NewGenerationJob 创建新任务
func NewGenerationJob(id, companyName string) *GenerationJob {
	return &GenerationJob{
		ID:          id,
		CompanyName: companyName,
		Status:      JobStatusPending,
		Stage:       JobStageQueued,
		CreatedAt:   time.Now(),
	}
}

// Start 开始执行任务
func (j *GenerationJob) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Advance(JobStageAnalyzing)
}

// Advance 推进到指定阶段
func (j *GenerationJob) Advance(stage JobStage) {
	j.Stage = stage
	j.UpdateProgress(stage.Progress())
}

// Complete 完成任务
func (j *GenerationJob) Complete(planID string, images []GeneratedImage) {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.PlanID = planID
	j.ImageCount = len(images)
	j.ImageKinds = make(pq.StringArray, 0, len(images))
	for _, img := range images {
		j.ImageKinds = append(j.ImageKinds, string(img.Kind))
	}
	j.ErrorKind, j.ErrorMessage, j.RecoveryAction = "", "", ""
	j.CompletedAt = &now
	j.Advance(JobStageCompleted)
	j.finishDuration(now)
}

// Fail 任务失败
func (j *GenerationJob) Fail(kind, errMsg, recovery string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.ErrorKind = kind
	j.ErrorMessage = errMsg
	j.RecoveryAction = recovery
	j.CompletedAt = &now
	j.finishDuration(now)
}

// Retry 重新入队
func (j *GenerationJob) Retry() {
	j.RetryCount++
	j.Status = JobStatusPending
	j.Stage = JobStageQueued
	j.Progress = 0
	j.StartedAt = nil
	j.CompletedAt = nil
}

// Terminal 是否已结束
func (j *GenerationJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// UpdateProgress 更新任务进度
func (j *GenerationJob) UpdateProgress(progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	j.Progress = progress
}

func (j *GenerationJob) finishDuration(now time.Time) {
	if j.StartedAt != nil {
		j.DurationMs = int(now.Sub(*j.StartedAt).Milliseconds())
	}
}
