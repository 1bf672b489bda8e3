package dto

import (
	"time"

	"psst-builder-api/internal/domain/entity"
)

// JobErrorResponse 任务失败信息
type JobErrorResponse struct {
	Kind           string `json:"kind"`
	Message        string `json:"message"`
	RecoveryAction string `json:"recovery_action,omitempty"`
}

// JobResponse 任务响应
type JobResponse struct {
	ID          string            `json:"id"`
	CompanyName string            `json:"company_name"`
	Status      string            `json:"status"`
	Stage       string            `json:"stage"`
	Progress    int               `json:"progress"`
	PlanID      string            `json:"plan_id,omitempty"`
	PlanURL     string            `json:"plan_url,omitempty"`
	ImageCount  int               `json:"image_count"`
	ImageKinds  []string          `json:"image_kinds,omitempty"`
	Error       *JobErrorResponse `json:"error,omitempty"`
	RetryCount  int               `json:"retry_count"`
	DurationMs  int               `json:"duration_ms,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// JobListResponse 任务列表响应
type JobListResponse struct {
	Jobs []*JobResponse `json:"jobs"`
}

// ToJobResponse 将领域实体转换为响应 DTO
func ToJobResponse(j *entity.GenerationJob, basePath string) *JobResponse {
	if j == nil {
		return nil
	}

	resp := &JobResponse{
		ID:          j.ID,
		CompanyName: j.CompanyName,
		Status:      string(j.Status),
		Stage:       string(j.Stage),
		Progress:    j.Progress,
		PlanID:      j.PlanID,
		ImageCount:  j.ImageCount,
		ImageKinds:  j.ImageKinds,
		RetryCount:  j.RetryCount,
		DurationMs:  j.DurationMs,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
	if j.PlanID != "" {
		resp.PlanURL = PlanURL(basePath, j.PlanID)
	}
	if j.Status == entity.JobStatusFailed {
		resp.Error = &JobErrorResponse{
			Kind:           j.ErrorKind,
			Message:        j.ErrorMessage,
			RecoveryAction: j.RecoveryAction,
		}
	}
	return resp
}

// ToJobListResponse 将领域实体列表转换为响应 DTO
func ToJobListResponse(jobs []*entity.GenerationJob, basePath string) *JobListResponse {
	resp := &JobListResponse{
		Jobs: make([]*JobResponse, 0, len(jobs)),
	}
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, ToJobResponse(j, basePath))
	}
	return resp
}
