package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"psst-builder-api/internal/application/job"
	"psst-builder-api/internal/domain/entity"
	"psst-builder-api/internal/domain/repository"
	"psst-builder-api/internal/interfaces/http/dto"
	"psst-builder-api/pkg/errors"
)

// JobHandler 异步任务处理器
type JobHandler struct {
	svc    *job.Service
	limits entity.AttachmentLimits
}

// NewJobHandler 创建任务处理器
func NewJobHandler(svc *job.Service, limits entity.AttachmentLimits) *JobHandler {
	return &JobHandler{svc: svc, limits: limits}
}

// CreateJob 提交异步生成任务
// @Summary 提交生成任务
// @Tags Jobs
// @Accept json
// @Produce json
// @Param body body dto.GeneratePlanRequest true "企业信息"
// @Success 202 {object} dto.Response[dto.JobResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/plans/jobs [post]
func (h *JobHandler) CreateJob(c *gin.Context) {
	info, ok := bindCompanyInfo(c, h.limits)
	if !ok {
		return
	}

	created, err := h.svc.Enqueue(c.Request.Context(), info, c.GetString(dto.ContextKeyRequestID))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Accepted(c, dto.ToJobResponse(created, APIBasePath))
}

// GetJob 获取任务详情
// @Summary 获取任务详情
// @Tags Jobs
// @Produce json
// @Param id path string true "任务 ID"
// @Success 200 {object} dto.Response[dto.JobResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/plans/jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	found, err := h.svc.Get(c.Request.Context(), dto.BindJobID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if found == nil {
		respondError(c, errors.ErrJobNotFound)
		return
	}
	dto.Success(c, dto.ToJobResponse(found, APIBasePath))
}

// ListJobs 任务列表，可按 status 过滤（逗号分隔）
// @Summary 任务列表
// @Tags Jobs
// @Produce json
// @Param status query string false "pending,running,completed,failed"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[dto.JobListResponse]
// @Router /api/v1/plans/jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	pageReq := dto.BindPage(c)

	filter := &repository.JobFilter{}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := entity.JobStatus(strings.TrimSpace(s))
			if !status.Valid() {
				respondError(c, errors.ErrInvalidParam.WithDetail("unknown status: "+string(status)))
				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	result, err := h.svc.List(c.Request.Context(), filter, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		respondError(c, err)
		return
	}

	dto.SuccessWithPage(c,
		dto.ToJobListResponse(result.Items, APIBasePath),
		dto.NewPageMeta(result.Page, result.PageSize, int(result.Total)),
	)
}
