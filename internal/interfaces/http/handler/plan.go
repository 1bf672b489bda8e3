package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"psst-builder-api/internal/application/job"
	"psst-builder-api/internal/application/plan"
	"psst-builder-api/internal/domain/entity"
	"psst-builder-api/internal/domain/repository"
	"psst-builder-api/internal/interfaces/http/dto"
	"psst-builder-api/pkg/errors"
	"psst-builder-api/pkg/logger"
)

// PlanHandlerConfig 同步生成配置
type PlanHandlerConfig struct {
	Limits    entity.AttachmentLimits
	ResultTTL time.Duration
}

// PlanHandler 计划书处理器
type PlanHandler struct {
	runner job.PlanRunner
	plans  repository.PlanRepository
	cfg    PlanHandlerConfig
}

// NewPlanHandler 创建计划书处理器
func NewPlanHandler(runner job.PlanRunner, plans repository.PlanRepository, cfg PlanHandlerConfig) *PlanHandler {
	return &PlanHandler{runner: runner, plans: plans, cfg: cfg}
}

// bindCompanyInfo 绑定并校验请求体，失败时已写出响应
func bindCompanyInfo(c *gin.Context, limits entity.AttachmentLimits) (*entity.CompanyInfo, bool) {
	var req dto.GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.ErrInvalidParam.WithDetail(err.Error()))
		return nil, false
	}
	info, err := req.ToCompanyInfo()
	if err == nil {
		err = info.Validate(limits)
	}
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return info, true
}

// Generate 同步生成计划书
// @Summary 生成计划书
// @Description 生成 PSST 结构化计划书与插图，耗时较长
// @Tags Plans
// @Accept json
// @Produce json
// @Param body body dto.GeneratePlanRequest true "企业信息"
// @Success 200 {object} dto.Response[dto.PlanResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse "凭证缺失或被拒绝"
// @Failure 409 {object} dto.ErrorResponse "已有生成在进行"
// @Failure 422 {object} dto.ErrorResponse "输出格式错误"
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/v1/plans/generate [post]
func (h *PlanHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()

	info, ok := bindCompanyInfo(c, h.cfg.Limits)
	if !ok {
		return
	}

	res, err := h.runner.Run(ctx, info, plan.WithMode("sync"))
	if err != nil {
		respondError(c, err)
		return
	}

	record := entity.NewPlanRecord(uuid.NewString(), res.Document, res.Images)
	if err := h.plans.Save(ctx, record, h.cfg.ResultTTL); err != nil {
		respondError(c, err)
		return
	}

	logger.Info(ctx, "plan generated", "plan_id", record.ID, "images", len(record.Images))
	dto.Success(c, dto.ToPlanResponse(record, APIBasePath))
}

// GetPlan 获取已生成的计划书
// @Summary 获取计划书
// @Tags Plans
// @Produce json
// @Param id path string true "计划书 ID"
// @Success 200 {object} dto.Response[dto.PlanResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/plans/{id} [get]
func (h *PlanHandler) GetPlan(c *gin.Context) {
	record, err := h.plans.Get(c.Request.Context(), dto.BindPlanID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if record == nil {
		respondError(c, errors.ErrPlanNotFound)
		return
	}
	dto.Success(c, dto.ToPlanResponse(record, APIBasePath))
}

// GetImage 下载计划书插图
// @Summary 获取插图
// @Tags Plans
// @Produce image/png
// @Param id path string true "计划书 ID"
// @Param index path int true "图片位置"
// @Success 200 {file} binary
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/plans/{id}/images/{index} [get]
func (h *PlanHandler) GetImage(c *gin.Context) {
	pos, ok := dto.BindImageIndex(c)
	if !ok {
		respondError(c, errors.ErrImageNotFound)
		return
	}
	img, err := h.plans.GetImage(c.Request.Context(), dto.BindPlanID(c), pos)
	if err != nil {
		respondError(c, err)
		return
	}
	if img == nil || len(img.Data) == 0 {
		respondError(c, errors.ErrImageNotFound)
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, img.MIMEType, img.Data)
}
