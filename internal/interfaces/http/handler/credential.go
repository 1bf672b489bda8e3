package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"psst-builder-api/internal/application/credential"
	"psst-builder-api/internal/interfaces/http/dto"
	"psst-builder-api/pkg/errors"
)

// CredentialService 凭证解析能力
type CredentialService interface {
	State() *credential.State
	RequestCredential(ctx context.Context) error
	StoreUserCredential(ctx context.Context, key string) error
}

// CredentialHandler 凭证处理器
type CredentialHandler struct {
	svc CredentialService
}

// NewCredentialHandler 创建凭证处理器
func NewCredentialHandler(svc CredentialService) *CredentialHandler {
	return &CredentialHandler{svc: svc}
}

// Status 当前凭证状态
// @Summary 凭证状态
// @Tags Credential
// @Produce json
// @Success 200 {object} dto.Response[dto.CredentialStatusResponse]
// @Router /api/v1/credential [get]
func (h *CredentialHandler) Status(c *gin.Context) {
	state := h.svc.State()
	snap := state.Snapshot()
	dto.Success(c, &dto.CredentialStatusResponse{
		Ready:         snap.Present,
		Source:        string(snap.Source),
		Optimistic:    snap.Optimistic,
		LastRejection: state.LastRejection(),
	})
}

// Select 打开宿主凭证选择器，结果异步对账
// @Summary 选择凭证
// @Tags Credential
// @Produce json
// @Success 202 {object} dto.Response[dto.CredentialStatusResponse]
// @Failure 503 {object} dto.ErrorResponse "未配置宿主桥接"
// @Router /api/v1/credential/select [post]
func (h *CredentialHandler) Select(c *gin.Context) {
	if err := h.svc.RequestCredential(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	snap := h.svc.State().Snapshot()
	dto.Accepted(c, &dto.CredentialStatusResponse{
		Ready:      snap.Present,
		Source:     string(snap.Source),
		Optimistic: snap.Optimistic,
	})
}

// Store 保存用户输入的凭证
// @Summary 保存凭证
// @Tags Credential
// @Accept json
// @Param body body dto.StoreCredentialRequest true "凭证"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/credential [put]
func (h *CredentialHandler) Store(c *gin.Context) {
	var req dto.StoreCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.ErrInvalidParam.WithDetail(err.Error()))
		return
	}
	if err := h.svc.StoreUserCredential(c.Request.Context(), req.APIKey); err != nil {
		respondError(c, err)
		return
	}
	dto.NoContent(c)
}
