package handler

import (
	"github.com/gin-gonic/gin"

	"nb-studio-api/internal/application/version"
	"nb-studio-api/internal/domain/repository"
	"nb-studio-api/internal/interfaces/http/dto"
)

// VersionHandler 版本控制处理器
type VersionHandler struct {
	versionService *version.Service
}

// NewVersionHandler 创建版本控制处理器
func NewVersionHandler(versionService *version.Service) *VersionHandler {
	return &VersionHandler{versionService: versionService}
}

// Commit 提交新版本
// @Summary 提交笔记快照为新版本
// @Tags Version
// @Accept json
// @Produce json
// @Param nid path string true "笔记 ID"
// @Param body body dto.CommitVersionRequest true "提交内容"
// @Success 201 {object} dto.Response[dto.VersionSummary]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/notebooks/{nid}/versions [post]
func (h *VersionHandler) Commit(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CommitVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	created, err := h.versionService.Commit(ctx, version.CommitInput{
		NotebookID:        dto.BindNotebookID(c),
		Snapshot:          req.Snapshot,
		CommitMessage:     req.CommitMessage,
		CommitDescription: req.CommitDescription,
		BranchName:        req.BranchName,
		Tags:              req.Tags,
		ChangeSummary:     req.ChangeSummary.ToChangeSummary(),
		CreatedBy:         currentUserID(c),
		MakeCurrent:       req.MakeCurrent == nil || *req.MakeCurrent,
	})
	if err != nil {
		respondError(c, ctx, err, "failed to commit version")
		return
	}
	dto.Created(c, dto.ToVersionSummaryDTO(created))
}

// List 分页查询版本历史
// @Summary 查询版本历史
// @Tags Version
// @Produce json
// @Param nid path string true "笔记 ID"
// @Param branch query string false "按分支标签过滤"
// @Param tag query string false "按标签过滤"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[[]dto.VersionSummary]
// @Router /v1/notebooks/{nid}/versions [get]
func (h *VersionHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	page := dto.BindPage(c)

	filter := &repository.VersionFilter{
		BranchName: c.Query("branch"),
		Tag:        c.Query("tag"),
	}
	result, err := h.versionService.ListHistory(ctx, dto.BindNotebookID(c), filter,
		repository.NewPagination(page.Page, page.PageSize))
	if err != nil {
		respondError(c, ctx, err, "failed to list versions")
		return
	}

	items := make([]*dto.VersionSummary, 0, len(result.Items))
	for _, entry := range result.Items {
		items = append(items, dto.ToHistoryEntryDTO(entry))
	}
	dto.SuccessWithPage(c, items,
		dto.NewPageMeta(result.Page, result.PageSize, int(result.Total)))
}

// GetCurrent 获取当前版本
// @Summary 获取当前版本详情
// @Tags Version
// @Produce json
// @Param nid path string true "笔记 ID"
// @Success 200 {object} dto.Response[dto.VersionDetail]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/notebooks/{nid}/versions/current [get]
func (h *VersionHandler) GetCurrent(c *gin.Context) {
	ctx := c.Request.Context()

	current, err := h.versionService.GetCurrent(ctx, dto.BindNotebookID(c))
	if err != nil {
		respondError(c, ctx, err, "failed to get current version")
		return
	}
	if current == nil {
		dto.NotFound(c, "notebook has no versions")
		return
	}
	dto.Success(c, dto.ToVersionDetailDTO(current))
}

// Get 获取指定版本
// @Summary 获取指定版本详情
// @Tags Version
// @Produce json
// @Param nid path string true "笔记 ID"
// @Param vid path string true "版本 ID"
// @Success 200 {object} dto.Response[dto.VersionDetail]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/notebooks/{nid}/versions/{vid} [get]
func (h *VersionHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	v, err := h.versionService.GetVersion(ctx, dto.BindNotebookID(c), dto.BindVersionID(c))
	if err != nil {
		respondError(c, ctx, err, "failed to get version")
		return
	}
	dto.Success(c, dto.ToVersionDetailDTO(v))
}

// Restore 恢复历史版本
// @Summary 将当前指针移动到历史版本
// @Tags Version
// @Produce json
// @Param nid path string true "笔记 ID"
// @Param vid path string true "版本 ID"
// @Success 200 {object} dto.Response[dto.VersionDetail]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/notebooks/{nid}/versions/{vid}/restore [post]
func (h *VersionHandler) Restore(c *gin.Context) {
	ctx := c.Request.Context()

	restored, err := h.versionService.Restore(ctx, dto.BindNotebookID(c), dto.BindVersionID(c))
	if err != nil {
		respondError(c, ctx, err, "failed to restore version")
		return
	}
	// 恢复后客户端直接渲染文档，响应携带完整快照
	dto.Success(c, dto.ToVersionDetailDTO(restored))
}

// Diff 比较两个版本
// @Summary 计算两个版本的结构化差异
// @Tags Version
// @Produce json
// @Param nid path string true "笔记 ID"
// @Param from query string true "起始版本 ID"
// @Param to query string true "目标版本 ID"
// @Success 200 {object} dto.Response[dto.DiffResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/notebooks/{nid}/versions/diff [get]
func (h *VersionHandler) Diff(c *gin.Context) {
	ctx := c.Request.Context()

	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		dto.BadRequest(c, "both from and to version ids are required")
		return
	}

	diff, err := h.versionService.Diff(ctx, dto.BindNotebookID(c), from, to)
	if err != nil {
		respondError(c, ctx, err, "failed to diff versions")
		return
	}
	dto.Success(c, dto.ToDiffDTO(diff))
}

// Prune 按保留数清理历史版本
// @Summary 清理保留窗口之外的历史版本
// @Tags Version
// @Accept json
// @Produce json
// @Param nid path string true "笔记 ID"
// @Param body body dto.PruneVersionsRequest true "保留数"
// @Success 200 {object} dto.Response[dto.PruneVersionsResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/notebooks/{nid}/versions/prune [post]
func (h *VersionHandler) Prune(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.PruneVersionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	pruned, err := h.versionService.Prune(ctx, dto.BindNotebookID(c), req.KeepCount, "api")
	if err != nil {
		respondError(c, ctx, err, "failed to prune versions")
		return
	}
	dto.Success(c, dto.PruneVersionsResponse{PrunedCount: pruned})
}
