// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"nb-studio-api/internal/domain/entity"
)

// CreateNotebookRequest 创建笔记请求
type CreateNotebookRequest struct {
	SpaceID     string `json:"space_id,omitempty"`
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description,omitempty"`
}

// UpdateNotebookRequest 更新笔记请求
type UpdateNotebookRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// NotebookResponse 笔记响应
type NotebookResponse struct {
	ID          string    `json:"id"`
	SpaceID     string    `json:"space_id,omitempty"`
	OwnerID     string    `json:"owner_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToNotebookDTO 转换笔记实体
func ToNotebookDTO(notebook *entity.Notebook) *NotebookResponse {
	if notebook == nil {
		return nil
	}
	return &NotebookResponse{
		ID:          notebook.ID,
		SpaceID:     notebook.SpaceID,
		OwnerID:     notebook.OwnerID,
		Title:       notebook.Title,
		Description: notebook.Description,
		Status:      string(notebook.Status),
		CreatedAt:   notebook.CreatedAt,
		UpdatedAt:   notebook.UpdatedAt,
	}
}

// ToNotebookDTOs 批量转换笔记实体
func ToNotebookDTOs(notebooks []*entity.Notebook) []*NotebookResponse {
	out := make([]*NotebookResponse, 0, len(notebooks))
	for _, n := range notebooks {
		out = append(out, ToNotebookDTO(n))
	}
	return out
}
