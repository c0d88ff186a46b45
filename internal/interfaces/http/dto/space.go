// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"nb-studio-api/internal/domain/entity"
)

// CreateSpaceRequest 创建空间请求
type CreateSpaceRequest struct {
	Name        string                `json:"name" binding:"required,max=255"`
	Description string                `json:"description,omitempty"`
	Settings    *SpaceSettingsRequest `json:"settings,omitempty"`
}

// UpdateSpaceRequest 更新空间请求
type UpdateSpaceRequest struct {
	Name        *string               `json:"name,omitempty"`
	Description *string               `json:"description,omitempty"`
	Status      *string               `json:"status,omitempty"`
	Settings    *SpaceSettingsRequest `json:"settings,omitempty"`
}

// SpaceSettingsRequest 空间设置
type SpaceSettingsRequest struct {
	DefaultBranchName  string `json:"default_branch_name,omitempty"`
	RetentionKeepCount int    `json:"retention_keep_count,omitempty"`
	AutoPruneEnabled   bool   `json:"auto_prune_enabled,omitempty"`
}

// SpaceResponse 空间响应
type SpaceResponse struct {
	ID          string                `json:"id"`
	OwnerID     string                `json:"owner_id,omitempty"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Status      string                `json:"status"`
	Settings    *SpaceSettingsRequest `json:"settings,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// ToSettings 转换为实体设置
func (r *SpaceSettingsRequest) ToSettings() *entity.SpaceSettings {
	if r == nil {
		return nil
	}
	return &entity.SpaceSettings{
		DefaultBranchName:  r.DefaultBranchName,
		RetentionKeepCount: r.RetentionKeepCount,
		AutoPruneEnabled:   r.AutoPruneEnabled,
	}
}

// ToSpaceDTO 转换空间实体
func ToSpaceDTO(space *entity.Space) *SpaceResponse {
	if space == nil {
		return nil
	}
	resp := &SpaceResponse{
		ID:          space.ID,
		OwnerID:     space.OwnerID,
		Name:        space.Name,
		Description: space.Description,
		Status:      string(space.Status),
		CreatedAt:   space.CreatedAt,
		UpdatedAt:   space.UpdatedAt,
	}
	if space.Settings != nil {
		resp.Settings = &SpaceSettingsRequest{
			DefaultBranchName:  space.Settings.DefaultBranchName,
			RetentionKeepCount: space.Settings.RetentionKeepCount,
			AutoPruneEnabled:   space.Settings.AutoPruneEnabled,
		}
	}
	return resp
}

// ToSpaceDTOs 批量转换空间实体
func ToSpaceDTOs(spaces []*entity.Space) []*SpaceResponse {
	out := make([]*SpaceResponse, 0, len(spaces))
	for _, s := range spaces {
		out = append(out, ToSpaceDTO(s))
	}
	return out
}
