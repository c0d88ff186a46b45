// Package entity 定义领域实体
package entity

import (
	"time"
)

// SpaceStatus 空间状态
type SpaceStatus string

const (
	SpaceStatusActive   SpaceStatus = "active"
	SpaceStatusArchived SpaceStatus = "archived"
)

// SpaceSettings 空间设置
type SpaceSettings struct {
	DefaultBranchName string `json:"default_branch_name,omitempty"`
	// RetentionKeepCount 覆盖全局保留策略，0 表示使用全局默认
	RetentionKeepCount int  `json:"retention_keep_count,omitempty"`
	AutoPruneEnabled   bool `json:"auto_prune_enabled,omitempty"`
}

// Space 工作空间实体
type Space struct {
	ID          string         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID     string         `json:"owner_id,omitempty" gorm:"type:uuid;index"`
	Name        string         `json:"name" gorm:"type:varchar(255);not null"`
	Description string         `json:"description,omitempty" gorm:"type:text"`
	Settings    *SpaceSettings `json:"settings,omitempty" gorm:"type:jsonb;serializer:json"`
	Status      SpaceStatus    `json:"status" gorm:"type:varchar(50);default:'active'"`
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Space) TableName() string {
	return "spaces"
}

// NewSpace 创建新空间
func NewSpace(ownerID, name string) *Space {
	now := time.Now()
	return &Space{
		OwnerID:   ownerID,
		Name:      name,
		Settings:  &SpaceSettings{DefaultBranchName: DefaultBranchName},
		Status:    SpaceStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive 检查空间是否处于活跃状态
func (s *Space) IsActive() bool {
	return s.Status == SpaceStatusActive
}
