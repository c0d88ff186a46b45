// Package entity 定义领域实体
package entity

import (
	"time"
)

// NotebookStatus 笔记状态
type NotebookStatus string

const (
	NotebookStatusActive   NotebookStatus = "active"
	NotebookStatusArchived NotebookStatus = "archived"
)

// Notebook 笔记实体
// 版本控制引擎的宿主资源：每个笔记拥有一串不可变版本快照，
// 提交与恢复事务通过本行的行级锁实现按笔记串行化。
type Notebook struct {
	ID          string         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SpaceID     string         `json:"space_id,omitempty" gorm:"type:uuid;index"`
	OwnerID     string         `json:"owner_id,omitempty" gorm:"type:uuid;index"`
	Title       string         `json:"title" gorm:"type:varchar(255);not null"`
	Description string         `json:"description,omitempty" gorm:"type:text"`
	Status      NotebookStatus `json:"status" gorm:"type:varchar(50);default:'active'"`
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Notebook) TableName() string {
	return "notebooks"
}

// NewNotebook 创建新笔记
func NewNotebook(spaceID, ownerID, title string) *Notebook {
	now := time.Now()
	return &Notebook{
		SpaceID:   spaceID,
		OwnerID:   ownerID,
		Title:     title,
		Status:    NotebookStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsEditable 检查笔记是否可编辑
func (n *Notebook) IsEditable() bool {
	return n.Status == NotebookStatusActive
}
