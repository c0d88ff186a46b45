// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// DefaultBranchName 默认分支标签
const DefaultBranchName = "main"

// ChangeSummary 版本变更摘要（派生元数据，仅供展示）
type ChangeSummary struct {
	CellsAdded   int `json:"cells_added"`
	CellsRemoved int `json:"cells_removed"`
	CellsChanged int `json:"cells_changed"`
	LinesAdded   int `json:"lines_added"`
	LinesRemoved int `json:"lines_removed"`
}

// NotebookVersion 笔记版本实体
//
// 写入后除 IsCurrent 外全部字段不可变。版本号由存储层在同一事务内
// 按笔记分配，严格递增且不复用；IsCurrent 不变式：拥有至少一个版本的
// 笔记在任何已提交事务中有且仅有一个当前版本。
type NotebookVersion struct {
	ID                string          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NotebookID        string          `json:"notebook_id" gorm:"type:uuid;index:idx_notebook_version,unique,priority:1;not null"`
	SpaceID           string          `json:"space_id,omitempty" gorm:"type:uuid;index"`
	VersionNumber     int             `json:"version_number" gorm:"index:idx_notebook_version,unique,priority:2;not null"`
	Snapshot          json.RawMessage `json:"snapshot,omitempty" gorm:"type:jsonb"`
	CommitMessage     string          `json:"commit_message" gorm:"type:varchar(512);not null"`
	CommitDescription string          `json:"commit_description,omitempty" gorm:"type:text"`
	BranchName        string          `json:"branch_name" gorm:"type:varchar(255);default:'main';index"`
	Tags              []string        `json:"tags,omitempty" gorm:"type:jsonb;serializer:json"`
	ChangeSummary     *ChangeSummary  `json:"change_summary,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedBy         string          `json:"created_by,omitempty" gorm:"type:uuid;index"`
	CreatedAt         time.Time       `json:"created_at" gorm:"autoCreateTime"`
	IsCurrent         bool            `json:"is_current" gorm:"default:false;index:idx_notebook_current,priority:2"`
}

// TableName 指定表名
func (NotebookVersion) TableName() string {
	return "notebook_versions"
}

// NewNotebookVersion 创建版本实体（版本号由存储层分配）
func NewNotebookVersion(notebookID, spaceID, createdBy string, snapshot json.RawMessage) *NotebookVersion {
	return &NotebookVersion{
		NotebookID: notebookID,
		SpaceID:    spaceID,
		Snapshot:   snapshot,
		BranchName: DefaultBranchName,
		CreatedBy:  createdBy,
		CreatedAt:  time.Now(),
	}
}

// EnsureCommitMessage 为缺省提交信息生成默认值
func (v *NotebookVersion) EnsureCommitMessage() {
	if v.CommitMessage == "" {
		v.CommitMessage = fmt.Sprintf("Auto-save %s", v.CreatedAt.Format(time.RFC3339))
	}
}

// Summary 返回去除快照载荷的浅拷贝，用于列表投影
func (v *NotebookVersion) Summary() *NotebookVersion {
	s := *v
	s.Snapshot = nil
	return &s
}
