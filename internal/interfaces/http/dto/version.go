// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"encoding/json"
	"time"

	"nb-studio-api/internal/application/version"
	"nb-studio-api/internal/domain/entity"
)

// CommitVersionRequest 提交版本请求
type CommitVersionRequest struct {
	Snapshot          json.RawMessage `json:"snapshot" binding:"required"`
	CommitMessage     string          `json:"commit_message,omitempty"`
	CommitDescription string          `json:"commit_description,omitempty"`
	BranchName        string          `json:"branch_name,omitempty"`
	Tags              []string        `json:"tags,omitempty"`
	ChangeSummary     *ChangeSummary  `json:"change_summary,omitempty"`
	// MakeCurrent 缺省为 true；历史导入场景置 false
	MakeCurrent *bool `json:"make_current,omitempty"`
}

// PruneVersionsRequest 保留清理请求
type PruneVersionsRequest struct {
	KeepCount int `json:"keep_count" binding:"required"`
}

// PruneVersionsResponse 保留清理响应
type PruneVersionsResponse struct {
	PrunedCount int64 `json:"pruned_count"`
}

// ChangeSummary 变更摘要
type ChangeSummary struct {
	CellsAdded   int `json:"cells_added"`
	CellsRemoved int `json:"cells_removed"`
	CellsChanged int `json:"cells_changed"`
	LinesAdded   int `json:"lines_added"`
	LinesRemoved int `json:"lines_removed"`
}

// VersionSummary 版本列表条目（不含快照载荷）
type VersionSummary struct {
	ID                string         `json:"id"`
	NotebookID        string         `json:"notebook_id"`
	VersionNumber     int            `json:"version_number"`
	CommitMessage     string         `json:"commit_message"`
	CommitDescription string         `json:"commit_description,omitempty"`
	BranchName        string         `json:"branch_name"`
	Tags              []string       `json:"tags,omitempty"`
	ChangeSummary     *ChangeSummary `json:"change_summary,omitempty"`
	CreatedBy         string         `json:"created_by,omitempty"`
	AuthorName        string         `json:"author_name,omitempty"`
	AuthorEmail       string         `json:"author_email,omitempty"`
	IsCurrent         bool           `json:"is_current"`
	CreatedAt         time.Time      `json:"created_at"`
}

// VersionDetail 版本详情（含快照载荷）
type VersionDetail struct {
	VersionSummary
	Snapshot json.RawMessage `json:"snapshot"`
}

// DiffResponse 结构化差异响应
type DiffResponse struct {
	FromVersionID string             `json:"from_version_id"`
	ToVersionID   string             `json:"to_version_id"`
	AddedCells    []version.CellDiff `json:"added_cells"`
	RemovedCells  []version.CellDiff `json:"removed_cells"`
	ModifiedCells []version.CellDiff `json:"modified_cells"`
	Summary       DiffSummary        `json:"summary"`
}

// DiffSummary 差异汇总
type DiffSummary struct {
	CellsAdded     int `json:"cells_added"`
	CellsRemoved   int `json:"cells_removed"`
	CellsChanged   int `json:"cells_changed"`
	CellsUnchanged int `json:"cells_unchanged"`
	LinesAdded     int `json:"lines_added"`
	LinesRemoved   int `json:"lines_removed"`
}

// ToChangeSummary 转换为实体变更摘要
func (s *ChangeSummary) ToChangeSummary() *entity.ChangeSummary {
	if s == nil {
		return nil
	}
	return &entity.ChangeSummary{
		CellsAdded:   s.CellsAdded,
		CellsRemoved: s.CellsRemoved,
		CellsChanged: s.CellsChanged,
		LinesAdded:   s.LinesAdded,
		LinesRemoved: s.LinesRemoved,
	}
}

// fromEntityChangeSummary 从实体变更摘要转换
func fromEntityChangeSummary(s *entity.ChangeSummary) *ChangeSummary {
	if s == nil {
		return nil
	}
	return &ChangeSummary{
		CellsAdded:   s.CellsAdded,
		CellsRemoved: s.CellsRemoved,
		CellsChanged: s.CellsChanged,
		LinesAdded:   s.LinesAdded,
		LinesRemoved: s.LinesRemoved,
	}
}

// ToVersionSummaryDTO 转换版本实体为列表条目
func ToVersionSummaryDTO(v *entity.NotebookVersion) *VersionSummary {
	if v == nil {
		return nil
	}
	return &VersionSummary{
		ID:                v.ID,
		NotebookID:        v.NotebookID,
		VersionNumber:     v.VersionNumber,
		CommitMessage:     v.CommitMessage,
		CommitDescription: v.CommitDescription,
		BranchName:        v.BranchName,
		Tags:              v.Tags,
		ChangeSummary:     fromEntityChangeSummary(v.ChangeSummary),
		CreatedBy:         v.CreatedBy,
		IsCurrent:         v.IsCurrent,
		CreatedAt:         v.CreatedAt,
	}
}

// ToVersionDetailDTO 转换版本实体为详情
func ToVersionDetailDTO(v *entity.NotebookVersion) *VersionDetail {
	if v == nil {
		return nil
	}
	return &VersionDetail{
		VersionSummary: *ToVersionSummaryDTO(v),
		Snapshot:       v.Snapshot,
	}
}

// ToHistoryEntryDTO 转换带作者身份的历史条目
func ToHistoryEntryDTO(entry *version.HistoryEntry) *VersionSummary {
	if entry == nil {
		return nil
	}
	summary := ToVersionSummaryDTO(entry.Version)
	summary.AuthorName = entry.AuthorName
	summary.AuthorEmail = entry.AuthorEmail
	return summary
}

// ToDiffDTO 转换结构化差异
func ToDiffDTO(diff *version.DocumentDiff) *DiffResponse {
	if diff == nil {
		return nil
	}
	return &DiffResponse{
		FromVersionID: diff.FromVersionID,
		ToVersionID:   diff.ToVersionID,
		AddedCells:    diff.AddedCells,
		RemovedCells:  diff.RemovedCells,
		ModifiedCells: diff.ModifiedCells,
		Summary: DiffSummary{
			CellsAdded:     diff.Summary.CellsAdded,
			CellsRemoved:   diff.Summary.CellsRemoved,
			CellsChanged:   diff.Summary.CellsChanged,
			CellsUnchanged: diff.Summary.CellsUnchanged,
			LinesAdded:     diff.Summary.LinesAdded,
			LinesRemoved:   diff.Summary.LinesRemoved,
		},
	}
}
