// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"nb-studio-api/internal/domain/entity"
)

// VersionFilter 版本列表过滤条件
type VersionFilter struct {
	// BranchName 按分支标签过滤，空表示全部分支
	BranchName string
	// Tag 按标签过滤，空表示不过滤
	Tag string
}

// VersionSequencer 版本序号分配器
//
// 并发契约：同一笔记的两次分配必须串行化（实现方依赖按笔记的行级锁
// 或可串行化隔离），不同笔记之间不得互相阻塞。分配出的序号严格递增、
// 永不复用。丢失竞争时返回 Conflict 族错误，由调用方整体重试提交。
type VersionSequencer interface {
	// NextVersionNumber 分配下一个版本号，必须在持有笔记行锁的事务内调用
	NextVersionNumber(ctx context.Context, notebookID string) (int, error)
}

// NotebookVersionRepository 笔记版本仓储接口
//
// 快照存储为仅追加：版本写入后除 is_current 外不再变更。
// 所有改变 is_current 的方法在单个事务内完成“全部降级 + 目标提升”，
// 任何已提交读取都不会观察到 0 个或 2 个当前版本。
type NotebookVersionRepository interface {
	VersionSequencer

	// CreateAsCurrent 分配序号、降级既有当前版本并插入新的当前版本
	CreateAsCurrent(ctx context.Context, version *entity.NotebookVersion) error

	// CreateHistorical 仅分配序号并插入，不触碰当前指针（历史导入）
	CreateHistorical(ctx context.Context, version *entity.NotebookVersion) error

	// SetCurrent 将当前指针移动到既有版本，返回提升后的版本（含快照）
	SetCurrent(ctx context.Context, notebookID, versionID string) (*entity.NotebookVersion, error)

	// GetCurrent 获取当前版本（含快照），笔记尚无历史时返回 nil
	GetCurrent(ctx context.Context, notebookID string) (*entity.NotebookVersion, error)

	// GetByID 获取指定版本（含快照），版本不属于该笔记时返回 nil
	GetByID(ctx context.Context, notebookID, versionID string) (*entity.NotebookVersion, error)

	// List 按版本号倒序分页列出历史，投影不含快照载荷
	List(ctx context.Context, notebookID string, filter *VersionFilter, pagination Pagination) (*PagedResult[*entity.NotebookVersion], error)

	// CountByNotebook 统计笔记的版本总数
	CountByNotebook(ctx context.Context, notebookID string) (int64, error)

	// Prune 删除保留窗口之外的最旧版本，当前版本无条件保留，返回删除数
	Prune(ctx context.Context, notebookID string, keepCount int) (int64, error)

	// DeleteByNotebook 删除笔记的全部版本（笔记删除时级联调用）
	DeleteByNotebook(ctx context.Context, notebookID string) error
}
