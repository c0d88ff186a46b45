// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nb-studio-api/internal/domain/entity"
	"nb-studio-api/internal/domain/repository"
	apperrors "nb-studio-api/pkg/errors"
)

// NotebookVersionRepository 笔记版本仓储实现
//
// 版本号分配依赖 notebooks 行的 FOR UPDATE 行级锁：同一笔记的并发提交
// 在锁上排队，不同笔记互不阻塞。(notebook_id, version_number) 唯一索引
// 作为锁失效时的最后防线，违反时映射为 Conflict 由上层重试。
type NotebookVersionRepository struct {
	client *Client
}

// NewNotebookVersionRepository 创建笔记版本仓储
func NewNotebookVersionRepository(client *Client) *NotebookVersionRepository {
	return &NotebookVersionRepository{client: client}
}

// lockNotebook 锁定笔记行，串行化该笔记的版本写入
func lockNotebook(tx *gorm.DB, notebookID string) error {
	var notebook entity.Notebook
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&notebook, "id = ?", notebookID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.ErrNotebookNotFound
		}
		return fmt.Errorf("failed to lock notebook: %w", err)
	}
	return nil
}

// nextVersionNumber 在已持锁的事务内计算下一个版本号
func nextVersionNumber(tx *gorm.DB, notebookID string) (int, error) {
	var maxNum *int
	err := tx.Model(&entity.NotebookVersion{}).
		Where("notebook_id = ?", notebookID).
		Select("MAX(version_number)").
		Scan(&maxNum).Error
	if err != nil {
		return 0, fmt.Errorf("failed to get max version number: %w", err)
	}
	if maxNum == nil {
		return 1, nil
	}
	return *maxNum + 1, nil
}

// NextVersionNumber 分配下一个版本号
// 锁在事务提交前不释放，调用方必须通过 TxManager 将分配与写入放在同一事务。
func (r *NotebookVersionRepository) NextVersionNumber(ctx context.Context, notebookID string) (int, error) {
	ctx, span := tracer.Start(ctx, "postgres.NotebookVersionRepository.NextVersionNumber")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := lockNotebook(db, notebookID); err != nil {
		span.RecordError(err)
		return 0, err
	}
	num, err := nextVersionNumber(db, notebookID)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return num, nil
}

// CreateAsCurrent 提交新版本并移动当前指针
// 单个事务内完成：锁笔记行、分配版本号、降级既有当前版本、插入新版本。
func (r *NotebookVersionRepository) CreateAsCurrent(ctx context.Context, version *entity.NotebookVersion) error {
	ctx, span := tracer.Start(ctx, "postgres.NotebookVersionRepository.CreateAsCurrent")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockNotebook(tx, version.NotebookID); err != nil {
			return err
		}

		num, err := nextVersionNumber(tx, version.NotebookID)
		if err != nil {
			return err
		}
		version.VersionNumber = num

		if err := tx.Model(&entity.NotebookVersion{}).
			Where("notebook_id = ? AND is_current = ?", version.NotebookID, true).
			Update("is_current", false).Error; err != nil {
			return fmt.Errorf("failed to demote current version: %w", err)
		}

		version.IsCurrent = true
		if err := tx.Create(version).Error; err != nil {
			return translateError(err, "failed to create version")
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// CreateHistorical 插入不改变当前指针的历史版本
func (r *NotebookVersionRepository) CreateHistorical(ctx context.Context, version *entity.NotebookVersion) error {
	ctx, span := tracer.Start(ctx, "postgres.NotebookVersionRepository.CreateHistorical")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockNotebook(tx, version.NotebookID); err != nil {
			return err
		}

		num, err := nextVersionNumber(tx, version.NotebookID)
		if err != nil {
			return err
		}
		version.VersionNumber = num
		version.IsCurrent = false

		if err := tx.Create(version).Error; err != nil {
			return translateError(err, "failed to create historical version")
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// SetCurrent 将当前指针移动到既有版本
// 目标版本已是当前版本时为幂等空操作。
func (r *NotebookVersionRepository) SetCurrent(ctx context.Context, notebookID, versionID string) (*entity.NotebookVersion, error) {
	ctx, span := tracer.Start(ctx, "postgres.NotebookVersionRepository.SetCurrent")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var promoted *entity.NotebookVersion
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockNotebook(tx, notebookID); err != nil {
			return err
		}

		var version entity.NotebookVersion
		if err := tx.First(&version, "id = ? AND notebook_id = ?", versionID, notebookID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.ErrVersionNotFound
			}
			return fmt.Errorf("failed to get version: %w", err)
		}

		if version.IsCurrent {
			promoted = &version
			return nil
		}

		if err := tx.Model(&entity.NotebookVersion{}).
			Where("notebook_id = ? AND is_current = ?", notebookID, true).
			Update("is_current", false).Error; err != nil {
			return fmt.Errorf("failed to demote current version: %w", err)
		}
		if err := tx.Model(&entity.NotebookVersion{}).
			Where("id = ?", version.ID).
			Update("is_current", true).Error; err != nil {
			return fmt.Errorf("failed to promote version: %w", err)
		}

		version.IsCurrent = true
		promoted = &version
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return promoted, nil
}

// GetCurrent 获取当前版本（含快照）
func (r *NotebookVersionRepository) GetCurrent(ctx context.Context, notebookID string) (*entity.NotebookVersion, error) {
	ctx, span := tracer.Start(ctx, "postgres.NotebookVersionRepository.GetCurrent")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var version entity.NotebookVersion
	if err := db.First(&version, "notebook_id = ? AND is_current = ?", notebookID, true).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get current version: %w", err)
	}
	return &version, nil
}

// GetByID 获取指定版本（含快照）
func (r *NotebookVersionRepository) GetByID(ctx context.Context, notebookID, versionID string) (*entity.NotebookVersion, error) {
	ctx, span := tracer.Start(ctx, "postgres.NotebookVersionRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var version entity.NotebookVersion
	if err := db.First(&version, "id = ? AND notebook_id = ?", versionID, notebookID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get version: %w", err)
	}
	return &version, nil
}

// List 按版本号倒序分页列出历史
// 投影排除 snapshot 列，列表页不拉取快照载荷。
func (r *NotebookVersionRepository) List(ctx context.Context, notebookID string, filter *repository.VersionFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.NotebookVersion], error) {
	ctx, span := tracer.Start(ctx, "postgres.NotebookVersionRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.NotebookVersion{}).Where("notebook_id = ?", notebookID)

	// 应用过滤条件
	if filter != nil {
		if filter.BranchName != "" {
			query = query.Where("branch_name = ?", filter.BranchName)
		}
		if filter.Tag != "" {
			tagJSON, err := json.Marshal([]string{filter.Tag})
			if err != nil {
				return nil, fmt.Errorf("failed to encode tag filter: %w", err)
			}
			query = query.Where("tags @> ?", string(tagJSON))
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count versions: %w", err)
	}

	var versions []*entity.NotebookVersion
	if err := query.Omit("snapshot").
		Order("version_number DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&versions).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}

	return repository.NewPagedResult(versions, total, pagination), nil
}

// CountByNotebook 统计笔记的版本总数
func (r *NotebookVersionRepository) CountByNotebook(ctx context.Context, notebookID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.NotebookVersionRepository.CountByNotebook")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	if err := db.Model(&entity.NotebookVersion{}).
		Where("notebook_id = ?", notebookID).
		Count(&count).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count versions: %w", err)
	}
	return count, nil
}

// Prune 删除保留窗口之外的最旧版本
// 保留窗口按版本号倒序覆盖 keepCount 个非当前版本，当前版本无条件保留，
// 删除从最旧开始。
func (r *NotebookVersionRepository) Prune(ctx context.Context, notebookID string, keepCount int) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.NotebookVersionRepository.Prune")
	defer span.End()

	if keepCount <= 0 {
		return 0, apperrors.ErrInvalidKeepCount
	}

	db := getDB(ctx, r.client.db)
	var pruned int64
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockNotebook(tx, notebookID); err != nil {
			return err
		}

		result := tx.Exec(`
			DELETE FROM notebook_versions
			WHERE notebook_id = ?
			  AND is_current = FALSE
			  AND id NOT IN (
				SELECT id FROM notebook_versions
				WHERE notebook_id = ? AND is_current = FALSE
				ORDER BY version_number DESC
				LIMIT ?
			  )`, notebookID, notebookID, keepCount)
		if result.Error != nil {
			return fmt.Errorf("failed to prune versions: %w", result.Error)
		}
		pruned = result.RowsAffected
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return pruned, nil
}

// DeleteByNotebook 删除笔记的全部版本
func (r *NotebookVersionRepository) DeleteByNotebook(ctx context.Context, notebookID string) error {
	ctx, span := tracer.Start(ctx, "postgres.NotebookVersionRepository.DeleteByNotebook")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.NotebookVersion{}, "notebook_id = ?", notebookID).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete versions: %w", err)
	}
	return nil
}
