// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"nb-studio-api/internal/domain/entity"
	"nb-studio-api/internal/domain/repository"
)

// SpaceRepository 空间仓储实现
type SpaceRepository struct {
	client *Client
}

// NewSpaceRepository 创建空间仓储
func NewSpaceRepository(client *Client) *SpaceRepository {
	return &SpaceRepository{client: client}
}

// Create 创建空间
func (r *SpaceRepository) Create(ctx context.Context, space *entity.Space) error {
	ctx, span := tracer.Start(ctx, "postgres.SpaceRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(space).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create space: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取空间
func (r *SpaceRepository) GetByID(ctx context.Context, id string) (*entity.Space, error) {
	ctx, span := tracer.Start(ctx, "postgres.SpaceRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var space entity.Space
	if err := db.First(&space, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get space: %w", err)
	}
	return &space, nil
}

// Update 更新空间
func (r *SpaceRepository) Update(ctx context.Context, space *entity.Space) error {
	ctx, span := tracer.Start(ctx, "postgres.SpaceRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(space).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update space: %w", err)
	}
	return nil
}

// Delete 删除空间
func (r *SpaceRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.SpaceRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Space{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete space: %w", err)
	}
	return nil
}

// List 获取空间列表
func (r *SpaceRepository) List(ctx context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.Space], error) {
	ctx, span := tracer.Start(ctx, "postgres.SpaceRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Space{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count spaces: %w", err)
	}

	var spaces []*entity.Space
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&spaces).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list spaces: %w", err)
	}

	return repository.NewPagedResult(spaces, total, pagination), nil
}

// ListByOwner 获取指定用户拥有的全部空间
func (r *SpaceRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Space, error) {
	ctx, span := tracer.Start(ctx, "postgres.SpaceRepository.ListByOwner")
	defer span.End()

	db := getDB(ctx, r.client.db)

	var spaces []*entity.Space
	if err := db.Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&spaces).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list spaces by owner: %w", err)
	}
	return spaces, nil
}
