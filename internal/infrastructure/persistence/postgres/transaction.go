// Package postgres 提供 PostgreSQL 数据库访问层实现
package postgres

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"nb-studio-api/internal/domain/repository"
	apperrors "nb-studio-api/pkg/errors"
)

// TxManager 事务管理器
type TxManager struct {
	client *Client
}

// NewTxManager 创建事务管理器
func NewTxManager(client *Client) *TxManager {
	return &TxManager{client: client}
}

// WithTransaction 在事务中执行操作
// 已在事务中时复用外层事务，保证嵌套调用只有一个事务边界。
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := getTxFromContext(ctx); tx != nil {
		return fn(ctx)
	}

	return m.client.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, repository.TxKey{}, tx)
		return fn(txCtx)
	})
}

// getTxFromContext 从上下文获取事务
func getTxFromContext(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(repository.TxKey{}).(*gorm.DB); ok {
		return tx
	}
	return nil
}

// getDB 根据上下文选择事务或普通连接
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := getTxFromContext(ctx); tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}

// pgUniqueViolation PostgreSQL 唯一约束冲突错误码
const pgUniqueViolation = "23505"

// translateError 将驱动层错误映射为应用错误
// 唯一约束冲突（并发提交竞争同一版本号）映射为可重试的 Conflict，
// 连接类错误映射为 Unavailable，其余原样包装为数据库错误。
func translateError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		return apperrors.Wrap(err, apperrors.CodeCommitConflict, msg)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Wrap(err, apperrors.CodeCommitConflict, msg)
	}
	if errors.Is(err, gorm.ErrInvalidTransaction) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.CodeServiceUnavailable, msg)
	}

	return apperrors.Wrap(err, apperrors.CodeDatabaseError, msg)
}
