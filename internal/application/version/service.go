package version

import (
	"context"
	"encoding/json"
	"time"

	"nb-studio-api/internal/config"
	"nb-studio-api/internal/domain/entity"
	"nb-studio-api/internal/domain/repository"
	"nb-studio-api/internal/infrastructure/messaging"
	"nb-studio-api/internal/infrastructure/persistence/redis"
	apperrors "nb-studio-api/pkg/errors"
	"nb-studio-api/pkg/logger"
	"nb-studio-api/pkg/metrics"
)

// diffCacheTTL 差异结果缓存有效期：版本不可变，结果可以长期缓存
const diffCacheTTL = 24 * time.Hour

// unknownAuthor 身份解析失败时的占位展示名
const unknownAuthor = "unknown"

// Service 版本控制服务
//
// 提交与恢复的写路径在仓储层的单事务内完成序号分配与当前指针切换；
// 本层负责输入校验、冲突重试、变更摘要推导、缓存失效与事件发布。
// cache 与 producer 可为 nil，此时对应能力静默关闭。
type Service struct {
	versions  repository.NotebookVersionRepository
	notebooks repository.NotebookRepository
	spaces    repository.SpaceRepository
	actors    repository.ActorResolver
	cache     *redis.Cache
	producer  *messaging.Producer
	cfg       config.VersioningConfig
	now       func() time.Time
}

// NewService 创建版本控制服务
func NewService(
	versions repository.NotebookVersionRepository,
	notebooks repository.NotebookRepository,
	spaces repository.SpaceRepository,
	actors repository.ActorResolver,
	cache *redis.Cache,
	producer *messaging.Producer,
	cfg config.VersioningConfig,
) *Service {
	return &Service{
		versions:  versions,
		notebooks: notebooks,
		spaces:    spaces,
		actors:    actors,
		cache:     cache,
		producer:  producer,
		cfg:       cfg,
		now:       time.Now,
	}
}

// CommitInput 提交版本的输入
type CommitInput struct {
	NotebookID        string
	SpaceID           string
	Snapshot          json.RawMessage
	CommitMessage     string
	CommitDescription string
	BranchName        string
	Tags              []string
	ChangeSummary     *entity.ChangeSummary
	CreatedBy         string
	// MakeCurrent 为 false 时仅插入历史版本，不移动当前指针
	MakeCurrent bool
}

// Commit 提交新版本
// 快照校验失败立即返回；序号竞争失败按配置退避重试整个提交。
func (s *Service) Commit(ctx context.Context, input CommitInput) (*entity.NotebookVersion, error) {
	start := s.now()
	branch := input.BranchName
	if branch == "" {
		branch = entity.DefaultBranchName
	}

	if _, err := ParseSnapshot(input.Snapshot); err != nil {
		metrics.VersionCommitsTotal.WithLabelValues(branch, "invalid").Inc()
		return nil, err
	}

	notebook, err := s.notebooks.GetByID(ctx, input.NotebookID)
	if err != nil {
		return nil, err
	}
	if notebook == nil {
		metrics.VersionCommitsTotal.WithLabelValues(branch, "not_found").Inc()
		return nil, apperrors.ErrNotebookNotFound
	}

	version := &entity.NotebookVersion{
		NotebookID:        input.NotebookID,
		SpaceID:           input.SpaceID,
		Snapshot:          input.Snapshot,
		CommitMessage:     input.CommitMessage,
		CommitDescription: input.CommitDescription,
		BranchName:        branch,
		Tags:              input.Tags,
		ChangeSummary:     input.ChangeSummary,
		CreatedBy:         input.CreatedBy,
		CreatedAt:         s.now(),
	}
	version.EnsureCommitMessage()
	if version.SpaceID == "" {
		version.SpaceID = notebook.SpaceID
	}

	// 摘要缺省时从与上一当前版本的差异推导；推导失败不阻塞提交
	if version.ChangeSummary == nil {
		version.ChangeSummary = s.deriveChangeSummary(ctx, input.NotebookID, input.Snapshot)
	}

	create := s.versions.CreateAsCurrent
	if !input.MakeCurrent {
		create = s.versions.CreateHistorical
	}

	if err := s.withCommitRetry(ctx, func() error {
		return create(ctx, version)
	}); err != nil {
		metrics.VersionCommitsTotal.WithLabelValues(branch, "error").Inc()
		return nil, err
	}

	metrics.VersionCommitsTotal.WithLabelValues(branch, "ok").Inc()
	metrics.VersionCommitDuration.WithLabelValues(branch).Observe(s.now().Sub(start).Seconds())

	s.afterWrite(ctx, version, messaging.VersionEventCommitted)
	s.maybeEnqueueSweep(ctx, notebook)
	return version, nil
}

// Restore 将当前指针恢复到既有版本
// 不创建新版本行；恢复已是当前版本的目标为幂等空操作。
func (s *Service) Restore(ctx context.Context, notebookID, versionID string) (*entity.NotebookVersion, error) {
	notebook, err := s.notebooks.GetByID(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	if notebook == nil {
		metrics.VersionRestoresTotal.WithLabelValues("not_found").Inc()
		return nil, apperrors.ErrNotebookNotFound
	}

	var restored *entity.NotebookVersion
	if err := s.withCommitRetry(ctx, func() error {
		var rerr error
		restored, rerr = s.versions.SetCurrent(ctx, notebookID, versionID)
		return rerr
	}); err != nil {
		if apperrors.IsCode(err, apperrors.CodeVersionNotFound) {
			metrics.VersionRestoresTotal.WithLabelValues("not_found").Inc()
		} else {
			metrics.VersionRestoresTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	metrics.VersionRestoresTotal.WithLabelValues("ok").Inc()
	s.afterWrite(ctx, restored, messaging.VersionEventRestored)
	return restored, nil
}

// GetCurrent 获取当前版本（含快照）
// 读穿缓存，缓存故障时直接回源；笔记尚无历史时返回 nil。
func (s *Service) GetCurrent(ctx context.Context, notebookID string) (*entity.NotebookVersion, error) {
	if s.cache == nil {
		return s.versions.GetCurrent(ctx, notebookID)
	}

	key := redis.CurrentVersionKey(notebookID)
	if data, err := s.cache.Get(ctx, key); err == nil {
		metrics.CacheHitsTotal.WithLabelValues("current_version").Inc()
		var v entity.NotebookVersion
		if err := json.Unmarshal(data, &v); err == nil {
			return &v, nil
		}
	}
	metrics.CacheMissesTotal.WithLabelValues("current_version").Inc()

	data, err := s.cache.GetOrLoadSafe(ctx, key, s.cfg.SnapshotCacheTTL, func() (interface{}, error) {
		v, lerr := s.versions.GetCurrent(ctx, notebookID)
		if lerr != nil {
			return nil, lerr
		}
		if v == nil {
			return nil, apperrors.ErrVersionNotFound
		}
		return v, nil
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeVersionNotFound) {
			return nil, nil
		}
		if apperrors.IsAppError(err) {
			return nil, err
		}
		// 缓存层故障，回源读取
		logger.FromContext(ctx).Warn("current version cache unavailable, falling back to store",
			"notebook_id", notebookID, "error", err)
		return s.versions.GetCurrent(ctx, notebookID)
	}

	var v entity.NotebookVersion
	if err := json.Unmarshal(data, &v); err != nil {
		return s.versions.GetCurrent(ctx, notebookID)
	}
	return &v, nil
}

// GetVersion 获取指定版本（含快照）
func (s *Service) GetVersion(ctx context.Context, notebookID, versionID string) (*entity.NotebookVersion, error) {
	v, err := s.versions.GetByID(ctx, notebookID, versionID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, apperrors.ErrVersionNotFound
	}
	return v, nil
}

// HistoryEntry 历史列表条目，作者身份已解析
type HistoryEntry struct {
	Version     *entity.NotebookVersion
	AuthorName  string
	AuthorEmail string
}

// ListHistory 按版本号倒序分页列出历史
// 作者身份解析失败降级为占位名，不使整个列表请求失败。
func (s *Service) ListHistory(ctx context.Context, notebookID string, filter *repository.VersionFilter, pagination repository.Pagination) (*repository.PagedResult[*HistoryEntry], error) {
	notebook, err := s.notebooks.GetByID(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	if notebook == nil {
		return nil, apperrors.ErrNotebookNotFound
	}

	page, err := s.versions.List(ctx, notebookID, filter, pagination)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string][2]string, 4)
	entries := make([]*HistoryEntry, 0, len(page.Items))
	for _, v := range page.Items {
		entry := &HistoryEntry{Version: v, AuthorName: unknownAuthor}
		if v.CreatedBy != "" {
			identity, ok := resolved[v.CreatedBy]
			if !ok {
				name, email, rerr := s.actors.ResolveActor(ctx, v.CreatedBy)
				if rerr != nil {
					name, email = unknownAuthor, ""
				}
				identity = [2]string{name, email}
				resolved[v.CreatedBy] = identity
			}
			entry.AuthorName, entry.AuthorEmail = identity[0], identity[1]
		}
		entries = append(entries, entry)
	}

	return &repository.PagedResult[*HistoryEntry]{
		Items:      entries,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

// Diff 计算两个版本之间的结构化差异
// 版本不可变，结果按版本对缓存。任一版本不属于该笔记时返回 NotFound。
func (s *Service) Diff(ctx context.Context, notebookID, fromVersionID, toVersionID string) (*DocumentDiff, error) {
	start := s.now()

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, redis.DiffKey(notebookID, fromVersionID, toVersionID)); err == nil {
			metrics.CacheHitsTotal.WithLabelValues("diff").Inc()
			var cached DocumentDiff
			if err := json.Unmarshal(data, &cached); err == nil {
				metrics.VersionDiffsTotal.WithLabelValues("ok").Inc()
				return &cached, nil
			}
		}
		metrics.CacheMissesTotal.WithLabelValues("diff").Inc()
	}

	from, err := s.versions.GetByID(ctx, notebookID, fromVersionID)
	if err != nil {
		metrics.VersionDiffsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	to, err := s.versions.GetByID(ctx, notebookID, toVersionID)
	if err != nil {
		metrics.VersionDiffsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if from == nil || to == nil {
		metrics.VersionDiffsTotal.WithLabelValues("not_found").Inc()
		return nil, apperrors.ErrVersionNotFound
	}

	diff := DiffDocuments(parseForDiff(from.Snapshot), parseForDiff(to.Snapshot))
	diff.FromVersionID = from.ID
	diff.ToVersionID = to.ID

	metrics.VersionDiffsTotal.WithLabelValues("ok").Inc()
	metrics.VersionDiffDuration.WithLabelValues().Observe(s.now().Sub(start).Seconds())

	if s.cache != nil {
		if err := s.cache.Set(ctx, redis.DiffKey(notebookID, fromVersionID, toVersionID), diff, diffCacheTTL); err != nil {
			logger.FromContext(ctx).Warn("failed to cache diff result", "error", err)
		}
	}
	return diff, nil
}

// Prune 执行保留清理
// keepCount 非正时拒绝；当前版本无条件保留。trigger 标注触发来源。
func (s *Service) Prune(ctx context.Context, notebookID string, keepCount int, trigger string) (int64, error) {
	if keepCount <= 0 {
		metrics.PruneSweepsTotal.WithLabelValues(trigger, "invalid").Inc()
		return 0, apperrors.ErrInvalidKeepCount
	}

	notebook, err := s.notebooks.GetByID(ctx, notebookID)
	if err != nil {
		return 0, err
	}
	if notebook == nil {
		metrics.PruneSweepsTotal.WithLabelValues(trigger, "not_found").Inc()
		return 0, apperrors.ErrNotebookNotFound
	}

	pruned, err := s.versions.Prune(ctx, notebookID, keepCount)
	if err != nil {
		metrics.PruneSweepsTotal.WithLabelValues(trigger, "error").Inc()
		return 0, err
	}

	metrics.PruneSweepsTotal.WithLabelValues(trigger, "ok").Inc()
	metrics.VersionsPrunedTotal.Add(float64(pruned))

	if pruned > 0 {
		s.invalidateCache(ctx, notebookID)
		s.publishEvent(ctx, &messaging.VersionEventMessage{
			EventType:  messaging.VersionEventPruned,
			SpaceID:    notebook.SpaceID,
			NotebookID: notebookID,
		})
	}
	return pruned, nil
}

// KeepCountFor 解析笔记所属空间的保留数量
// 空间设置覆盖全局默认；作为写路径的附属查询，失败时退回全局默认。
func (s *Service) KeepCountFor(ctx context.Context, spaceID string) int {
	keep := s.cfg.Retention.DefaultKeepCount
	if spaceID == "" || s.spaces == nil {
		return keep
	}
	space, err := s.spaces.GetByID(ctx, spaceID)
	if err != nil || space == nil || space.Settings == nil {
		return keep
	}
	if space.Settings.RetentionKeepCount > 0 {
		keep = space.Settings.RetentionKeepCount
	}
	return keep
}

// deriveChangeSummary 从与当前版本的差异推导变更摘要
func (s *Service) deriveChangeSummary(ctx context.Context, notebookID string, snapshot json.RawMessage) *entity.ChangeSummary {
	current, err := s.versions.GetCurrent(ctx, notebookID)
	if err != nil {
		logger.FromContext(ctx).Warn("failed to load current version for change summary",
			"notebook_id", notebookID, "error", err)
		return nil
	}

	var previous json.RawMessage
	if current != nil {
		previous = current.Snapshot
	}
	return DiffDocuments(parseForDiff(previous), parseForDiff(snapshot)).ChangeSummary()
}

// withCommitRetry 对可重试错误执行有界指数退避重试
func (s *Service) withCommitRetry(ctx context.Context, fn func() error) error {
	limit := s.cfg.CommitRetryLimit
	if limit < 0 {
		limit = 0
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !apperrors.IsRetryable(err) || attempt >= limit {
			return err
		}

		metrics.VersionCommitRetries.WithLabelValues(retryReason(err)).Inc()
		delay := backoffDelay(s.cfg.CommitRetryBackoff, attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// retryReason 重试原因标签
func retryReason(err error) string {
	switch {
	case apperrors.IsCode(err, apperrors.CodeCommitConflict), apperrors.IsCode(err, apperrors.CodeConflict):
		return "conflict"
	case apperrors.IsCode(err, apperrors.CodeServiceUnavailable):
		return "unavailable"
	default:
		return "other"
	}
}

// backoffDelay 计算第 attempt 次重试前的退避时长
func backoffDelay(cfg config.BackoffConfig, attempt int) time.Duration {
	delay := cfg.Initial
	if delay <= 0 {
		delay = 50 * time.Millisecond
	}
	multiplier := cfg.Multiplier
	if multiplier <= 1 {
		multiplier = 2
	}
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * multiplier)
		if cfg.Max > 0 && delay > cfg.Max {
			return cfg.Max
		}
	}
	return delay
}

// afterWrite 写路径成功后的附属动作：缓存失效与事件发布
func (s *Service) afterWrite(ctx context.Context, version *entity.NotebookVersion, eventType string) {
	s.invalidateCache(ctx, version.NotebookID)
	s.publishEvent(ctx, &messaging.VersionEventMessage{
		EventType:     eventType,
		SpaceID:       version.SpaceID,
		NotebookID:    version.NotebookID,
		VersionID:     version.ID,
		VersionNumber: version.VersionNumber,
		BranchName:    version.BranchName,
		ActorID:       version.CreatedBy,
	})
}

// maybeEnqueueSweep 版本数超出保留窗口时异步入队清理
func (s *Service) maybeEnqueueSweep(ctx context.Context, notebook *entity.Notebook) {
	if s.producer == nil {
		return
	}

	keep := s.cfg.Retention.DefaultKeepCount
	if notebook.SpaceID != "" && s.spaces != nil {
		space, err := s.spaces.GetByID(ctx, notebook.SpaceID)
		if err == nil && space != nil && space.Settings != nil {
			if !space.Settings.AutoPruneEnabled {
				return
			}
			if space.Settings.RetentionKeepCount > 0 {
				keep = space.Settings.RetentionKeepCount
			}
		}
	}
	if keep <= 0 {
		return
	}

	count, err := s.versions.CountByNotebook(ctx, notebook.ID)
	if err != nil || count <= int64(keep)+1 {
		return
	}

	if _, err := s.producer.PublishRetentionSweep(ctx, &messaging.RetentionSweepMessage{
		SpaceID:    notebook.SpaceID,
		NotebookID: notebook.ID,
		KeepCount:  keep,
	}); err != nil {
		logger.FromContext(ctx).Warn("failed to enqueue retention sweep",
			"notebook_id", notebook.ID, "error", err)
	}
}

// invalidateCache 使笔记相关的版本缓存失效
func (s *Service) invalidateCache(ctx context.Context, notebookID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateNotebook(ctx, notebookID); err != nil {
		logger.FromContext(ctx).Warn("failed to invalidate version cache",
			"notebook_id", notebookID, "error", err)
	}
}

// publishEvent 发布版本生命周期事件
func (s *Service) publishEvent(ctx context.Context, event *messaging.VersionEventMessage) {
	if s.producer == nil {
		return
	}
	if _, err := s.producer.PublishVersionEvent(ctx, event); err != nil {
		logger.FromContext(ctx).Warn("failed to publish version event",
			"notebook_id", event.NotebookID, "event_type", event.EventType, "error", err)
	}
}
