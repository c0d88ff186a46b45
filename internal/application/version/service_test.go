package version

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nb-studio-api/internal/config"
	"nb-studio-api/internal/domain/entity"
	"nb-studio-api/internal/domain/repository"
	apperrors "nb-studio-api/pkg/errors"
)

// memoryStore 内存版的版本存储，镜像持久层的加锁与保留语义
type memoryStore struct {
	mu        sync.Mutex
	notebooks map[string]*entity.Notebook
	spaces    map[string]*entity.Space
	versions  map[string][]*entity.NotebookVersion
	actors    map[string][2]string
	nextID    int

	// conflictsLeft 注入的连续提交冲突次数
	conflictsLeft int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		notebooks: make(map[string]*entity.Notebook),
		spaces:    make(map[string]*entity.Space),
		versions:  make(map[string][]*entity.NotebookVersion),
		actors:    make(map[string][2]string),
	}
}

func (s *memoryStore) addNotebook(id, spaceID string) {
	s.notebooks[id] = &entity.Notebook{ID: id, SpaceID: spaceID, Title: "nb " + id}
}

func (s *memoryStore) genID() string {
	s.nextID++
	return fmt.Sprintf("v-%04d", s.nextID)
}

func (s *memoryStore) NextVersionNumber(_ context.Context, notebookID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextLocked(notebookID), nil
}

func (s *memoryStore) nextLocked(notebookID string) int {
	max := 0
	for _, v := range s.versions[notebookID] {
		if v.VersionNumber > max {
			max = v.VersionNumber
		}
	}
	return max + 1
}

func (s *memoryStore) CreateAsCurrent(_ context.Context, version *entity.NotebookVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflictsLeft > 0 {
		s.conflictsLeft--
		return apperrors.ErrCommitConflict
	}
	version.VersionNumber = s.nextLocked(version.NotebookID)
	for _, v := range s.versions[version.NotebookID] {
		v.IsCurrent = false
	}
	version.ID = s.genID()
	version.IsCurrent = true
	s.versions[version.NotebookID] = append(s.versions[version.NotebookID], version)
	return nil
}

func (s *memoryStore) CreateHistorical(_ context.Context, version *entity.NotebookVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	version.VersionNumber = s.nextLocked(version.NotebookID)
	version.ID = s.genID()
	version.IsCurrent = false
	s.versions[version.NotebookID] = append(s.versions[version.NotebookID], version)
	return nil
}

func (s *memoryStore) SetCurrent(_ context.Context, notebookID, versionID string) (*entity.NotebookVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var target *entity.NotebookVersion
	for _, v := range s.versions[notebookID] {
		if v.ID == versionID {
			target = v
			break
		}
	}
	if target == nil {
		return nil, apperrors.ErrVersionNotFound
	}
	for _, v := range s.versions[notebookID] {
		v.IsCurrent = false
	}
	target.IsCurrent = true
	return target, nil
}

func (s *memoryStore) GetCurrent(_ context.Context, notebookID string) (*entity.NotebookVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.versions[notebookID] {
		if v.IsCurrent {
			return v, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) GetByID(_ context.Context, notebookID, versionID string) (*entity.NotebookVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.versions[notebookID] {
		if v.ID == versionID {
			return v, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) List(_ context.Context, notebookID string, filter *repository.VersionFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.NotebookVersion], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*entity.NotebookVersion
	for _, v := range s.versions[notebookID] {
		if filter != nil && filter.BranchName != "" && v.BranchName != filter.BranchName {
			continue
		}
		matched = append(matched, v.Summary())
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].VersionNumber > matched[j].VersionNumber
	})

	total := int64(len(matched))
	start := pagination.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + pagination.Limit()
	if end > len(matched) {
		end = len(matched)
	}
	return repository.NewPagedResult(matched[start:end], total, pagination), nil
}

func (s *memoryStore) CountByNotebook(_ context.Context, notebookID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.versions[notebookID])), nil
}

func (s *memoryStore) Prune(_ context.Context, notebookID string, keepCount int) (int64, error) {
	if keepCount <= 0 {
		return 0, apperrors.ErrInvalidKeepCount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var nonCurrent []*entity.NotebookVersion
	for _, v := range s.versions[notebookID] {
		if !v.IsCurrent {
			nonCurrent = append(nonCurrent, v)
		}
	}
	sort.Slice(nonCurrent, func(i, j int) bool {
		return nonCurrent[i].VersionNumber > nonCurrent[j].VersionNumber
	})

	doomed := make(map[string]bool)
	for i := keepCount; i < len(nonCurrent); i++ {
		doomed[nonCurrent[i].ID] = true
	}

	var kept []*entity.NotebookVersion
	for _, v := range s.versions[notebookID] {
		if !doomed[v.ID] {
			kept = append(kept, v)
		}
	}
	s.versions[notebookID] = kept
	return int64(len(doomed)), nil
}

func (s *memoryStore) DeleteByNotebook(_ context.Context, notebookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.versions, notebookID)
	return nil
}

// notebookStore 笔记仓储视图
type notebookStore struct{ *memoryStore }

func (s notebookStore) Create(_ context.Context, nb *entity.Notebook) error {
	s.notebooks[nb.ID] = nb
	return nil
}

func (s notebookStore) GetByID(_ context.Context, id string) (*entity.Notebook, error) {
	return s.notebooks[id], nil
}

func (s notebookStore) Update(_ context.Context, nb *entity.Notebook) error {
	s.notebooks[nb.ID] = nb
	return nil
}

func (s notebookStore) Delete(_ context.Context, id string) error {
	delete(s.notebooks, id)
	return nil
}

func (s notebookStore) List(_ context.Context, _ *repository.NotebookFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Notebook], error) {
	var items []*entity.Notebook
	for _, nb := range s.notebooks {
		items = append(items, nb)
	}
	return repository.NewPagedResult(items, int64(len(items)), pagination), nil
}

func (s notebookStore) ListIDs(_ context.Context, _, _ int) ([]string, error) {
	var ids []string
	for id := range s.notebooks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// spaceStore 空间仓储视图
type spaceStore struct{ *memoryStore }

func (s spaceStore) Create(_ context.Context, sp *entity.Space) error {
	s.spaces[sp.ID] = sp
	return nil
}

func (s spaceStore) GetByID(_ context.Context, id string) (*entity.Space, error) {
	return s.spaces[id], nil
}

func (s spaceStore) Update(_ context.Context, sp *entity.Space) error {
	s.spaces[sp.ID] = sp
	return nil
}

func (s spaceStore) Delete(_ context.Context, id string) error {
	delete(s.spaces, id)
	return nil
}

func (s spaceStore) List(_ context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.Space], error) {
	var items []*entity.Space
	for _, sp := range s.spaces {
		items = append(items, sp)
	}
	return repository.NewPagedResult(items, int64(len(items)), pagination), nil
}

func (s spaceStore) ListByOwner(_ context.Context, ownerID string) ([]*entity.Space, error) {
	var items []*entity.Space
	for _, sp := range s.spaces {
		if sp.OwnerID == ownerID {
			items = append(items, sp)
		}
	}
	return items, nil
}

// actorStore 身份解析视图
type actorStore struct{ *memoryStore }

func (s actorStore) ResolveActor(_ context.Context, actorID string) (string, string, error) {
	identity, ok := s.actors[actorID]
	if !ok {
		return "", "", fmt.Errorf("actor %s not found", actorID)
	}
	return identity[0], identity[1], nil
}

func newTestService(store *memoryStore) *Service {
	cfg := config.VersioningConfig{
		CommitRetryLimit: 3,
		CommitRetryBackoff: config.BackoffConfig{
			Initial:    time.Millisecond,
			Max:        5 * time.Millisecond,
			Multiplier: 2,
		},
		Retention: config.RetentionConfig{DefaultKeepCount: 50},
	}
	return NewService(store, notebookStore{store}, spaceStore{store}, actorStore{store}, nil, nil, cfg)
}

func mustCommit(t *testing.T, svc *Service, notebookID, content string) *entity.NotebookVersion {
	t.Helper()
	v, err := svc.Commit(context.Background(), CommitInput{
		NotebookID:  notebookID,
		Snapshot:    snapshotJSON(t, textCell("c1", "markdown", content)),
		CreatedBy:   "u1",
		MakeCurrent: true,
	})
	require.NoError(t, err)
	return v
}

// requireSingleCurrent 校验单一当前版本不变式
func requireSingleCurrent(t *testing.T, store *memoryStore, notebookID string) *entity.NotebookVersion {
	t.Helper()
	store.mu.Lock()
	defer store.mu.Unlock()
	var current *entity.NotebookVersion
	for _, v := range store.versions[notebookID] {
		if v.IsCurrent {
			require.Nil(t, current, "more than one current version")
			current = v
		}
	}
	require.NotNil(t, current, "no current version")
	return current
}

func TestCommitAssignsSequentialNumbers(t *testing.T) {
	store := newMemoryStore()
	store.addNotebook("nb1", "")
	svc := newTestService(store)

	v1 := mustCommit(t, svc, "nb1", "a")
	v2 := mustCommit(t, svc, "nb1", "b")
	v3 := mustCommit(t, svc, "nb1", "c")

	assert.Equal(t, 1, v1.VersionNumber)
	assert.Equal(t, 2, v2.VersionNumber)
	assert.Equal(t, 3, v3.VersionNumber)

	current := requireSingleCurrent(t, store, "nb1")
	assert.Equal(t, v3.ID, current.ID)
}

func TestCommitDefaultsMessageAndBranch(t *testing.T) {
	store := newMemoryStore()
	store.addNotebook("nb1", "")
	svc := newTestService(store)

	v := mustCommit(t, svc, "nb1", "a")
	assert.Equal(t, entity.DefaultBranchName, v.BranchName)
	assert.True(t, strings.HasPrefix(v.CommitMessage, "Auto-save "), "got %q", v.CommitMessage)
}

func TestCommitRejectsMalformedSnapshot(t *testing.T) {
	store := newMemoryStore()
	store.addNotebook("nb1", "")
	svc := newTestService(store)

	_, err := svc.Commit(context.Background(), CommitInput{
		NotebookID:  "nb1",
		Snapshot:    json.RawMessage(`{"cells":`),
		MakeCurrent: true,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidSnapshot))
}

func TestCommitUnknownNotebook(t *testing.T) {
	svc := newTestService(newMemoryStore())

	_, err := svc.Commit(context.Background(), CommitInput{
		NotebookID:  "missing",
		Snapshot:    json.RawMessage(`{"cells":[]}`),
		MakeCurrent: true,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotebookNotFound))
}

func TestCommitRetriesOnConflict(t *testing.T) {
	t.Run("recovers within retry budget", func(t *testing.T) {
		store := newMemoryStore()
		store.addNotebook("nb1", "")
		store.conflictsLeft = 2
		svc := newTestService(store)

		v := mustCommit(t, svc, "nb1", "a")
		assert.Equal(t, 1, v.VersionNumber)
	})

	t.Run("surfaces conflict after budget exhausted", func(t *testing.T) {
		store := newMemoryStore()
		store.addNotebook("nb1", "")
		store.conflictsLeft = 10
		svc := newTestService(store)

		_, err := svc.Commit(context.Background(), CommitInput{
			NotebookID:  "nb1",
			Snapshot:    json.RawMessage(`{"cells":[]}`),
			MakeCurrent: true,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeCommitConflict))
	})
}

func TestCommitDerivesChangeSummary(t *testing.T) {
	store := newMemoryStore()
	store.addNotebook("nb1", "")
	svc := newTestService(store)

	v1 := mustCommit(t, svc, "nb1", "a")
	require.NotNil(t, v1.ChangeSummary)
	assert.Equal(t, 1, v1.ChangeSummary.CellsAdded)

	v2, err := svc.Commit(context.Background(), CommitInput{
		NotebookID: "nb1",
		Snapshot: snapshotJSON(t,
			textCell("c1", "markdown", "a"),
			textCell("c2", "code", "print(1)"),
		),
		MakeCurrent: true,
	})
	require.NoError(t, err)
	require.NotNil(t, v2.ChangeSummary)
	assert.Equal(t, 1, v2.ChangeSummary.CellsAdded)
	assert.Equal(t, 0, v2.ChangeSummary.CellsRemoved)
	assert.Equal(t, 0, v2.ChangeSummary.CellsChanged)
}

func TestCommitHistoricalDoesNotMovePointer(t *testing.T) {
	store := newMemoryStore()
	store.addNotebook("nb1", "")
	svc := newTestService(store)

	v1 := mustCommit(t, svc, "nb1", "a")
	v2, err := svc.Commit(context.Background(), CommitInput{
		NotebookID:  "nb1",
		Snapshot:    snapshotJSON(t, textCell("c1", "markdown", "b")),
		MakeCurrent: false,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, v2.VersionNumber)
	assert.False(t, v2.IsCurrent)

	current := requireSingleCurrent(t, store, "nb1")
	assert.Equal(t, v1.ID, current.ID)
}

func TestRestore(t *testing.T) {
	store := newMemoryStore()
	store.addNotebook("nb1", "")
	svc := newTestService(store)
	ctx := context.Background()

	v1 := mustCommit(t, svc, "nb1", "a")
	mustCommit(t, svc, "nb1", "b")
	v3 := mustCommit(t, svc, "nb1", "c")

	current, err := svc.GetCurrent(ctx, "nb1")
	require.NoError(t, err)
	assert.Equal(t, v3.ID, current.ID)

	restored, err := svc.Restore(ctx, "nb1", v1.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.ID, restored.ID)
	assert.True(t, restored.IsCurrent)
	// 恢复结果携带完整快照，调用方无需再查一次
	assert.JSONEq(t, string(v1.Snapshot), string(restored.Snapshot))

	current = requireSingleCurrent(t, store, "nb1")
	assert.Equal(t, v1.ID, current.ID)

	// 历史不变：恢复不创建新版本
	count, err := store.CountByNotebook(ctx, "nb1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	// 恢复到已是当前的版本为幂等操作
	restored, err = svc.Restore(ctx, "nb1", v1.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.ID, restored.ID)
	requireSingleCurrent(t, store, "nb1")
}

func TestRestoreUnknownVersion(t *testing.T) {
	store := newMemoryStore()
	store.addNotebook("nb1", "")
	svc := newTestService(store)

	mustCommit(t, svc, "nb1", "a")
	_, err := svc.Restore(context.Background(), "nb1", "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeVersionNotFound))
}

func TestPrune(t *testing.T) {
	t.Run("keeps window plus current", func(t *testing.T) {
		store := newMemoryStore()
		store.addNotebook("nb1", "")
		svc := newTestService(store)
		ctx := context.Background()

		for i := 0; i < 5; i++ {
			mustCommit(t, svc, "nb1", fmt.Sprintf("content %d", i))
		}

		pruned, err := svc.Prune(ctx, "nb1", 2, "api")
		require.NoError(t, err)
		assert.EqualValues(t, 2, pruned)

		remaining := make([]int, 0, 3)
		store.mu.Lock()
		for _, v := range store.versions["nb1"] {
			remaining = append(remaining, v.VersionNumber)
		}
		store.mu.Unlock()
		sort.Ints(remaining)
		assert.Equal(t, []int{3, 4, 5}, remaining)
	})

	t.Run("current version survives outside window", func(t *testing.T) {
		store := newMemoryStore()
		store.addNotebook("nb1", "")
		svc := newTestService(store)
		ctx := context.Background()

		v1 := mustCommit(t, svc, "nb1", "a")
		for i := 1; i < 5; i++ {
			mustCommit(t, svc, "nb1", fmt.Sprintf("content %d", i))
		}
		_, err := svc.Restore(ctx, "nb1", v1.ID)
		require.NoError(t, err)

		pruned, err := svc.Prune(ctx, "nb1", 2, "api")
		require.NoError(t, err)
		assert.EqualValues(t, 2, pruned)

		remaining := make([]int, 0, 3)
		store.mu.Lock()
		for _, v := range store.versions["nb1"] {
			remaining = append(remaining, v.VersionNumber)
		}
		store.mu.Unlock()
		sort.Ints(remaining)
		assert.Equal(t, []int{1, 4, 5}, remaining)

		current := requireSingleCurrent(t, store, "nb1")
		assert.Equal(t, v1.ID, current.ID)
	})

	t.Run("rejects non positive keep count", func(t *testing.T) {
		store := newMemoryStore()
		store.addNotebook("nb1", "")
		svc := newTestService(store)

		_, err := svc.Prune(context.Background(), "nb1", 0, "api")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidKeepCount))
	})
}

func TestListHistoryResolvesAuthors(t *testing.T) {
	store := newMemoryStore()
	store.addNotebook("nb1", "")
	store.actors["u1"] = [2]string{"Ada", "ada@example.com"}
	svc := newTestService(store)
	ctx := context.Background()

	mustCommit(t, svc, "nb1", "a")
	_, err := svc.Commit(ctx, CommitInput{
		NotebookID:  "nb1",
		Snapshot:    snapshotJSON(t, textCell("c1", "markdown", "b")),
		CreatedBy:   "ghost",
		MakeCurrent: true,
	})
	require.NoError(t, err)

	page, err := svc.ListHistory(ctx, "nb1", nil, repository.NewPagination(1, 10))
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	// 倒序：最新在前
	assert.Equal(t, 2, page.Items[0].Version.VersionNumber)
	assert.Equal(t, unknownAuthor, page.Items[0].AuthorName)
	assert.Equal(t, "Ada", page.Items[1].AuthorName)
	assert.Equal(t, "ada@example.com", page.Items[1].AuthorEmail)

	// 列表投影不携带快照载荷
	assert.Nil(t, page.Items[0].Version.Snapshot)
}

func TestDiffThroughService(t *testing.T) {
	store := newMemoryStore()
	store.addNotebook("nb1", "")
	svc := newTestService(store)
	ctx := context.Background()

	v1, err := svc.Commit(ctx, CommitInput{
		NotebookID:  "nb1",
		Snapshot:    snapshotJSON(t, textCell("c1", "markdown", "a")),
		MakeCurrent: true,
	})
	require.NoError(t, err)
	v2, err := svc.Commit(ctx, CommitInput{
		NotebookID: "nb1",
		Snapshot: snapshotJSON(t,
			textCell("c1", "markdown", "a"),
			textCell("c2", "code", "print(1)"),
		),
		MakeCurrent: true,
	})
	require.NoError(t, err)

	t.Run("diff against self is empty", func(t *testing.T) {
		diff, err := svc.Diff(ctx, "nb1", v1.ID, v1.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, diff.Summary.CellsAdded)
		assert.Equal(t, 0, diff.Summary.CellsRemoved)
		assert.Equal(t, 0, diff.Summary.CellsChanged)
		assert.Equal(t, 0, diff.Summary.LinesAdded+diff.Summary.LinesRemoved)
	})

	t.Run("reports added cell", func(t *testing.T) {
		diff, err := svc.Diff(ctx, "nb1", v1.ID, v2.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, diff.Summary.CellsAdded)
		assert.Equal(t, 0, diff.Summary.CellsRemoved)
		assert.Equal(t, 0, diff.Summary.CellsChanged)
		assert.Equal(t, v1.ID, diff.FromVersionID)
		assert.Equal(t, v2.ID, diff.ToVersionID)
	})

	t.Run("unknown version", func(t *testing.T) {
		_, err := svc.Diff(ctx, "nb1", v1.ID, "missing")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeVersionNotFound))
	})
}

func TestConcurrentCommitsKeepNumbersUnique(t *testing.T) {
	store := newMemoryStore()
	store.addNotebook("nb1", "")
	svc := newTestService(store)

	const writers = 8
	var wg sync.WaitGroup
	numbers := make(chan int, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := svc.Commit(context.Background(), CommitInput{
				NotebookID:  "nb1",
				Snapshot:    json.RawMessage(`{"cells":[]}`),
				MakeCurrent: true,
			})
			if err == nil {
				numbers <- v.VersionNumber
			}
		}(i)
	}
	wg.Wait()
	close(numbers)

	seen := make(map[int]bool)
	count := 0
	for n := range numbers {
		assert.False(t, seen[n], "duplicate version number %d", n)
		seen[n] = true
		count++
	}
	assert.Equal(t, writers, count)
	requireSingleCurrent(t, store, "nb1")
}
