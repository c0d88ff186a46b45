package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nb-studio-api/internal/domain/entity"
)

func sampleVersion() *entity.NotebookVersion {
	return &entity.NotebookVersion{
		ID:            "v-0001",
		NotebookID:    "nb-1",
		VersionNumber: 3,
		Snapshot:      json.RawMessage(`{"cells":[{"id":"c1","type":"markdown","content":"hello"}]}`),
		CommitMessage: "update intro",
		BranchName:    "main",
		IsCurrent:     true,
		CreatedAt:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

// 恢复与单版本查询走详情 DTO，快照载荷必须随响应返回
func TestVersionDetailCarriesSnapshot(t *testing.T) {
	v := sampleVersion()

	detail := ToVersionDetailDTO(v)
	require.NotNil(t, detail)
	assert.JSONEq(t, string(v.Snapshot), string(detail.Snapshot))

	body, err := json.Marshal(detail)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.Contains(t, decoded, "snapshot")
	assert.JSONEq(t, string(v.Snapshot), string(decoded["snapshot"]))
}

// 列表条目不携带快照载荷
func TestVersionSummaryOmitsSnapshot(t *testing.T) {
	summary := ToVersionSummaryDTO(sampleVersion())
	require.NotNil(t, summary)

	body, err := json.Marshal(summary)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.NotContains(t, decoded, "snapshot")
}
