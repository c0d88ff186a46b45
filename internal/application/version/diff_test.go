package version

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "nb-studio-api/pkg/errors"
)

func textCell(id, cellType, content string) SnapshotCell {
	raw, _ := json.Marshal(content)
	return SnapshotCell{ID: id, Type: cellType, Content: raw}
}

func snapshotJSON(t *testing.T, cells ...SnapshotCell) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(SnapshotDocument{Cells: cells})
	require.NoError(t, err)
	return raw
}

func TestDiffLines(t *testing.T) {
	t.Run("both empty", func(t *testing.T) {
		assert.Empty(t, DiffLines(nil, nil))
	})

	t.Run("identical", func(t *testing.T) {
		edits := DiffLines([]string{"a", "b"}, []string{"a", "b"})
		require.Len(t, edits, 2)
		for _, e := range edits {
			assert.Equal(t, LineUnchanged, e.Op)
		}
	})

	t.Run("replace middle line", func(t *testing.T) {
		edits := DiffLines([]string{"a", "b", "c"}, []string{"a", "x", "c"})

		var added, removed, unchanged []string
		for _, e := range edits {
			switch e.Op {
			case LineAdded:
				added = append(added, e.Text)
			case LineRemoved:
				removed = append(removed, e.Text)
			case LineUnchanged:
				unchanged = append(unchanged, e.Text)
			}
		}
		assert.Equal(t, []string{"x"}, added)
		assert.Equal(t, []string{"b"}, removed)
		assert.Equal(t, []string{"a", "c"}, unchanged)
	})

	t.Run("all added", func(t *testing.T) {
		edits := DiffLines(nil, []string{"a", "b"})
		require.Len(t, edits, 2)
		assert.Equal(t, LineEdit{Op: LineAdded, Text: "a"}, edits[0])
		assert.Equal(t, LineEdit{Op: LineAdded, Text: "b"}, edits[1])
	})

	t.Run("all removed", func(t *testing.T) {
		edits := DiffLines([]string{"a", "b"}, nil)
		require.Len(t, edits, 2)
		assert.Equal(t, LineRemoved, edits[0].Op)
		assert.Equal(t, LineRemoved, edits[1].Op)
	})

	t.Run("preserves line order of target", func(t *testing.T) {
		edits := DiffLines([]string{"a"}, []string{"x", "a", "y"})

		var got []string
		for _, e := range edits {
			if e.Op != LineRemoved {
				got = append(got, e.Text)
			}
		}
		assert.Equal(t, []string{"x", "a", "y"}, got)
	})
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, SplitLines(""))
	assert.Equal(t, []string{"a"}, SplitLines("a"))
	assert.Equal(t, []string{"a", "b"}, SplitLines("a\nb"))
	// 末尾换行不产生多余空行
	assert.Equal(t, []string{"a", "b"}, SplitLines("a\nb\n"))
	assert.Equal(t, []string{"a", "", "b"}, SplitLines("a\n\nb"))
}

func TestParseSnapshot(t *testing.T) {
	t.Run("empty payload is empty document", func(t *testing.T) {
		doc, err := ParseSnapshot(nil)
		require.NoError(t, err)
		assert.Empty(t, doc.Cells)
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := ParseSnapshot(json.RawMessage(`{"cells":`))
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidSnapshot))
	})
}

func TestCellText(t *testing.T) {
	t.Run("string content", func(t *testing.T) {
		cell := textCell("c1", "markdown", "hello")
		text, ok := cell.Text()
		require.True(t, ok)
		assert.Equal(t, "hello", text)
	})

	t.Run("jupyter style line array", func(t *testing.T) {
		cell := SnapshotCell{ID: "c1", Type: "code", Content: json.RawMessage(`["a\n","b\n"]`)}
		text, ok := cell.Text()
		require.True(t, ok)
		assert.Equal(t, "a\nb\n", text)
	})

	t.Run("object content is binary", func(t *testing.T) {
		cell := SnapshotCell{ID: "c1", Type: "image", Content: json.RawMessage(`{"data":"base64..."}`)}
		_, ok := cell.Text()
		assert.False(t, ok)
	})
}

func TestDiffDocuments(t *testing.T) {
	t.Run("empty to empty", func(t *testing.T) {
		diff := DiffDocuments(&SnapshotDocument{}, &SnapshotDocument{})
		assert.Equal(t, DiffSummary{}, diff.Summary)
		assert.Empty(t, diff.AddedCells)
		assert.Empty(t, diff.RemovedCells)
		assert.Empty(t, diff.ModifiedCells)
	})

	t.Run("identical documents", func(t *testing.T) {
		doc := &SnapshotDocument{Cells: []SnapshotCell{
			textCell("c1", "markdown", "a"),
			textCell("c2", "code", "print(1)"),
		}}
		diff := DiffDocuments(doc, doc)
		assert.Equal(t, 0, diff.Summary.CellsAdded)
		assert.Equal(t, 0, diff.Summary.CellsRemoved)
		assert.Equal(t, 0, diff.Summary.CellsChanged)
		assert.Equal(t, 2, diff.Summary.CellsUnchanged)
	})

	t.Run("added cell", func(t *testing.T) {
		from := &SnapshotDocument{Cells: []SnapshotCell{textCell("c1", "markdown", "a")}}
		to := &SnapshotDocument{Cells: []SnapshotCell{
			textCell("c1", "markdown", "a"),
			textCell("c2", "code", "print(1)"),
		}}
		diff := DiffDocuments(from, to)
		assert.Equal(t, 1, diff.Summary.CellsAdded)
		assert.Equal(t, 0, diff.Summary.CellsRemoved)
		assert.Equal(t, 0, diff.Summary.CellsChanged)
		require.Len(t, diff.AddedCells, 1)
		assert.Equal(t, "c2", diff.AddedCells[0].CellID)
		assert.Equal(t, 1, diff.Summary.LinesAdded)
	})

	t.Run("modified cell line diff", func(t *testing.T) {
		from := &SnapshotDocument{Cells: []SnapshotCell{textCell("c1", "code", "a\nb\nc")}}
		to := &SnapshotDocument{Cells: []SnapshotCell{textCell("c1", "code", "a\nx\nc")}}
		diff := DiffDocuments(from, to)
		assert.Equal(t, 1, diff.Summary.CellsChanged)
		assert.Equal(t, 1, diff.Summary.LinesAdded)
		assert.Equal(t, 1, diff.Summary.LinesRemoved)
		require.Len(t, diff.ModifiedCells, 1)
		assert.False(t, diff.ModifiedCells[0].Binary)
		assert.NotEmpty(t, diff.ModifiedCells[0].LineDiff)
	})

	t.Run("moved cell with identical content is unchanged", func(t *testing.T) {
		from := &SnapshotDocument{Cells: []SnapshotCell{
			textCell("c1", "markdown", "a"),
			textCell("c2", "code", "b"),
		}}
		to := &SnapshotDocument{Cells: []SnapshotCell{
			textCell("c2", "code", "b"),
			textCell("c1", "markdown", "a"),
		}}
		diff := DiffDocuments(from, to)
		assert.Equal(t, DiffSummary{CellsUnchanged: 2}, diff.Summary)
	})

	t.Run("binary cells compared by equality", func(t *testing.T) {
		from := &SnapshotDocument{Cells: []SnapshotCell{
			{ID: "c1", Type: "image", Content: json.RawMessage(`{"data":"aaa"}`)},
		}}
		to := &SnapshotDocument{Cells: []SnapshotCell{
			{ID: "c1", Type: "image", Content: json.RawMessage(`{"data":"bbb"}`)},
		}}
		diff := DiffDocuments(from, to)
		require.Len(t, diff.ModifiedCells, 1)
		assert.True(t, diff.ModifiedCells[0].Binary)
		assert.Empty(t, diff.ModifiedCells[0].LineDiff)
		assert.Equal(t, 0, diff.Summary.LinesAdded)
	})

	t.Run("positional fallback without ids", func(t *testing.T) {
		from := &SnapshotDocument{Cells: []SnapshotCell{
			textCell("", "markdown", "a"),
			textCell("", "code", "b"),
		}}
		to := &SnapshotDocument{Cells: []SnapshotCell{
			textCell("", "markdown", "a"),
			textCell("", "code", "changed"),
		}}
		diff := DiffDocuments(from, to)
		assert.Equal(t, 1, diff.Summary.CellsUnchanged)
		assert.Equal(t, 1, diff.Summary.CellsChanged)
		assert.Equal(t, 0, diff.Summary.CellsAdded)
		assert.Equal(t, 0, diff.Summary.CellsRemoved)
	})

	t.Run("positional fallback skips id-bearing cells", func(t *testing.T) {
		// 删除带 ID 的单元格不应打断其后无 ID 单元格的位置配对
		from := &SnapshotDocument{Cells: []SnapshotCell{
			textCell("c1", "markdown", "intro"),
			textCell("", "code", "a\nb"),
		}}
		to := &SnapshotDocument{Cells: []SnapshotCell{
			textCell("", "code", "a\nchanged"),
		}}
		diff := DiffDocuments(from, to)
		assert.Equal(t, 1, diff.Summary.CellsRemoved)
		assert.Equal(t, 1, diff.Summary.CellsChanged)
		assert.Equal(t, 0, diff.Summary.CellsAdded)
		require.Len(t, diff.RemovedCells, 1)
		assert.Equal(t, "c1", diff.RemovedCells[0].CellID)
		require.Len(t, diff.ModifiedCells, 1)
		assert.NotEmpty(t, diff.ModifiedCells[0].LineDiff)
	})

	t.Run("removed cell", func(t *testing.T) {
		from := &SnapshotDocument{Cells: []SnapshotCell{
			textCell("c1", "markdown", "a"),
			textCell("c2", "code", "x\ny"),
		}}
		to := &SnapshotDocument{Cells: []SnapshotCell{textCell("c1", "markdown", "a")}}
		diff := DiffDocuments(from, to)
		assert.Equal(t, 1, diff.Summary.CellsRemoved)
		assert.Equal(t, 2, diff.Summary.LinesRemoved)
		require.Len(t, diff.RemovedCells, 1)
		assert.Equal(t, "c2", diff.RemovedCells[0].CellID)
	})
}

func TestParseForDiffDegradesToBinary(t *testing.T) {
	doc := parseForDiff(json.RawMessage(`not json at all`))
	require.Len(t, doc.Cells, 1)
	_, ok := doc.Cells[0].Text()
	assert.False(t, ok)
}
