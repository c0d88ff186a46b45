package version

import (
	"encoding/json"

	"nb-studio-api/internal/domain/entity"
)

// CellDiff 单元格级差异
type CellDiff struct {
	CellID   string `json:"cell_id,omitempty"`
	CellType string `json:"cell_type,omitempty"`
	// Binary 为 true 时内容按二进制整体比较，无行级差异
	Binary bool `json:"binary,omitempty"`
	// LineDiff 仅修改的文本单元格携带
	LineDiff []LineEdit `json:"line_diff,omitempty"`
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

// DocumentDiff 两个快照之间的结构化差异
type DocumentDiff struct {
	FromVersionID string      `json:"from_version_id,omitempty"`
	ToVersionID   string      `json:"to_version_id,omitempty"`
	AddedCells    []CellDiff  `json:"added_cells"`
	RemovedCells  []CellDiff  `json:"removed_cells"`
	ModifiedCells []CellDiff  `json:"modified_cells"`
	Summary       DiffSummary `json:"summary"`
}

// ChangeSummary 折算为版本记录上的变更摘要
func (d *DocumentDiff) ChangeSummary() *entity.ChangeSummary {
	return &entity.ChangeSummary{
		CellsAdded:   d.Summary.CellsAdded,
		CellsRemoved: d.Summary.CellsRemoved,
		CellsChanged: d.Summary.CellsChanged,
		LinesAdded:   d.Summary.LinesAdded,
		LinesRemoved: d.Summary.LinesRemoved,
	}
}

// cellPair 配对结果
type cellPair struct {
	from *SnapshotCell
	to   *SnapshotCell
}

// matchCells 在两个快照之间配对单元格
// 优先按单元格 ID 配对（允许移动位置）；缺少 ID 的单元格按出现顺序
// 位置配对。仅在 from 出现的为删除，仅在 to 出现的为新增。
func matchCells(from, to []SnapshotCell) (pairs []cellPair, removed, added []*SnapshotCell) {
	toByID := make(map[string]int, len(to))
	for i := range to {
		if to[i].ID != "" {
			toByID[to[i].ID] = i
		}
	}

	matchedTo := make([]bool, len(to))
	var unmatchedFrom []*SnapshotCell

	for i := range from {
		cell := &from[i]
		if cell.ID != "" {
			if j, ok := toByID[cell.ID]; ok && !matchedTo[j] {
				pairs = append(pairs, cellPair{from: cell, to: &to[j]})
				matchedTo[j] = true
				continue
			}
		}
		unmatchedFrom = append(unmatchedFrom, cell)
	}

	var unmatchedTo []*SnapshotCell
	for j := range to {
		if !matchedTo[j] {
			unmatchedTo = append(unmatchedTo, &to[j])
		}
	}

	// 位置回退：双方无 ID 的单元格按出现顺序配对，携带 ID 却未匹配的
	// 单元格不参与回退，直接计为删除或新增
	var fromIDLess, toIDLess []int
	for i, cell := range unmatchedFrom {
		if cell.ID == "" {
			fromIDLess = append(fromIDLess, i)
		}
	}
	for j, cell := range unmatchedTo {
		if cell.ID == "" {
			toIDLess = append(toIDLess, j)
		}
	}

	paired := len(fromIDLess)
	if len(toIDLess) < paired {
		paired = len(toIDLess)
	}

	pairedFrom := make(map[int]bool, paired)
	pairedTo := make(map[int]bool, paired)
	for k := 0; k < paired; k++ {
		pairs = append(pairs, cellPair{from: unmatchedFrom[fromIDLess[k]], to: unmatchedTo[toIDLess[k]]})
		pairedFrom[fromIDLess[k]] = true
		pairedTo[toIDLess[k]] = true
	}

	for i, cell := range unmatchedFrom {
		if !pairedFrom[i] {
			removed = append(removed, cell)
		}
	}
	for j, cell := range unmatchedTo {
		if !pairedTo[j] {
			added = append(added, cell)
		}
	}
	return pairs, removed, added
}

// DiffDocuments 计算两个快照文档的结构化差异
// 空对空产生零变化；移动但内容相同的单元格视为未变化。
func DiffDocuments(from, to *SnapshotDocument) *DocumentDiff {
	diff := &DocumentDiff{
		AddedCells:    []CellDiff{},
		RemovedCells:  []CellDiff{},
		ModifiedCells: []CellDiff{},
	}

	pairs, removed, added := matchCells(from.Cells, to.Cells)

	for _, pair := range pairs {
		if pair.from.ContentEquals(pair.to) {
			diff.Summary.CellsUnchanged++
			continue
		}

		cd := CellDiff{CellID: pair.to.ID, CellType: pair.to.Type}
		fromText, fromOK := pair.from.Text()
		toText, toOK := pair.to.Text()
		if fromOK && toOK {
			cd.LineDiff = DiffLines(SplitLines(fromText), SplitLines(toText))
			for _, edit := range cd.LineDiff {
				switch edit.Op {
				case LineAdded:
					diff.Summary.LinesAdded++
				case LineRemoved:
					diff.Summary.LinesRemoved++
				}
			}
		} else {
			cd.Binary = true
		}

		diff.ModifiedCells = append(diff.ModifiedCells, cd)
		diff.Summary.CellsChanged++
	}

	for _, cell := range removed {
		cd := CellDiff{CellID: cell.ID, CellType: cell.Type}
		if text, ok := cell.Text(); ok {
			diff.Summary.LinesRemoved += len(SplitLines(text))
		} else {
			cd.Binary = true
		}
		diff.RemovedCells = append(diff.RemovedCells, cd)
		diff.Summary.CellsRemoved++
	}

	for _, cell := range added {
		cd := CellDiff{CellID: cell.ID, CellType: cell.Type}
		if text, ok := cell.Text(); ok {
			diff.Summary.LinesAdded += len(SplitLines(text))
		} else {
			cd.Binary = true
		}
		diff.AddedCells = append(diff.AddedCells, cd)
		diff.Summary.CellsAdded++
	}

	return diff
}

// parseForDiff 为差异计算解析快照
// 整体无法解析的快照退化为单个二进制单元格，而不是使差异计算失败。
func parseForDiff(raw json.RawMessage) *SnapshotDocument {
	doc, err := ParseSnapshot(raw)
	if err != nil {
		return &SnapshotDocument{Cells: []SnapshotCell{{Content: raw}}}
	}
	return doc
}
