// Package version 实现笔记版本控制核心：提交、恢复、差异与保留清理
package version

import (
	"encoding/json"
	"strings"

	apperrors "nb-studio-api/pkg/errors"
)

// SnapshotCell 快照中的一个单元格
// Content 保持原始 JSON：字符串或字符串数组视为文本参与行级差异，
// 其余形态视为二进制载荷，仅做整体相等比较。
type SnapshotCell struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Content  json.RawMessage `json:"content"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// SnapshotDocument 解析后的快照文档
type SnapshotDocument struct {
	Cells []SnapshotCell `json:"cells"`
}

// ParseSnapshot 解析快照载荷
// 空载荷视为空文档；载荷不是合法的单元格文档时返回 InvalidSnapshot。
func ParseSnapshot(raw json.RawMessage) (*SnapshotDocument, error) {
	if len(raw) == 0 {
		return &SnapshotDocument{}, nil
	}

	var doc SnapshotDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidSnapshot, "snapshot is not a valid cell document")
	}
	return &doc, nil
}

// Text 尝试将单元格内容解释为文本
// 返回 false 表示内容不是文本形态，调用方按二进制处理。
func (c *SnapshotCell) Text() (string, bool) {
	if len(c.Content) == 0 {
		return "", true
	}

	var s string
	if err := json.Unmarshal(c.Content, &s); err == nil {
		return s, true
	}

	// Jupyter 风格：内容为行数组
	var lines []string
	if err := json.Unmarshal(c.Content, &lines); err == nil {
		return strings.Join(lines, ""), true
	}

	return "", false
}

// ContentEquals 比较两个单元格的内容是否相等
// 文本内容按解释后的文本比较，二进制内容按原始字节比较。
func (c *SnapshotCell) ContentEquals(other *SnapshotCell) bool {
	aText, aOK := c.Text()
	bText, bOK := other.Text()
	if aOK && bOK {
		return aText == bText
	}
	if aOK != bOK {
		return false
	}
	return string(c.Content) == string(other.Content)
}

// SplitLines 将文本按行边界切分
// 保留空行，末尾换行不产生多余的空行。
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
