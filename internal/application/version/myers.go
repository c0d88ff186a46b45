package version

// LineOp 行级差异操作类型
type LineOp string

const (
	LineUnchanged LineOp = "unchanged"
	LineAdded     LineOp = "added"
	LineRemoved   LineOp = "removed"
)

// LineEdit 一行的差异结果
type LineEdit struct {
	Op   LineOp `json:"op"`
	Text string `json:"text"`
}

// DiffLines 计算两个行序列的最短编辑脚本
//
// Myers O(ND) 算法：沿编辑图的对角线推进，记录每轮的最远可达点用于回溯。
// 输出按 b 的顺序排列的 unchanged/added/removed 行序列。
func DiffLines(a, b []string) []LineEdit {
	n, m := len(a), len(b)
	max := n + m
	if max == 0 {
		return nil
	}

	offset := max
	v := make([]int, 2*max+1)
	trace := make([][]int, 0, max+1)

	foundD := -1
	for d := 0; d <= max && foundD < 0; d++ {
		snapshot := make([]int, len(v))
		copy(snapshot, v)
		trace = append(trace, snapshot)

		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k

			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}

			v[offset+k] = x
			if x >= n && y >= m {
				foundD = d
				break
			}
		}
	}

	// 从终点回溯编辑路径，得到倒序的编辑序列
	edits := make([]LineEdit, 0, max)
	x, y := n, m
	for d := foundD; d > 0; d-- {
		prev := trace[d]
		k := x - y

		var prevK int
		if k == -d || (k != d && prev[offset+k-1] < prev[offset+k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := prev[offset+prevK]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			edits = append(edits, LineEdit{Op: LineUnchanged, Text: a[x]})
		}

		if x == prevX {
			y--
			edits = append(edits, LineEdit{Op: LineAdded, Text: b[y]})
		} else {
			x--
			edits = append(edits, LineEdit{Op: LineRemoved, Text: a[x]})
		}
		x, y = prevX, prevY
	}
	for x > 0 {
		x--
		y--
		edits = append(edits, LineEdit{Op: LineUnchanged, Text: a[x]})
	}

	for i, j := 0, len(edits)-1; i < j; i, j = i+1, j-1 {
		edits[i], edits[j] = edits[j], edits[i]
	}
	return edits
}
