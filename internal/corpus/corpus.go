// Package corpus 生成服从参考分布的合成明文，供测试与基准使用。
package corpus

import (
	"math/rand"
	"sort"

	"vigcrack/pkg/contract"
)

// Sample 按分布独立抽样 n 个符号（seed 固定时结果可复现）。
func Sample(d contract.Distribution, n int, seed int64) contract.Text {
	r := rand.New(rand.NewSource(seed))
	cdf := make([]float64, len(d))
	var acc float64
	for i, p := range d {
		acc += p
		cdf[i] = acc
	}
	out := make(contract.Text, n)
	for i := range out {
		u := r.Float64() * acc
		out[i] = sort.SearchFloat64s(cdf, u)
		if out[i] >= len(d) {
			out[i] = len(d) - 1
		}
	}
	return out
}

// Exact 构造 columns 个交错子序列、每列 perColumn 个符号的明文，
// 每列的符号计数按最大余数法逼近 p·perColumn，列内顺序随机。
func Exact(d contract.Distribution, perColumn, columns int, seed int64) contract.Text {
	r := rand.New(rand.NewSource(seed))
	base := counts(d, perColumn)
	cols := make([][]int, columns)
	for c := range cols {
		col := make([]int, 0, perColumn)
		for sym, k := range base {
			for j := 0; j < k; j++ {
				col = append(col, sym)
			}
		}
		r.Shuffle(len(col), func(i, j int) { col[i], col[j] = col[j], col[i] })
		cols[c] = col
	}
	out := make(contract.Text, 0, perColumn*columns)
	for i := 0; i < perColumn; i++ {
		for c := 0; c < columns; c++ {
			out = append(out, cols[c][i])
		}
	}
	return out
}

// counts 以最大余数法把 n 分配到各符号。
func counts(d contract.Distribution, n int) []int {
	out := make([]int, len(d))
	type rem struct {
		sym  int
		frac float64
	}
	rs := make([]rem, len(d))
	total := 0
	for i, p := range d {
		x := p * float64(n)
		out[i] = int(x)
		total += out[i]
		rs[i] = rem{i, x - float64(out[i])}
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].frac > rs[j].frac })
	for i := 0; total < n && i < len(rs); i++ {
		out[rs[i].sym]++
		total++
	}
	return out
}
