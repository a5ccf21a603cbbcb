// Package stats 汇集密码分析所需的纯数值内核（无 I/O、无共享可变状态）。
package stats

import "vigcrack/pkg/contract"

// ZeroExpectedFloor 为期望概率为 0 的符号替代的分母概率（即 1 个百分点）。
const ZeroExpectedFloor = 0.01

// Column 返回 t 中以 stride 为步长、offset 起始的子序列（新切片）。
// stride <= 0 或 offset 越界时返回 nil。
func Column(t contract.Text, stride, offset int) contract.Text {
	if stride <= 0 || offset < 0 || offset >= len(t) {
		return nil
	}
	out := make(contract.Text, 0, (len(t)-offset+stride-1)/stride)
	for i := offset; i < len(t); i += stride {
		out = append(out, t[i])
	}
	return out
}

// Columns 将 t 划分为 stride 个交错子序列。
func Columns(t contract.Text, stride int) []contract.Text {
	if stride <= 0 {
		return nil
	}
	out := make([]contract.Text, stride)
	for p := 0; p < stride; p++ {
		out[p] = Column(t, stride, p)
	}
	return out
}

// Counts 统计各符号出现次数；越界符号被忽略。
func Counts(t contract.Text, size int) []int {
	c := make([]int, size)
	for _, v := range t {
		if v >= 0 && v < size {
			c[v]++
		}
	}
	return c
}

// IndexOfCoincidence: IC = Σ f(f-1) / (n(n-1))。
// n < 2 时返回 ErrUndefinedCoincidence。
func IndexOfCoincidence(t contract.Text, size int) (float64, error) {
	n := len(t)
	if n < 2 {
		return 0, contract.ErrUndefinedCoincidence
	}
	var num int
	for _, f := range Counts(t, size) {
		num += f * (f - 1)
	}
	return float64(num) / (float64(n) * float64(n-1)), nil
}

// AverageIC 对 stride 个子序列的 IC 取平均；任一子序列无定义则整体无定义。
func AverageIC(t contract.Text, stride, size int) (float64, error) {
	if stride <= 0 {
		return 0, contract.ErrInvalidInput
	}
	var sum float64
	for _, col := range Columns(t, stride) {
		ic, err := IndexOfCoincidence(col, size)
		if err != nil {
			return 0, err
		}
		sum += ic
	}
	return sum / float64(stride), nil
}

// ChiSquareShift 计算以 shift 解密 counts 后与参考分布的卡方统计量：
// χ²(s) = Σ_i (O_i − E_i·n)² / (E_i·n)，其中 O_i = counts[(i+s) mod A]。
// 期望为 0 的符号以 ZeroExpectedFloor·n 作分母，结果恒为有限值。
func ChiSquareShift(counts []int, n int, freq contract.Distribution, shift int) float64 {
	size := len(freq)
	var chi float64
	for i, p := range freq {
		obs := float64(counts[(i+shift)%size])
		exp := p * float64(n)
		denom := exp
		if denom == 0 {
			if obs == 0 {
				continue
			}
			denom = ZeroExpectedFloor * float64(n)
		}
		d := obs - exp
		chi += d * d / denom
	}
	return chi
}
