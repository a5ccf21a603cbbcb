package stats

// DivisorMemo: 局部作用域的因子缓存（非进程级共享）。
// 由调用方在单次分析内创建，不得跨 goroutine 共享。
type DivisorMemo map[int][]int

// Divisors 返回 n 在 [2, limit] 内的全部因子（升序，含 n 自身）。
// limit <= 0 表示不限。
func (m DivisorMemo) Divisors(n, limit int) []int {
	all, ok := m[n]
	if !ok {
		all = divisors(n)
		if m != nil {
			m[n] = all
		}
	}
	if limit <= 0 {
		return all
	}
	end := len(all)
	for end > 0 && all[end-1] > limit {
		end--
	}
	return all[:end]
}

func divisors(n int) []int {
	if n < 2 {
		return nil
	}
	var lo, hi []int
	for i := 2; i*i <= n; i++ {
		if n%i != 0 {
			continue
		}
		lo = append(lo, i)
		if j := n / i; j != i {
			hi = append(hi, j)
		}
	}
	out := make([]int, 0, len(lo)+len(hi)+1)
	out = append(out, lo...)
	for i := len(hi) - 1; i >= 0; i-- {
		out = append(out, hi[i])
	}
	return append(out, n)
}

// Period 返回 k 的最短周期 p（k 由其前 p 个元素重复构成，且 p 整除 len(k)）。
func Period(k []int) int {
	n := len(k)
	for p := 1; p < n; p++ {
		if n%p != 0 {
			continue
		}
		ok := true
		for i := p; i < n; i++ {
			if k[i] != k[i-p] {
				ok = false
				break
			}
		}
		if ok {
			return p
		}
	}
	return n
}
