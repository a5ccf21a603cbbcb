package chisq

import (
	"context"
	"fmt"
	"math"
	"sync"

	"vigcrack/internal/stats"
	"vigcrack/pkg/contract"
)

// Options 为卡方 Solver 的可选配置（最小必要）。
type Options struct {
	// ParallelPositions: 同一候选内各位置的移位搜索并发执行。
	// 默认 false；候选级并发由编排层负责。
	ParallelPositions bool `json:"parallel_positions"`
}

// Solver 对每个位置选取使卡方最小的移位。
type Solver struct {
	parallel bool
}

// New 创建 Solver。
func New(opts *Options) *Solver {
	s := &Solver{}
	if opts != nil {
		s.parallel = opts.ParallelPositions
	}
	return s
}

var _ contract.Solver = (*Solver)(nil)

// Solve 恢复长度为 length 的密钥。
// 任一位置子序列为空时返回 ErrInfeasibleKeyLength。
func (s *Solver) Solve(ctx context.Context, t contract.Text, length int, p contract.Profile) (contract.Solution, error) {
	if length < 1 {
		return contract.Solution{}, fmt.Errorf("%w: length %d", contract.ErrInfeasibleKeyLength, length)
	}
	if length > len(t) {
		return contract.Solution{}, fmt.Errorf("%w: length %d exceeds %d symbols", contract.ErrInfeasibleKeyLength, length, len(t))
	}
	if p.Alphabet.Size() != len(p.Freq) || len(p.Freq) == 0 {
		return contract.Solution{}, contract.ErrInvalidReferenceDistribution
	}
	sol := contract.Solution{
		Length: length,
		Key:    make(contract.Key, length),
		Scores: make([]float64, length),
	}
	if !s.parallel || length == 1 {
		for pos := 0; pos < length; pos++ {
			if err := ctx.Err(); err != nil {
				return contract.Solution{}, err
			}
			sol.Key[pos], sol.Scores[pos] = BestShift(stats.Column(t, length, pos), p.Freq)
		}
		return sol, nil
	}
	// 各位置写入互不重叠的下标，无需加锁
	var wg sync.WaitGroup
	wg.Add(length)
	for pos := 0; pos < length; pos++ {
		go func(pos int) {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			sol.Key[pos], sol.Scores[pos] = BestShift(stats.Column(t, length, pos), p.Freq)
		}(pos)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return contract.Solution{}, err
	}
	return sol, nil
}

// BestShift 对单个子序列枚举全部移位，返回卡方最小者（同分取最小移位）。
// col 为空时返回 (0, +Inf)；Solve 已保证不会出现该情况。
func BestShift(col contract.Text, freq contract.Distribution) (int, float64) {
	size := len(freq)
	if len(col) == 0 {
		return 0, math.Inf(1)
	}
	counts := stats.Counts(col, size)
	best, bestChi := 0, math.Inf(1)
	for s := 0; s < size; s++ {
		chi := stats.ChiSquareShift(counts, len(col), freq, s)
		if chi < bestChi {
			best, bestChi = s, chi
		}
	}
	return best, bestChi
}
