package fitness

import (
	"fmt"
	"math"

	"vigcrack/internal/stats"
	"vigcrack/pkg/contract"
)

// Options 为适配度 Ranker 的可选配置（最小必要）。
type Options struct {
	// Tolerance: 视为同分的相对误差。<=0 采用默认 1e-9。
	Tolerance float64 `json:"tolerance"`
}

// Ranker 选取聚合卡方最低的候选；同分取更短密钥，再同分取输入中靠前者。
type Ranker struct {
	tol float64
}

// New 创建 Ranker。
func New(opts *Options) *Ranker {
	r := &Ranker{tol: 1e-9}
	if opts != nil && opts.Tolerance > 0 {
		r.tol = opts.Tolerance
	}
	return r
}

var _ contract.Ranker = (*Ranker)(nil)

// Rank 返回胜出项在 items 中的下标。
func (r *Ranker) Rank(items []contract.Ranked, size int) (int, error) {
	if len(items) == 0 {
		return -1, fmt.Errorf("%w: no solved candidate", contract.ErrAnalysisImpossible)
	}
	best := -1
	for i, it := range items {
		f := it.Result.Fitness
		if math.IsNaN(f) {
			continue
		}
		if len(it.Result.Key) == 0 || !validKey(it.Result.Key, size) {
			return -1, fmt.Errorf("%w: candidate %d carries invalid key", contract.ErrInvariantViolation, it.Candidate.Length)
		}
		if best < 0 || r.better(it.Result, items[best].Result) {
			best = i
		}
	}
	if best < 0 {
		return -1, fmt.Errorf("%w: every candidate scored NaN", contract.ErrAnalysisImpossible)
	}
	return best, nil
}

func (r *Ranker) better(a, b contract.DecryptionResult) bool {
	if r.same(a.Fitness, b.Fitness) {
		return len(a.Key) < len(b.Key)
	}
	return a.Fitness < b.Fitness
}

func (r *Ranker) same(a, b float64) bool {
	ia, ib := math.IsInf(a, 0), math.IsInf(b, 0)
	if ia || ib {
		return ia && ib && a == b
	}
	d := math.Abs(a - b)
	scale := math.Max(math.Abs(a), math.Abs(b))
	return d <= r.tol*math.Max(scale, 1)
}

func validKey(k contract.Key, size int) bool {
	for _, v := range k {
		if v < 0 || v >= size {
			return false
		}
	}
	return true
}

// Primitive 返回 k 的最短重复单元；k 本身不可约时原样返回且 ok=false。
// 例如 KEYKEY 折叠为 KEY。
func Primitive(k contract.Key) (contract.Key, bool) {
	p := stats.Period(k)
	if p == 0 || p == len(k) {
		return k, false
	}
	return k[:p].Clone(), true
}
