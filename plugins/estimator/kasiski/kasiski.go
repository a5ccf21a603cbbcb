package kasiski

import (
	"context"
	"fmt"
	"math"
	"sort"

	"vigcrack/internal/budget"
	"vigcrack/internal/stats"
	"vigcrack/pkg/contract"
)

// Options 为 Kasiski+IC Estimator 的可选配置（最小必要）。
type Options struct {
	// Top: 两路信号各取前 Top 名参与交集判定。<=0 采用默认 10。
	Top int `json:"top"`
	// ExtraNgramSizes: 除 MinRepeatLen 外额外扫描的重复子串长度；计数累加。
	ExtraNgramSizes []int `json:"extra_ngram_sizes"`
	// Threshold: 子串至少出现的次数（>=2）。<=1 采用默认 2。
	Threshold int `json:"threshold"`
	// NgramThresholds: 按子串长度覆盖 Threshold，例如 {"3":6,"4":5,"5":3}。
	NgramThresholds map[int]int `json:"ngram_thresholds"`
}

// Estimator 结合重复序列距离与重合指数产出候选密钥长度。
type Estimator struct {
	top       int
	extra     []int
	threshold int
	perSize   map[int]int
}

// New 创建 Estimator。
func New(opts *Options) *Estimator {
	e := &Estimator{top: 10, threshold: 2}
	if opts == nil {
		return e
	}
	if opts.Top > 0 {
		e.top = opts.Top
	}
	if opts.Threshold > 1 {
		e.threshold = opts.Threshold
	}
	for n, th := range opts.NgramThresholds {
		if th > 1 {
			if e.perSize == nil {
				e.perSize = make(map[int]int)
			}
			e.perSize[n] = th
		}
	}
	for _, n := range opts.ExtraNgramSizes {
		if n >= 2 {
			e.extra = append(e.extra, n)
		}
	}
	return e
}

var _ contract.Estimator = (*Estimator)(nil)

// Tally: 因子计数（Kasiski 结果）。
type Tally struct {
	Length int
	Count  int
}

// Estimate 产出合并排序后的候选：
//  1. 同时位于 IC 前 Top 与 Kasiski 前 Top 的长度优先，按 IC 偏差升序；
//  2. 其余按 IC 偏差升序；
//  3. 偏差相同取更小长度。
func (e *Estimator) Estimate(ctx context.Context, t contract.Text, p contract.Profile, limit contract.SearchLimit) ([]contract.KeyLengthCandidate, error) {
	limit = budget.WithDefaults(limit)
	if len(t) == 0 {
		return nil, fmt.Errorf("%w: empty text", contract.ErrInsufficientData)
	}
	maxLen := budget.EffectiveMaxKeyLen(len(t), limit)
	if maxLen < 1 {
		return nil, fmt.Errorf("%w: %d symbols, need at least %d per column", contract.ErrInsufficientData, len(t), limit.MinColumnLen)
	}

	sizes := append([]int{limit.MinRepeatLen}, e.extra...)
	tallies, err := e.Kasiski(ctx, t, sizes, maxLen)
	if err != nil {
		return nil, err
	}
	kcount := make(map[int]int, len(tallies))
	ktop := make(map[int]bool, e.top)
	for i, tl := range tallies {
		kcount[tl.Length] = tl.Count
		if i < e.top {
			ktop[tl.Length] = true
		}
	}

	cands, err := ScoreIC(ctx, t, p, maxLen)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, fmt.Errorf("%w: no length with defined coincidence", contract.ErrInsufficientData)
	}
	for i := range cands {
		cands[i].Kasiski = kcount[cands[i].Length]
		cands[i].Both = i < e.top && ktop[cands[i].Length]
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Both != cands[j].Both {
			return cands[i].Both
		}
		return false
	})
	if limit.MaxCandidates > 0 && len(cands) > limit.MaxCandidates {
		cands = cands[:limit.MaxCandidates]
	}
	return cands, nil
}

// ScoreIC 为 1..maxLen 的每个长度计算平均 IC 并按与期望 IC 的偏差升序排列。
// IC 无定义的长度被丢弃。
func ScoreIC(ctx context.Context, t contract.Text, p contract.Profile, maxLen int) ([]contract.KeyLengthCandidate, error) {
	size := p.Alphabet.Size()
	want := p.Coincidence()
	gap := math.Abs(want - p.RandomCoincidence())
	if maxLen > len(t) {
		maxLen = len(t)
	}
	out := make([]contract.KeyLengthCandidate, 0, maxLen)
	for l := 1; l <= maxLen; l++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ic, err := stats.AverageIC(t, l, size)
		if err != nil {
			// 子序列过短：丢弃该长度
			continue
		}
		dev := math.Abs(ic - want)
		out = append(out, contract.KeyLengthCandidate{
			Length:     l,
			IC:         ic,
			Deviation:  dev,
			Confidence: confidence(dev, gap),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Deviation != out[j].Deviation {
			return out[i].Deviation < out[j].Deviation
		}
		return out[i].Length < out[j].Length
	})
	return out, nil
}

func confidence(dev, gap float64) float64 {
	if gap <= 0 {
		return 0
	}
	c := 1 - dev/gap
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// Kasiski 对每个子串长度扫描重复出现位置，累计两两距离在 [2, maxLen] 内因子的出现次数。
// 返回按计数降序、长度升序排列的结果。
func (e *Estimator) Kasiski(ctx context.Context, t contract.Text, sizes []int, maxLen int) ([]Tally, error) {
	memo := stats.DivisorMemo{}
	counts := make(map[int]int)
	for _, n := range sizes {
		if n < 1 || n > len(t) {
			continue
		}
		for _, pos := range repeats(t, n, e.thresholdFor(n)) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for i := 0; i < len(pos)-1; i++ {
				for j := i + 1; j < len(pos); j++ {
					for _, d := range memo.Divisors(pos[j]-pos[i], maxLen) {
						counts[d]++
					}
				}
			}
		}
	}
	out := make([]Tally, 0, len(counts))
	for l, c := range counts {
		out = append(out, Tally{Length: l, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Length < out[j].Length
	})
	return out, nil
}

func (e *Estimator) thresholdFor(n int) int {
	if th, ok := e.perSize[n]; ok {
		return th
	}
	return e.threshold
}

// repeats 返回出现次数不少于 threshold 的 n 元组的起始位置列表（按首次出现顺序）。
func repeats(t contract.Text, n, threshold int) [][]int {
	type gram = string
	idx := make(map[gram]int)
	var all [][]int
	buf := make([]byte, 0, n*2)
	for i := 0; i+n <= len(t); i++ {
		buf = buf[:0]
		for _, v := range t[i : i+n] {
			buf = append(buf, byte(v>>8), byte(v))
		}
		k := gram(buf)
		if at, ok := idx[k]; ok {
			all[at] = append(all[at], i)
			continue
		}
		idx[k] = len(all)
		all = append(all, []int{i})
	}
	out := all[:0]
	for _, pos := range all {
		if len(pos) >= threshold {
			out = append(out, pos)
		}
	}
	return out
}
