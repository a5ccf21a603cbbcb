package contract

import (
	"fmt"
	"math"
)

// DistributionTolerance: 参考分布总和允许偏离 1 的幅度。
const DistributionTolerance = 0.01

// Profile: 目标语言常量（字母表 + 参考分布 + 期望 IC）。
// 作为配置显式传入每个需要它的组件；运行期只读。
type Profile struct {
	Name     string
	Alphabet Alphabet
	Freq     Distribution
	// ExpectedIC: 语言期望重合指数；0 表示由 Freq 推导（Σp²）。
	ExpectedIC float64
}

// Validate 校验分布覆盖整张字母表、非负且总和约为 1。
func (p Profile) Validate() error {
	a := p.Alphabet.Size()
	if a < 2 {
		return fmt.Errorf("%w: alphabet size %d", ErrInvalidReferenceDistribution, a)
	}
	if len(p.Freq) != a {
		return fmt.Errorf("%w: %d entries for alphabet of %d", ErrInvalidReferenceDistribution, len(p.Freq), a)
	}
	var sum float64
	for i, v := range p.Freq {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: entry %q = %v", ErrInvalidReferenceDistribution, p.Alphabet.Symbol(i), v)
		}
		sum += v
	}
	if math.Abs(sum-1) > DistributionTolerance {
		return fmt.Errorf("%w: sum %.4f", ErrInvalidReferenceDistribution, sum)
	}
	if p.ExpectedIC < 0 || p.ExpectedIC > 1 {
		return fmt.Errorf("%w: expected ic %v", ErrInvalidReferenceDistribution, p.ExpectedIC)
	}
	return nil
}

// Coincidence 返回期望 IC：显式配置优先，否则为 Σp²。
func (p Profile) Coincidence() float64 {
	if p.ExpectedIC > 0 {
		return p.ExpectedIC
	}
	var s float64
	for _, v := range p.Freq {
		s += v * v
	}
	return s
}

// RandomCoincidence 返回均匀随机序列的 IC（1/A）。
func (p Profile) RandomCoincidence() float64 {
	if p.Alphabet.Size() == 0 {
		return 0
	}
	return 1 / float64(p.Alphabet.Size())
}
