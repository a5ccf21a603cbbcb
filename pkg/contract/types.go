package contract

import "strings"

// FileID: 逻辑密文ID（通常为路径，需规范化，跨平台一致）。
type FileID string

// Text: 规范化后的密文（NormalizedText）。
// 约束：每个元素均位于 [0, A)；生成后只读，不得原地修改。
type Text []int

// Distribution: 与字母表逐位对齐的参考概率分布（ReferenceDistribution）。
type Distribution []float64

// Key: 长度为 L 的密钥，每个元素为字母表下标（即移位量）。
type Key []int

// String 将密钥渲染为字母表符号；越界下标渲染为 '?'。
func (k Key) String(a Alphabet) string {
	var b strings.Builder
	for _, v := range k {
		if v < 0 || v >= a.Size() {
			b.WriteByte('?')
			continue
		}
		b.WriteRune(a.Symbol(v))
	}
	return b.String()
}

// Clone 返回独立副本。
func (k Key) Clone() Key {
	if k == nil {
		return nil
	}
	out := make(Key, len(k))
	copy(out, k)
	return out
}

// SearchLimit: 候选密钥长度探索的最小必要限制集合。
type SearchLimit struct {
	// MinRepeatLen: Kasiski 重复子串最小长度（默认 3）。
	MinRepeatLen int
	// MaxKeyLen: 探索的密钥长度上界（默认 40）。
	MaxKeyLen int
	// MinColumnLen: 每个步长子序列至少包含的符号数；决定 N 对应的可行上界。
	MinColumnLen int
	// MaxCandidates: 参与求解的候选数上限；0 表示全部。
	MaxCandidates int
}

// KeyLengthCandidate: 候选密钥长度及其评分。
type KeyLengthCandidate struct {
	Length int
	// IC: 该长度下各子序列 IC 的平均值。
	IC float64
	// Deviation: |IC - 语言期望 IC|，越小越好。
	Deviation float64
	// Kasiski: 该长度作为重复距离因子出现的次数（0 表示 Kasiski 未给出）。
	Kasiski int
	// Confidence: 由 IC 派生的置信度 [0,1]。
	Confidence float64
	// Both: 同时出现在两路信号的前列。
	Both bool
}

// Solution: Solver 对单个候选长度的求解结果。
type Solution struct {
	Length int
	Key    Key
	// Scores: 每个位置的最小卡方值（与 Key 逐位对齐）。
	Scores []float64
}

// Fitness 返回聚合适配度（逐位最小卡方之和，越小越好）。
func (s Solution) Fitness() float64 {
	var sum float64
	for _, v := range s.Scores {
		sum += v
	}
	return sum
}

// DecryptionResult: 密钥、明文与聚合适配度。
// 不同候选长度之间仅能通过 Fitness 比较。
type DecryptionResult struct {
	Key       Key
	Plaintext Text
	Fitness   float64
}

// CandidateStatus: 候选在流水线中的最终状态。
type CandidateStatus string

const (
	StatusSolved     CandidateStatus = "solved"
	StatusInfeasible CandidateStatus = "infeasible"
	StatusSkipped    CandidateStatus = "skipped"
)

// CandidateTrace: 每个被探索候选的可审计记录。
type CandidateTrace struct {
	Candidate KeyLengthCandidate
	Status    CandidateStatus
	Key       Key
	Fitness   float64
	Best      bool
	// CollapsedTo: 胜出密钥可折叠时的基本周期密钥（否则为 nil）。
	CollapsedTo Key
	// Err: 非 solved 状态下的原因（可为 nil）。
	Err error
}

// Report: 单份密文的最终分析结果。
type Report struct {
	Best       DecryptionResult
	Length     int
	Candidates []CandidateTrace
	// N: 规范化后密文长度。
	N int
}
