package contract

// Ranked: Ranker 的输入项（已求解候选 + 其解密结果）。
type Ranked struct {
	Candidate KeyLengthCandidate
	Solution  Solution
	Result    DecryptionResult
}

// Ranker: 在已求解候选中选出最可信的完整假设。
// 约束：Fitness 最低者胜出；同分取更短密钥；输入为空返回 ErrAnalysisImpossible。
type Ranker interface {
	Rank(items []Ranked, size int) (best int, err error)
}
