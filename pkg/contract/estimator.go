package contract

import "context"

// Estimator: 结合 Kasiski 与 IC 两路信号产出有序的候选密钥长度。
// 约束：
//  1. 输出顺序确定且可复现（高优先级在前）；
//  2. 不得输出 L = 0 或 L > N 的候选；
//  3. IC 无定义的长度被丢弃而非记为 0；
//  4. 无任何可行长度时返回 ErrInsufficientData。
type Estimator interface {
	Estimate(ctx context.Context, t Text, p Profile, limit SearchLimit) ([]KeyLengthCandidate, error)
}
