package contract

import "context"

// Solver: 对给定候选长度逐位恢复密钥（最小化卡方）。
// 约束：
//  1. 各位置相互独立；同分取最小移位；
//  2. 任一位置子序列为空时返回 ErrInfeasibleKeyLength，不猜测移位 0；
//  3. 不修改输入 Text。
type Solver interface {
	Solve(ctx context.Context, t Text, length int, p Profile) (Solution, error)
}
