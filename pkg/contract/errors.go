package contract

import "errors"

// 分析相关最小错误分类。除 ErrAnalysisImpossible 外均只作用于单个候选，
// 编排层记录后跳过该候选继续处理其余候选。
var (
	// ErrInsufficientData: 规范化密文为空或过短，无法进行任何分析。
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInfeasibleKeyLength: 某候选长度下存在空子序列，无法逐位求解。
	ErrInfeasibleKeyLength = errors.New("candidate key length infeasible")
	// ErrUndefinedCoincidence: 子序列少于 2 个符号，IC 无定义。
	ErrUndefinedCoincidence = errors.New("index of coincidence undefined")
	// ErrInvalidReferenceDistribution: 参考分布缺项、含负值或总和偏离 1。
	ErrInvalidReferenceDistribution = errors.New("invalid reference distribution")
	// ErrAnalysisImpossible: 没有任何候选通过过滤（终止性失败）。
	ErrAnalysisImpossible = errors.New("analysis impossible")
)

// 通用哨兵。
var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrPathInvalid: 目标标识映射为无效/越界路径（例如绝对路径或 '..' 逃逸）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrInvariantViolation: 领域不变量违例（通用哨兵）。
	ErrInvariantViolation = errors.New("invariant violation")
)
