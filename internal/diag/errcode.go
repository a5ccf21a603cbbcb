package diag

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"vigcrack/pkg/contract"
)

// Code 是最小错误分类代码。
// 仅用于日志/指标汇总，与退出码解耦。
type Code string

const (
	CodeUnknown   Code = "unknown"
	CodeData      Code = "data"      // 密文不足、候选不可行、IC 无定义
	CodeProfile   Code = "profile"   // 参考分布非法
	CodeInvariant Code = "invariant" // 输入非法、路径越界、不变量违例
	CodeCancel    Code = "cancel"
	CodeIO        Code = "io"
)

// Classify 将错误归为最小分类。仅依赖哨兵错误与标准库错误类型。
func Classify(err error) Code {
	switch {
	case err == nil:
		return CodeUnknown
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancel
	case errors.Is(err, contract.ErrInvalidReferenceDistribution):
		return CodeProfile
	case errors.Is(err, contract.ErrInsufficientData),
		errors.Is(err, contract.ErrInfeasibleKeyLength),
		errors.Is(err, contract.ErrUndefinedCoincidence),
		errors.Is(err, contract.ErrAnalysisImpossible):
		return CodeData
	case errors.Is(err, contract.ErrInvariantViolation),
		errors.Is(err, contract.ErrInvalidInput),
		errors.Is(err, contract.ErrPathInvalid):
		return CodeInvariant
	}
	var perr *fs.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	return CodeUnknown
}

// NowUTC 返回 RFC3339 UTC 时间字符串（用于结构化日志字段 ts）。
func NowUTC() string { return time.Now().UTC().Format(time.RFC3339) }
