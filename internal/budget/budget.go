package budget

import "vigcrack/pkg/contract"

// 默认探索边界。
const (
	DefaultMinRepeatLen = 3
	DefaultMaxKeyLen    = 40
	DefaultMinColumnLen = 10
)

// WithDefaults 为未设置（<=0）的字段填入默认值；MaxCandidates 保持原值（0 表示全部）。
func WithDefaults(l contract.SearchLimit) contract.SearchLimit {
	if l.MinRepeatLen <= 0 {
		l.MinRepeatLen = DefaultMinRepeatLen
	}
	if l.MaxKeyLen <= 0 {
		l.MaxKeyLen = DefaultMaxKeyLen
	}
	if l.MinColumnLen <= 0 {
		l.MinColumnLen = DefaultMinColumnLen
	}
	if l.MaxCandidates < 0 {
		l.MaxCandidates = 0
	}
	return l
}

// EffectiveMaxKeyLen 计算长度为 n 的密文可探索的密钥长度上界：
// min(MaxKeyLen, ⌊n / MinColumnLen⌋)，保证每个子序列至少 MinColumnLen 个符号。
// 返回 0 表示没有任何可行长度。
func EffectiveMaxKeyLen(n int, l contract.SearchLimit) int {
	l = WithDefaults(l)
	if n <= 0 {
		return 0
	}
	byData := n / l.MinColumnLen
	if byData > n {
		byData = n
	}
	if byData < l.MaxKeyLen {
		return byData
	}
	return l.MaxKeyLen
}
