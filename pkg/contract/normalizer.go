package contract

import "context"

// Normalizer: 将原始密文规约为字母表下标序列。
// 约束：
//  1. 丢弃（而非替换）字母表外的符号，保持相对顺序；
//  2. 大小写折叠；
//  3. 纯计算、确定性、无副作用；
//  4. 空输出是合法结果，由调用方转换为 ErrInsufficientData。
type Normalizer interface {
	Normalize(ctx context.Context, a Alphabet, raw string) (Text, error)
}

// RawFolder: 可选接口。若 Normalizer 会把字母表外的符号映射进字母表（如去变音符），
// 则须提供同一映射作用于原始文本，使原样解密与分析序列逐符号对齐。
type RawFolder interface {
	FoldRaw(raw string) string
}
